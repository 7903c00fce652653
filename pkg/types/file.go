package types

// File is a regular file discovered by the enumerator.
type File struct {
	// Path is the path to the file. It uniquely identifies the file for the
	// lifetime of a run.
	Path string

	// Size is the size of the file in bytes, as observed at enumeration time.
	// It is never re-read.
	Size int64
}
