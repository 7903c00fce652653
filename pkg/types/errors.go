package types

import (
	"errors"
	"fmt"
)

// ReadError indicates that a specific file or directory could not be opened
// or fully read. It is recovered locally: the entry is skipped and reported.
type ReadError struct {
	Path string
	Err  error
}

func (err *ReadError) Error() string {
	return fmt.Sprintf("reading `%s`: %v", err.Path, err.Err)
}

func (err *ReadError) Unwrap() error { return err.Err }

func (wanted *ReadError) CompareErr(err error) error {
	var other *ReadError
	if errors.As(err, &other) {
		return wanted.Compare(other)
	}
	return fmt.Errorf(
		"wanted `*types.ReadError`; found `%T`: %v",
		err,
		err,
	)
}

// Compare compares paths only; the underlying error comes from the OS and
// isn't stable across platforms.
func (wanted *ReadError) Compare(other *ReadError) error {
	if wanted == other {
		return nil
	}

	if wanted == nil && other != nil {
		return fmt.Errorf("wanted `nil`; found not-nil")
	}

	if wanted != nil && other == nil {
		return fmt.Errorf("wanted not-nil; found `nil`")
	}

	if wanted.Path != other.Path {
		return fmt.Errorf(
			"ReadError.Path: wanted `%s`; found `%s`",
			wanted.Path,
			other.Path,
		)
	}

	return nil
}

// DuplicatePathError indicates that a path was handed to more than one
// worker (or appeared twice in the input). It is always fatal.
type DuplicatePathError struct {
	Path string

	// Workers holds the indices of the two workers which both produced a
	// result for `Path`. Both are -1 when the duplicate was found in the
	// input before partitioning.
	Workers [2]int
}

func (err *DuplicatePathError) Error() string {
	if err.Workers == [2]int{-1, -1} {
		return fmt.Sprintf("duplicate path in input: %s", err.Path)
	}
	return fmt.Sprintf(
		"duplicate path: %s (workers %d and %d)",
		err.Path,
		err.Workers[0],
		err.Workers[1],
	)
}

func (wanted *DuplicatePathError) CompareErr(err error) error {
	var other *DuplicatePathError
	if errors.As(err, &other) {
		return wanted.Compare(other)
	}
	return fmt.Errorf(
		"wanted `*types.DuplicatePathError`; found `%T`: %v",
		err,
		err,
	)
}

func (wanted *DuplicatePathError) Compare(other *DuplicatePathError) error {
	if wanted == other {
		return nil
	}

	if wanted == nil && other != nil {
		return fmt.Errorf("wanted `nil`; found not-nil")
	}

	if wanted != nil && other == nil {
		return fmt.Errorf("wanted not-nil; found `nil`")
	}

	if wanted.Path != other.Path {
		return fmt.Errorf(
			"DuplicatePathError.Path: wanted `%s`; found `%s`",
			wanted.Path,
			other.Path,
		)
	}

	if wanted.Workers != other.Workers {
		return fmt.Errorf(
			"DuplicatePathError.Workers: wanted `%v`; found `%v`",
			wanted.Workers,
			other.Workers,
		)
	}

	return nil
}

// ConfigError is returned for invalid configuration before any work begins.
type ConfigError struct {
	Field  string
	Reason string
}

func (err *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", err.Field, err.Reason)
}

func (wanted *ConfigError) CompareErr(err error) error {
	var other *ConfigError
	if errors.As(err, &other) {
		if wanted.Field != other.Field {
			return fmt.Errorf(
				"ConfigError.Field: wanted `%s`; found `%s`",
				wanted.Field,
				other.Field,
			)
		}
		return nil
	}
	return fmt.Errorf(
		"wanted `*types.ConfigError`; found `%T`: %v",
		err,
		err,
	)
}

// fail compilation if the error types don't satisfy `WantedError`.
var _ WantedError = &ReadError{}
var _ WantedError = &DuplicatePathError{}
var _ WantedError = &ConfigError{}
