// Package walk enumerates the regular files beneath a directory.
package walk

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/weberc2/dupfinder/pkg/types"
)

// Walker walks a directory tree breadth-first, one directory at a time.
// Entries of a directory are visited in name order, so the enumeration order
// is stable for an unchanged tree.
//
// Only regular files are produced. Symlinks, sockets, devices and pipes are
// skipped, which also sidesteps symlink cycles.
type Walker struct {
	// Root is the directory to walk.
	Root string

	// Ignore lists directory names (not paths) which are not descended
	// into, e.g. `.git`.
	Ignore []string

	directory   string
	directories []string
	entries     []fs.DirEntry
	cursor      int
	started     bool
}

// Next returns the next regular file. `ok` is false once the walk is done.
// A non-nil error is a `*types.ReadError` for a single entry or directory;
// the walk can continue past it.
func (w *Walker) Next() (file types.File, err error, ok bool) {
	if !w.started {
		w.directories = []string{w.Root}
		w.started = true
	}

	for {
		// loop over the remaining entries until we hit a file. if the
		// entries point to a directory, push it onto the queue
		for w.cursor < len(w.entries) {
			entry := w.entries[w.cursor]
			w.cursor++
			path := filepath.Join(w.directory, entry.Name())

			if entry.IsDir() {
				if !w.ignored(entry.Name()) {
					w.directories = append(w.directories, path)
				}
				continue
			}

			if !entry.Type().IsRegular() {
				continue
			}

			var info fs.FileInfo
			if info, err = entry.Info(); err != nil {
				err = &types.ReadError{
					Path: path,
					Err:  fmt.Errorf("fetching file info: %w", err),
				}
				ok = true
				return
			}

			file = types.File{Path: path, Size: info.Size()}
			ok = true
			return
		}

		// check to see if there are more directories to read, otherwise EOF
		if len(w.directories) < 1 {
			return
		}

		// pop off the next directory
		w.directory = w.directories[0]
		w.directories = w.directories[1:]
		w.cursor = 0
		if w.entries, err = os.ReadDir(w.directory); err != nil {
			err = &types.ReadError{
				Path: w.directory,
				Err:  fmt.Errorf("reading directory: %w", err),
			}
			w.entries = nil
			ok = true
			return
		}
	}
}

func (w *Walker) ignored(name string) bool {
	for _, ignore := range w.Ignore {
		if name == ignore {
			return true
		}
	}
	return false
}

// Files drains the walker, collecting the files and any per-entry errors.
func (w *Walker) Files() (files []types.File, errs []*types.ReadError) {
	for file, err, ok := w.Next(); ok; file, err, ok = w.Next() {
		if err != nil {
			errs = append(errs, err.(*types.ReadError))
			continue
		}
		files = append(files, file)
	}
	return
}

// FromPaths stats an explicit list of paths, keeping their order. Paths that
// aren't regular files are reported as errors.
func FromPaths(paths []string) (files []types.File, errs []*types.ReadError) {
	for _, path := range paths {
		info, err := os.Lstat(path)
		if err != nil {
			errs = append(errs, &types.ReadError{Path: path, Err: err})
			continue
		}
		if !info.Mode().IsRegular() {
			errs = append(errs, &types.ReadError{
				Path: path,
				Err:  errors.New("not a regular file"),
			})
			continue
		}
		files = append(files, types.File{Path: path, Size: info.Size()})
	}
	return
}
