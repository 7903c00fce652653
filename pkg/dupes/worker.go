package dupes

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/weberc2/dupfinder/pkg/fingerprint"
	"github.com/weberc2/dupfinder/pkg/types"
)

// Fingerprinter computes a file's fingerprint. `fingerprint.Fingerprinter`
// is the real implementation.
type Fingerprinter interface {
	Fingerprint(path string) (fingerprint.Fingerprint, error)
}

// ErrorPolicy decides what a worker does when a file can't be read.
type ErrorPolicy int

const (
	// ContinueOnReadError records the failure against the path and moves on
	// to the rest of the batch.
	ContinueOnReadError ErrorPolicy = iota

	// AbortOnReadError fails the whole run on the first unreadable file.
	AbortOnReadError
)

func (p ErrorPolicy) String() string {
	switch p {
	case ContinueOnReadError:
		return "continue"
	case AbortOnReadError:
		return "abort"
	default:
		return fmt.Sprintf("ErrorPolicy(%d)", int(p))
	}
}

// Partial is a single worker's output.
type Partial struct {
	Worker       int
	Fingerprints *Map
	Failures     []*types.ReadError
}

// Worker fingerprints one batch sequentially, so it never holds more than
// one open file.
type Worker struct {
	ID            int
	Fingerprinter Fingerprinter
	Policy        ErrorPolicy
	Log           logrus.FieldLogger

	// OnFile, if set, is called after each file is either fingerprinted or
	// recorded as a failure.
	OnFile func(path string)
}

func (w *Worker) fileDone(path string) {
	if w.OnFile != nil {
		w.OnFile(path)
	}
}

// Run fingerprints `files` in order. Read errors are handled per `Policy`;
// any other error, or cancellation of `ctx`, fails the worker and its
// partial output is discarded.
func (w *Worker) Run(ctx context.Context, files []types.File) (*Partial, error) {
	log := w.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("worker", w.ID)

	partial := Partial{Worker: w.ID, Fingerprints: NewMap(len(files))}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f, err := w.Fingerprinter.Fingerprint(file.Path)
		if err != nil {
			var readErr *types.ReadError
			if !errors.As(err, &readErr) {
				return nil, err
			}
			if w.Policy == AbortOnReadError {
				return nil, readErr
			}
			log.WithField("path", file.Path).Warnf("skipping file: %v", readErr.Err)
			partial.Failures = append(partial.Failures, readErr)
			w.fileDone(file.Path)
			continue
		}

		if err := partial.Fingerprints.Insert(file.Path, f); err != nil {
			var dupErr *types.DuplicatePathError
			if errors.As(err, &dupErr) {
				dupErr.Workers = [2]int{w.ID, w.ID}
			}
			return nil, err
		}
		log.WithField("path", file.Path).Debugf("fingerprinted file: %s", f)
		w.fileDone(file.Path)
	}

	log.WithFields(logrus.Fields{
		"fingerprinted": partial.Fingerprints.Len(),
		"failed":        len(partial.Failures),
	}).Debug("worker finished")
	return &partial, nil
}
