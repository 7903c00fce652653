// Package report turns an engine result into durable artifacts: the path to
// fingerprint map, the duplicate groups and a summary with statistics and
// failures.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/weberc2/dupfinder/pkg/dupes"
	"github.com/weberc2/dupfinder/pkg/types"
)

// Report is one run's output.
type Report struct {
	ID        uuid.UUID
	Root      string
	Algorithm string
	Workers   int
	Started   time.Time
	Finished  time.Time
	Summary   Summary

	// Failures are the files which couldn't be fingerprinted.
	Failures []Failure

	// Skipped are the entries which couldn't be enumerated, e.g. unreadable
	// directories. Their files never reached the engine.
	Skipped []Failure

	Fingerprints *dupes.Map
	Duplicates   *dupes.Groups
}

// Summary holds the run's counts and duplicate statistics.
type Summary struct {
	Files          int    `json:"files"          yaml:"files"`
	Fingerprinted  int    `json:"fingerprinted"  yaml:"fingerprinted"`
	Failed         int    `json:"failed"         yaml:"failed"`
	Skipped        int    `json:"skipped"        yaml:"skipped"`
	DuplicateFiles int    `json:"duplicateFiles" yaml:"duplicateFiles"`
	WastedBytes    int64  `json:"wastedBytes"    yaml:"wastedBytes"`
	Formatted      string `json:"formatted"      yaml:"formatted"`
}

// Failure records a file or directory that couldn't be read and why.
type Failure struct {
	Path  string
	Error string
}

// Run describes the run a result came from.
type Run struct {
	ID        uuid.UUID
	Root      string
	Algorithm string
	Workers   int
	Started   time.Time
	Finished  time.Time

	// Skipped holds the enumeration errors.
	Skipped []*types.ReadError
}

func failuresOf(errs []*types.ReadError) []Failure {
	failures := make([]Failure, len(errs))
	for i, err := range errs {
		failures[i] = Failure{Path: err.Path, Error: err.Err.Error()}
	}
	return failures
}

// New builds a report from an engine result.
func New(run Run, result *dupes.Result) *Report {
	return &Report{
		ID:        run.ID,
		Root:      run.Root,
		Algorithm: run.Algorithm,
		Workers:   run.Workers,
		Started:   run.Started,
		Finished:  run.Finished,
		Summary: Summary{
			Files:          result.Fingerprints.Len() + len(result.Failures),
			Fingerprinted:  result.Fingerprints.Len(),
			Failed:         len(result.Failures),
			Skipped:        len(run.Skipped),
			DuplicateFiles: result.Stats.DuplicateFiles,
			WastedBytes:    result.Stats.WastedBytes,
			Formatted:      result.Stats.Formatted(),
		},
		Failures:     failuresOf(result.Failures),
		Skipped:      failuresOf(run.Skipped),
		Fingerprints: result.Fingerprints,
		Duplicates:   result.Groups,
	}
}

// Sentence renders the summary the way the scanner always has.
func (s Summary) Sentence() string {
	return fmt.Sprintf(
		"You have a total of %d duplicated files which is wasting %s worth "+
			"of space.",
		s.DuplicateFiles,
		s.Formatted,
	)
}

// NotFoundErr is returned when a report doesn't exist in a store.
type NotFoundErr struct {
	ID uuid.UUID
}

func (err *NotFoundErr) Error() string {
	return fmt.Sprintf("report not found: %s", err.ID)
}

// Store persists reports.
type Store interface {
	Put(*Report) error
	Get(uuid.UUID) (*Report, error)
	List() ([]uuid.UUID, error)
}
