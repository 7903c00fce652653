package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/weberc2/dupfinder/pkg/dupes"
	"github.com/weberc2/dupfinder/pkg/fingerprint"
	"github.com/weberc2/dupfinder/pkg/testsupport"
	"github.com/weberc2/dupfinder/pkg/types"
)

var someDate = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// testReport runs the engine over a small tree containing one duplicate pair,
// one file that vanished after enumeration and one unreadable directory.
func testReport(t *testing.T) *Report {
	t.Helper()
	tree := testsupport.Tree{"a": "X", "b": "X", "c": "Y"}
	root := tree.Write(t)
	files := append(tree.Files(root), types.File{Path: root + "/gone", Size: 3})
	return reportOf(t, root, files, []*types.ReadError{{
		Path: root + "/locked",
		Err:  errors.New("permission denied"),
	}})
}

func reportOf(
	t *testing.T,
	root string,
	files []types.File,
	skipped []*types.ReadError,
) *Report {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	engine := dupes.Engine{
		Workers:       2,
		Fingerprinter: fingerprint.Fingerprinter{},
		Log:           log,
	}
	result, err := engine.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	return New(Run{
		ID:        uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		Root:      root,
		Algorithm: string(fingerprint.AlgorithmMD5),
		Workers:   2,
		Started:   someDate,
		Finished:  someDate.Add(time.Second),
		Skipped:   skipped,
	}, result)
}

func compareReports(wanted, found *Report) error {
	if wanted.ID != found.ID || wanted.Root != found.Root ||
		wanted.Algorithm != found.Algorithm || wanted.Workers != found.Workers {
		return errors.New("report header mismatch")
	}
	if !wanted.Started.Equal(found.Started) ||
		!wanted.Finished.Equal(found.Finished) {
		return errors.New("report times mismatch")
	}
	if wanted.Summary != found.Summary {
		return errors.New("report summary mismatch")
	}
	if !equalFailures(wanted.Failures, found.Failures) {
		return errors.New("report failures mismatch")
	}
	if !equalFailures(wanted.Skipped, found.Skipped) {
		return errors.New("report skipped mismatch")
	}

	wantedPaths, foundPaths := wanted.Fingerprints.Paths(), found.Fingerprints.Paths()
	if len(wantedPaths) != len(foundPaths) {
		return errors.New("report fingerprints mismatch")
	}
	for i, path := range wantedPaths {
		wf, _ := wanted.Fingerprints.Get(path)
		ff, _ := found.Fingerprints.Get(foundPaths[i])
		if path != foundPaths[i] || wf != ff {
			return errors.New("report fingerprints mismatch")
		}
	}

	wantedGroups, foundGroups := wanted.Duplicates.All(), found.Duplicates.All()
	if len(wantedGroups) != len(foundGroups) {
		return errors.New("report duplicates mismatch")
	}
	for i := range wantedGroups {
		if wantedGroups[i].Fingerprint != foundGroups[i].Fingerprint ||
			len(wantedGroups[i].Paths) != len(foundGroups[i].Paths) {
			return errors.New("report duplicates mismatch")
		}
		for j := range wantedGroups[i].Paths {
			if wantedGroups[i].Paths[j] != foundGroups[i].Paths[j] {
				return errors.New("report duplicates mismatch")
			}
		}
	}
	return nil
}

func equalFailures(wanted, found []Failure) bool {
	if len(wanted) != len(found) {
		return false
	}
	for i := range wanted {
		if wanted[i] != found[i] {
			return false
		}
	}
	return true
}
