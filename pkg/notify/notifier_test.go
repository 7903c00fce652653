package notify

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/weberc2/dupfinder/pkg/dupes"
	"github.com/weberc2/dupfinder/pkg/fingerprint"
	"github.com/weberc2/dupfinder/pkg/partition"
	"github.com/weberc2/dupfinder/pkg/report"
	"github.com/weberc2/dupfinder/pkg/types"
)

func testNotifier(t *testing.T) (Notifier, *bytes.Buffer) {
	t.Helper()
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var b bytes.Buffer
	n := NewNotifier(&b)
	n.now = func() time.Time {
		return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	}
	return n, &b
}

func TestNotifier(t *testing.T) {
	var x, y fingerprint.Fingerprint
	x[0], y[0] = 1, 2
	m := dupes.NewMap(4)
	for _, entry := range []struct {
		path string
		f    fingerprint.Fingerprint
	}{{"/a", x}, {"/b", y}, {"/c", x}, {"/d", x}} {
		if err := m.Insert(entry.path, entry.f); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	for _, testCase := range []struct {
		name   string
		notify func(Notifier)
		wanted []string
	}{
		{
			name:   "scanning",
			notify: func(n Notifier) { n.ScanningRoot("/data") },
			wanted: []string{"2026-10-19 12:00:00 scanning directory: /data\n"},
		},
		{
			name:   "enumerated",
			notify: func(n Notifier) { n.Enumerated(12345, 1_500_000) },
			wanted: []string{"collected 12,345 files (1.5 MB)\n"},
		},
		{
			name:   "enumeration-error",
			notify: func(n Notifier) { n.EnumerationError(errors.New("boom")) },
			wanted: []string{"  skipping: boom\n"},
		},
		{
			name:   "progress",
			notify: func(n Notifier) { n.Progress(2000, 12345) },
			wanted: []string{
				"2026-10-19 12:00:00  fingerprinted 2,000/12,345 files\n",
			},
		},
		{
			name: "partitioned",
			notify: func(n Notifier) {
				n.Partitioned([]partition.Batch{
					{Worker: 0, Files: make([]types.File, 2), Bytes: 11},
					{Worker: 1, Files: make([]types.File, 1), Bytes: 10},
				})
			},
			wanted: []string{
				"fingerprinting with 2 workers\n",
				"  worker 0: 2 files (11 B)\n",
				"  worker 1: 1 files (10 B)\n",
			},
		},
		{
			name: "failures",
			notify: func(n Notifier) {
				n.Failures([]report.Failure{{Path: "/gone", Error: "missing"}})
			},
			wanted: []string{"1 files could not be read\n", "  /gone: missing\n"},
		},
		{
			name: "duplicates",
			notify: func(n Notifier) {
				n.Duplicates(
					dupes.GroupByFingerprint(m),
					func(string) int64 { return 2048 },
				)
			},
			wanted: []string{
				"duplicate group 1/1 (3 files @ 2.0 kB each) [" + x.String() + "]\n",
				"  original:  /a\n",
				"  duplicate: /c\n",
				"  duplicate: /d\n",
			},
		},
		{
			name: "summary",
			notify: func(n Notifier) {
				n.Summary(report.Summary{
					Files:          5,
					Fingerprinted:  4,
					DuplicateFiles: 2,
					WastedBytes:    4096,
					Formatted:      "4 KB",
				})
			},
			wanted: []string{
				"fingerprinted 4 of 5 files\n",
				"You have a total of 2 duplicated files which is wasting " +
					"4 KB worth of space.\n",
			},
		},
		{
			name: "summary-skipped",
			notify: func(n Notifier) {
				n.Summary(report.Summary{Files: 3, Skipped: 1200, Formatted: "0 B"})
			},
			wanted: []string{"skipped 1,200 entries during enumeration\n"},
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			n, b := testNotifier(t)
			testCase.notify(n)
			found := b.String()
			for _, wanted := range testCase.wanted {
				if !strings.Contains(found, wanted) {
					t.Fatalf("wanted output containing `%q`; found `%q`", wanted, found)
				}
			}
		})
	}
}

func TestNotifier_NoFailures(t *testing.T) {
	n, b := testNotifier(t)
	n.Failures(nil)
	if b.Len() != 0 {
		t.Fatalf("wanted no output; found `%q`", b.String())
	}
}

func TestNotifier_SummaryNoSkipped(t *testing.T) {
	n, b := testNotifier(t)
	n.Summary(report.Summary{Files: 1, Fingerprinted: 1, Formatted: "0 B"})
	if strings.Contains(b.String(), "skipped") {
		t.Fatalf("wanted no skipped line; found `%q`", b.String())
	}
}
