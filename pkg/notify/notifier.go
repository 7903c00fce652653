// Package notify prints human-readable progress for a scan.
package notify

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/weberc2/dupfinder/pkg/dupes"
	"github.com/weberc2/dupfinder/pkg/partition"
	"github.com/weberc2/dupfinder/pkg/report"
)

type Notifier struct {
	w   io.Writer
	now func() time.Time
}

func NewNotifier(w io.Writer) (n Notifier) {
	n.w = w
	n.now = time.Now
	return
}

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
)

func (n Notifier) nowStr() string {
	return n.now().Format("2006-01-02 15:04:05")
}

func (n Notifier) ScanningRoot(root string) {
	fmt.Fprintf(n.w, "%s scanning directory: %s\n", n.nowStr(), root)
}

func (n Notifier) Enumerated(count int, bytes int64) {
	fmt.Fprintf(
		n.w,
		"%s collected %s files (%s)\n",
		n.nowStr(),
		humanize.Comma(int64(count)),
		humanize.Bytes(uint64(bytes)),
	)
}

func (n Notifier) EnumerationError(err error) {
	yellow.Fprintf(n.w, "%s  skipping: %v\n", n.nowStr(), err)
}

func (n Notifier) Progress(done, total int) {
	fmt.Fprintf(
		n.w,
		"%s  fingerprinted %s/%s files\n",
		n.nowStr(),
		humanize.Comma(int64(done)),
		humanize.Comma(int64(total)),
	)
}

func (n Notifier) Partitioned(batches []partition.Batch) {
	bold.Fprintf(
		n.w,
		"\n%s fingerprinting with %d workers\n",
		n.nowStr(),
		len(batches),
	)
	for _, batch := range batches {
		fmt.Fprintf(
			n.w,
			"%s  worker %d: %s files (%s)\n",
			n.nowStr(),
			batch.Worker,
			humanize.Comma(int64(len(batch.Files))),
			humanize.Bytes(uint64(batch.Bytes)),
		)
	}
}

func (n Notifier) Failures(failures []report.Failure) {
	if len(failures) < 1 {
		return
	}
	bold.Fprintf(
		n.w,
		"\n%s %s files could not be read\n",
		n.nowStr(),
		humanize.Comma(int64(len(failures))),
	)
	for _, failure := range failures {
		yellow.Fprintf(
			n.w,
			"%s  %s: %s\n",
			n.nowStr(),
			failure.Path,
			failure.Error,
		)
	}
}

// Duplicates prints each group with its first member marked as the original.
func (n Notifier) Duplicates(groups *dupes.Groups, size func(string) int64) {
	all := groups.All()
	for i, group := range all {
		bold.Fprintf(
			n.w,
			"\n%s duplicate group %d/%d (%d files @ %s each) [%s]\n",
			n.nowStr(),
			i+1,
			len(all),
			len(group.Paths),
			humanize.Bytes(uint64(size(group.Paths[0]))),
			group.Fingerprint,
		)
		fmt.Fprintf(n.w, "%s  original:  %s\n", n.nowStr(), group.Paths[0])
		for _, path := range group.Paths[1:] {
			green.Fprintf(n.w, "%s  duplicate: %s\n", n.nowStr(), path)
		}
	}
}

func (n Notifier) Stored(id uuid.UUID, store string) {
	fmt.Fprintf(n.w, "%s stored report %s in %s\n", n.nowStr(), id, store)
}

func (n Notifier) Summary(summary report.Summary) {
	fmt.Fprintf(
		n.w,
		"\n%s fingerprinted %s of %s files\n",
		n.nowStr(),
		humanize.Comma(int64(summary.Fingerprinted)),
		humanize.Comma(int64(summary.Files)),
	)
	if summary.Skipped > 0 {
		yellow.Fprintf(
			n.w,
			"%s skipped %s entries during enumeration\n",
			n.nowStr(),
			humanize.Comma(int64(summary.Skipped)),
		)
	}
	bold.Fprintln(n.w, summary.Sentence())
}
