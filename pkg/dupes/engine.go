package dupes

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/weberc2/dupfinder/pkg/partition"
	"github.com/weberc2/dupfinder/pkg/types"
	"golang.org/x/sync/errgroup"
)

// Engine fingerprints a file list with a fixed pool of workers and derives
// duplicate groups and statistics from the merged result.
type Engine struct {
	// Workers is the number of concurrent workers. Must be at least 1.
	Workers int

	Fingerprinter Fingerprinter
	Policy        ErrorPolicy
	Log           logrus.FieldLogger

	// OnPartition, if set, receives the batches before any worker starts.
	OnPartition func(batches []partition.Batch)

	// Progress, if set, is called with the number of files finished so far
	// every `ProgressInterval` files and when the last file is done.
	// Calls are serialized and `done` only increases.
	Progress func(done, total int)

	// ProgressInterval defaults to `DefaultProgressInterval`.
	ProgressInterval int
}

// DefaultProgressInterval is how many files pass between progress reports.
const DefaultProgressInterval = 1000

// progress counts finished files across workers.
type progress struct {
	sync.Mutex
	done     int
	total    int
	interval int
	log      logrus.FieldLogger
	report   func(done, total int)
}

func (p *progress) fileDone(string) {
	p.Lock()
	defer p.Unlock()
	p.done++
	if p.done%p.interval != 0 && p.done != p.total {
		return
	}
	p.log.WithFields(logrus.Fields{
		"done":  p.done,
		"total": p.total,
	}).Info("fingerprinting progress")
	if p.report != nil {
		p.report(p.done, p.total)
	}
}

// Result is the output of a run.
type Result struct {
	// Fingerprints holds every successfully fingerprinted file.
	Fingerprints *Map

	// Failures holds the files which couldn't be read, in merge order.
	Failures []*types.ReadError

	// Groups are the duplicate groups, computed from `Fingerprints` only.
	Groups *Groups

	Stats Stats

	sizes map[string]int64
}

// Size returns the size of `path` as recorded at enumeration time.
func (r *Result) Size(path string) int64 { return r.sizes[path] }

// Run is all-or-nothing. Configuration and duplicate input paths are checked
// before any file is opened; then every worker runs to completion before
// the partial results are merged. If any worker fails (or `ctx` is
// cancelled) all partial results are discarded.
func (e *Engine) Run(ctx context.Context, files []types.File) (*Result, error) {
	if e.Workers < 1 {
		return nil, &types.ConfigError{
			Field:  "workers",
			Reason: fmt.Sprintf("must be at least 1; found %d", e.Workers),
		}
	}
	if e.Fingerprinter == nil {
		return nil, &types.ConfigError{
			Field:  "fingerprinter",
			Reason: "missing",
		}
	}

	log := e.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	sizes := make(map[string]int64, len(files))
	for _, file := range files {
		if _, exists := sizes[file.Path]; exists {
			return nil, &types.DuplicatePathError{
				Path:    file.Path,
				Workers: [2]int{-1, -1},
			}
		}
		sizes[file.Path] = file.Size
	}

	batches, err := partition.Partition(files, e.Workers)
	if err != nil {
		return nil, err
	}
	for _, batch := range batches {
		log.WithFields(logrus.Fields{
			"worker": batch.Worker,
			"files":  len(batch.Files),
			"bytes":  batch.Bytes,
		}).Debug("assigned batch")
	}

	if e.OnPartition != nil {
		e.OnPartition(batches)
	}

	interval := e.ProgressInterval
	if interval < 1 {
		interval = DefaultProgressInterval
	}
	prog := progress{
		total:    len(files),
		interval: interval,
		log:      log,
		report:   e.Progress,
	}

	// each worker hands its partial result over exactly once; the buffer
	// lets every worker finish without waiting on the merger.
	partials := make(chan *Partial, len(batches))
	g, ctx := errgroup.WithContext(ctx)
	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			w := Worker{
				ID:            batch.Worker,
				Fingerprinter: e.Fingerprinter,
				Policy:        e.Policy,
				Log:           log,
				OnFile:        prog.fileDone,
			}
			partial, err := w.Run(ctx, batch.Files)
			if err != nil {
				return fmt.Errorf("worker %d: %w", batch.Worker, err)
			}
			partials <- partial
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(partials)

	collected := make([]*Partial, 0, len(batches))
	for partial := range partials {
		collected = append(collected, partial)
	}

	merged, failures, err := Merge(collected)
	if err != nil {
		return nil, fmt.Errorf("merging partial results: %w", err)
	}
	if merged.Len()+len(failures) != len(files) {
		return nil, fmt.Errorf(
			"merging partial results: %d fingerprinted + %d failed != %d files",
			merged.Len(),
			len(failures),
			len(files),
		)
	}

	groups := GroupByFingerprint(merged)
	result := Result{
		Fingerprints: merged,
		Failures:     failures,
		Groups:       groups,
		sizes:        sizes,
	}
	result.Stats = ComputeStats(groups, result.Size)

	log.WithFields(logrus.Fields{
		"fingerprinted":   merged.Len(),
		"failed":          len(failures),
		"groups":          groups.Len(),
		"duplicate_files": result.Stats.DuplicateFiles,
		"wasted_bytes":    result.Stats.WastedBytes,
	}).Info("fingerprinting complete")
	return &result, nil
}
