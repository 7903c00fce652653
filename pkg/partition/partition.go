// Package partition splits a file list across a fixed number of workers so
// that each worker gets roughly the same number of bytes to read.
package partition

import (
	"fmt"

	"github.com/weberc2/dupfinder/pkg/types"
)

// Batch is the work assigned to one worker.
type Batch struct {
	// Worker is the index of the worker the batch belongs to.
	Worker int

	// Files are the files assigned to the worker, in input order.
	Files []types.File

	// Bytes is the cumulative size of `Files`. It only matters during
	// assignment and for diagnostics.
	Bytes int64
}

// Partition assigns each file, in input order, to the worker with the
// smallest cumulative byte load so far (lowest index on ties). This is a
// greedy makespan heuristic: assignments are never revisited, so the result
// is not optimal, but it costs O(len(files) * workers).
//
// Exactly `workers` batches are returned, some possibly empty.
func Partition(files []types.File, workers int) ([]Batch, error) {
	if workers < 1 {
		return nil, &types.ConfigError{
			Field:  "workers",
			Reason: fmt.Sprintf("must be at least 1; found %d", workers),
		}
	}

	batches := make([]Batch, workers)
	for i := range batches {
		batches[i].Worker = i
	}

	for _, file := range files {
		min := 0
		for i := 1; i < workers; i++ {
			if batches[i].Bytes < batches[min].Bytes {
				min = i
			}
		}
		batches[min].Files = append(batches[min].Files, file)
		batches[min].Bytes += file.Size
	}

	return batches, nil
}

// Loads returns the cumulative byte load of each batch.
func Loads(batches []Batch) []int64 {
	loads := make([]int64, len(batches))
	for i := range batches {
		loads[i] = batches[i].Bytes
	}
	return loads
}
