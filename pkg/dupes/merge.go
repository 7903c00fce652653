package dupes

import (
	"sort"

	"github.com/weberc2/dupfinder/pkg/types"
)

// Merge combines every worker's partial output into one map. It must only be
// called once all workers have finished.
//
// Partials are merged in worker order, each contributing its entries in batch
// order, which fixes the global insertion order. A path reported by two
// partials (whether fingerprinted or failed) means the partitioner handed it
// out twice: Merge then fails with a `*types.DuplicatePathError` and returns
// no map.
func Merge(partials []*Partial) (*Map, []*types.ReadError, error) {
	sorted := make([]*Partial, len(partials))
	copy(sorted, partials)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Worker < sorted[j].Worker
	})

	capacity := 0
	for _, p := range sorted {
		capacity += p.Fingerprints.Len()
	}

	merged := NewMap(capacity)
	owners := make(map[string]int, capacity)
	claim := func(path string, worker int) error {
		if prev, exists := owners[path]; exists {
			return &types.DuplicatePathError{
				Path:    path,
				Workers: [2]int{prev, worker},
			}
		}
		owners[path] = worker
		return nil
	}

	var failures []*types.ReadError
	for _, p := range sorted {
		for _, path := range p.Fingerprints.Paths() {
			if err := claim(path, p.Worker); err != nil {
				return nil, nil, err
			}
			f, _ := p.Fingerprints.Get(path)
			if err := merged.Insert(path, f); err != nil {
				return nil, nil, err
			}
		}
		for _, failure := range p.Failures {
			if err := claim(failure.Path, p.Worker); err != nil {
				return nil, nil, err
			}
			failures = append(failures, failure)
		}
	}

	return merged, failures, nil
}
