package dupes

import "fmt"

// Stats summarizes reclaimable duplicate storage.
type Stats struct {
	// DuplicateFiles counts every group member beyond the first.
	DuplicateFiles int

	// WastedBytes is the space taken by those extra members.
	WastedBytes int64
}

// Formatted renders `WastedBytes` with `FormatSize`.
func (s Stats) Formatted() string { return FormatSize(s.WastedBytes) }

// ComputeStats treats each group's first member as the original and the rest
// as duplicates. Members of a group share content and therefore size, so
// only the first member's size is looked up.
func ComputeStats(groups *Groups, size func(path string) int64) (s Stats) {
	for _, group := range groups.All() {
		excess := len(group.Paths) - 1
		s.DuplicateFiles += excess
		s.WastedBytes += size(group.Paths[0]) * int64(excess)
	}
	return
}

var units = [...]string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatSize renders a byte count in the largest decimal unit (factor 1000)
// whose truncated quotient is at least one, e.g. 1_500_000 -> "1 MB".
func FormatSize(n int64) string {
	neg := ""
	u := uint64(n)
	if n < 0 {
		neg = "-"
		u = uint64(-(n + 1)) + 1
	}

	unit := 0
	for u >= 1000 && unit < len(units)-1 {
		u /= 1000
		unit++
	}
	return fmt.Sprintf("%s%d %s", neg, u, units[unit])
}
