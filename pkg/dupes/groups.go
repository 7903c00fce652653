package dupes

import (
	"bytes"
	"encoding/json"

	"github.com/weberc2/dupfinder/pkg/fingerprint"
)

// Group is a set of at least two files sharing a fingerprint.
type Group struct {
	Fingerprint fingerprint.Fingerprint

	// Paths are in discovery order: the order the paths appear in the
	// `Map` the group was derived from. `Paths[0]` is reported as the
	// original and the rest as duplicates.
	Paths []string
}

// Groups holds duplicate groups ordered by the discovery of their first
// member.
type Groups struct {
	groups []Group
	index  map[fingerprint.Fingerprint]int
}

// NewGroups returns an empty set of groups. Groups are normally derived
// with `GroupByFingerprint`; this is for rebuilding stored groups.
func NewGroups() *Groups {
	return &Groups{index: make(map[fingerprint.Fingerprint]int)}
}

// Len returns the number of groups.
func (g *Groups) Len() int {
	if g == nil {
		return 0
	}
	return len(g.groups)
}

// All returns the groups in order. The slice must not be modified.
func (g *Groups) All() []Group {
	if g == nil {
		return nil
	}
	return g.groups
}

// Get returns the paths for the group with fingerprint `f`.
func (g *Groups) Get(f fingerprint.Fingerprint) ([]string, bool) {
	if g == nil {
		return nil, false
	}
	i, found := g.index[f]
	if !found {
		return nil, false
	}
	return g.groups[i].Paths, true
}

// Append adds `path` to the group for `f`, creating the group if needed.
func (g *Groups) Append(f fingerprint.Fingerprint, path string) {
	i, found := g.index[f]
	if !found {
		i = len(g.groups)
		g.index[f] = i
		g.groups = append(g.groups, Group{Fingerprint: f})
	}
	g.groups[i].Paths = append(g.groups[i].Paths, path)
}

// GroupByFingerprint inverts `m` into fingerprint groups, preserving `m`'s
// order, and drops every group with a single member.
func GroupByFingerprint(m *Map) *Groups {
	all := NewGroups()
	for _, path := range m.Paths() {
		all.Append(m.fingerprints[path], path)
	}

	out := NewGroups()
	for _, group := range all.groups {
		if len(group.Paths) < 2 {
			continue
		}
		out.index[group.Fingerprint] = len(out.groups)
		out.groups = append(out.groups, group)
	}
	return out
}

// MarshalJSON renders the groups as a JSON object from hex fingerprint to
// an array of paths. Paths go through `EncodePath`.
func (g *Groups) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, group := range g.All() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(group.Fingerprint.String())
		b.WriteString(`":`)
		paths, err := json.Marshal(encodePaths(group.Paths))
		if err != nil {
			return nil, err
		}
		b.Write(paths)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func (g *Groups) UnmarshalJSON(data []byte) error {
	out := NewGroups()
	if err := decodeOrderedObject(data, func(dec *json.Decoder, key string) error {
		f, err := fingerprint.Parse(key)
		if err != nil {
			return err
		}
		var paths []string
		if err := dec.Decode(&paths); err != nil {
			return err
		}
		for _, text := range paths {
			path, err := DecodePath(text)
			if err != nil {
				return err
			}
			out.Append(f, path)
		}
		return nil
	}); err != nil {
		return err
	}
	*g = *out
	return nil
}

func encodePaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, path := range paths {
		out[i] = EncodePath(path)
	}
	return out
}
