package dupes

import (
	"bytes"
	"encoding/json"

	"github.com/weberc2/dupfinder/pkg/fingerprint"
	"github.com/weberc2/dupfinder/pkg/types"
)

// Map maps file paths to fingerprints, remembering insertion order. Go's
// builtin maps iterate in random order, which would make grouping (and the
// choice of each group's "original") nondeterministic.
type Map struct {
	paths        []string
	fingerprints map[string]fingerprint.Fingerprint
}

// NewMap returns an empty map with room for `capacity` entries.
func NewMap(capacity int) *Map {
	return &Map{
		paths:        make([]string, 0, capacity),
		fingerprints: make(map[string]fingerprint.Fingerprint, capacity),
	}
}

// Insert adds an entry. Paths are unique keys: inserting an existing path
// fails with a `*types.DuplicatePathError` and leaves the map unchanged.
func (m *Map) Insert(path string, f fingerprint.Fingerprint) error {
	if _, exists := m.fingerprints[path]; exists {
		return &types.DuplicatePathError{Path: path, Workers: [2]int{-1, -1}}
	}
	m.paths = append(m.paths, path)
	m.fingerprints[path] = f
	return nil
}

// Get returns the fingerprint for `path`, if any.
func (m *Map) Get(path string) (fingerprint.Fingerprint, bool) {
	f, found := m.fingerprints[path]
	return f, found
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.paths)
}

// Paths returns the keys in insertion order, or nil if the map is empty. The
// slice must not be modified.
func (m *Map) Paths() []string {
	if m == nil || len(m.paths) == 0 {
		return nil
	}
	return m.paths
}

// MarshalJSON renders the map as a JSON object from path to hex fingerprint,
// keys in insertion order. Paths go through `EncodePath`.
func (m *Map) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, path := range m.Paths() {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(EncodePath(path))
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteString(`:"`)
		b.WriteString(m.fingerprints[path].String())
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON parses a JSON object from path to hex fingerprint, keeping
// the document's key order.
func (m *Map) UnmarshalJSON(data []byte) error {
	out := NewMap(0)
	if err := decodeOrderedObject(data, func(dec *json.Decoder, key string) error {
		path, err := DecodePath(key)
		if err != nil {
			return err
		}
		var f fingerprint.Fingerprint
		if err := dec.Decode(&f); err != nil {
			return err
		}
		return out.Insert(path, f)
	}); err != nil {
		return err
	}
	*m = *out
	return nil
}
