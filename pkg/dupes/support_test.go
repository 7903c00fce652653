package dupes

import (
	"errors"
	"fmt"
	"sync"

	"github.com/weberc2/dupfinder/pkg/fingerprint"
	"github.com/weberc2/dupfinder/pkg/types"
)

// fp returns a fingerprint whose first byte is `b`.
func fp(b byte) (f fingerprint.Fingerprint) {
	f[0] = b
	return
}

// fakeFingerprinter looks fingerprints up by path. Paths in `fail` produce a
// `*types.ReadError`; paths in neither map produce a plain error.
type fakeFingerprinter struct {
	fingerprints map[string]fingerprint.Fingerprint
	fail         map[string]bool

	mu    sync.Mutex
	calls []string
}

func (ff *fakeFingerprinter) Fingerprint(path string) (fingerprint.Fingerprint, error) {
	ff.mu.Lock()
	ff.calls = append(ff.calls, path)
	ff.mu.Unlock()

	if ff.fail[path] {
		return fingerprint.Fingerprint{}, &types.ReadError{
			Path: path,
			Err:  errors.New("permission denied"),
		}
	}
	if f, found := ff.fingerprints[path]; found {
		return f, nil
	}
	return fingerprint.Fingerprint{}, fmt.Errorf("unexpected path: %s", path)
}

func mapOf(entries ...interface{}) *Map {
	m := NewMap(len(entries) / 2)
	for i := 0; i < len(entries); i += 2 {
		if err := m.Insert(
			entries[i].(string),
			entries[i+1].(fingerprint.Fingerprint),
		); err != nil {
			panic(err)
		}
	}
	return m
}

var errNotNil = errors.New("wanted non-nil error; found `nil`")
