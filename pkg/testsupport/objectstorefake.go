package testsupport

import (
	"bytes"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/weberc2/dupfinder/pkg/types"
)

// ObjectStoreFake is an in-memory `types.ObjectStore`. The zero value is an
// empty store.
type ObjectStoreFake struct {
	mu      sync.Mutex
	objects map[objectID][]byte
}

type objectID struct {
	bucket string
	key    string
}

// Object returns the raw bytes stored under `bucket` and `key`.
func (osf *ObjectStoreFake) Object(bucket, key string) ([]byte, bool) {
	osf.mu.Lock()
	defer osf.mu.Unlock()
	data, found := osf.objects[objectID{bucket, key}]
	return data, found
}

func (osf *ObjectStoreFake) PutObject(
	bucket string,
	key string,
	data io.ReadSeeker,
) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}

	osf.mu.Lock()
	defer osf.mu.Unlock()
	if osf.objects == nil {
		osf.objects = map[objectID][]byte{}
	}
	osf.objects[objectID{bucket, key}] = b
	return nil
}

func (osf *ObjectStoreFake) GetObject(
	bucket string,
	key string,
) (io.ReadCloser, error) {
	data, found := osf.Object(bucket, key)
	if !found {
		return nil, &types.ObjectNotFoundErr{Bucket: bucket, Key: key}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// ListObjects returns the matching keys in lexical order, like S3.
func (osf *ObjectStoreFake) ListObjects(
	bucket string,
	prefix string,
) ([]string, error) {
	osf.mu.Lock()
	defer osf.mu.Unlock()

	var out []string
	for id := range osf.objects {
		if id.bucket == bucket && strings.HasPrefix(id.key, prefix) {
			out = append(out, id.key)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (osf *ObjectStoreFake) DeleteObject(bucket, key string) error {
	osf.mu.Lock()
	defer osf.mu.Unlock()

	id := objectID{bucket, key}
	if _, found := osf.objects[id]; !found {
		return &types.ObjectNotFoundErr{Bucket: bucket, Key: key}
	}
	delete(osf.objects, id)
	return nil
}

var _ types.ObjectStore = &ObjectStoreFake{}
