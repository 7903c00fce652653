package objectstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/weberc2/dupfinder/pkg/types"
)

// DirObjectStore keeps objects as plain files under `Root`: bucket `b` and
// key `k` live at `Root/b/k`, so reports can be inspected with ordinary tools.
type DirObjectStore struct {
	Root string
}

func (ds *DirObjectStore) path(bucket, key string) (string, error) {
	if bucket == "" || strings.Contains(bucket, "/") || bucket == ".." {
		return "", fmt.Errorf("invalid bucket name: `%s`", bucket)
	}
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid key: `%s`", key)
	}
	return filepath.Join(ds.Root, bucket, filepath.FromSlash(clean)), nil
}

func (ds *DirObjectStore) PutObject(bucket, key string, data io.ReadSeeker) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf(
				"putting object in bucket `%s` at key `%s`: %w",
				bucket,
				key,
				err,
			)
		}
	}()

	var path string
	if path, err = ds.path(bucket, key); err != nil {
		return
	}
	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}

	// write to a temporary file and rename so readers never see a partial
	// object
	var tmp *os.File
	if tmp, err = os.CreateTemp(filepath.Dir(path), ".put-*"); err != nil {
		return
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()
	if _, err = io.Copy(tmp, data); err != nil {
		tmp.Close()
		return
	}
	if err = tmp.Close(); err != nil {
		return
	}
	err = os.Rename(tmp.Name(), path)
	return
}

func (ds *DirObjectStore) GetObject(bucket, key string) (io.ReadCloser, error) {
	path, err := ds.path(bucket, key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &types.ObjectNotFoundErr{Bucket: bucket, Key: key}
		}
		return nil, fmt.Errorf(
			"getting object from bucket `%s` at key `%s`: %w",
			bucket,
			key,
			err,
		)
	}
	return file, nil
}

func (ds *DirObjectStore) ListObjects(bucket, prefix string) ([]string, error) {
	base := filepath.Join(ds.Root, bucket)
	var keys []string
	if err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == base && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".put-") {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		if key := filepath.ToSlash(rel); strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	}); err != nil {
		return keys, fmt.Errorf(
			"listing objects in bucket `%s` with prefix `%s`: %w",
			bucket,
			prefix,
			err,
		)
	}
	sort.Strings(keys)
	return keys, nil
}

func (ds *DirObjectStore) DeleteObject(bucket, key string) error {
	path, err := ds.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &types.ObjectNotFoundErr{Bucket: bucket, Key: key}
		}
		return fmt.Errorf("deleting object: %w", err)
	}
	return nil
}

var _ types.ObjectStore = &DirObjectStore{}
