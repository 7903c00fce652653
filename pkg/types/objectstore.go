package types

import (
	"errors"
	"fmt"
	"io"
)

type ObjectNotFoundErr struct {
	Bucket string
	Key    string
}

func (err *ObjectNotFoundErr) Error() string {
	return fmt.Sprintf(
		"object not found (bucket=%s) (key=%s)",
		err.Bucket,
		err.Key,
	)
}

func (wanted *ObjectNotFoundErr) CompareErr(err error) error {
	var other *ObjectNotFoundErr
	if errors.As(err, &other) {
		if *wanted != *other {
			return fmt.Errorf("wanted `%v`; found `%v`", wanted, other)
		}
		return nil
	}
	return fmt.Errorf(
		"wanted `*types.ObjectNotFoundErr`; found `%T`: %v",
		err,
		err,
	)
}

type ObjectStore interface {
	PutObject(bucket, key string, data io.ReadSeeker) error
	GetObject(bucket, key string) (io.ReadCloser, error)
	ListObjects(bucket, prefix string) ([]string, error)
	DeleteObject(bucket, key string) error
}
