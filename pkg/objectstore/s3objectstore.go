package objectstore

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/weberc2/dupfinder/pkg/types"
)

// S3ObjectStore stores report artifacts in S3 (or anything speaking its
// API).
type S3ObjectStore struct {
	Client s3iface.S3API
}

// NewS3ObjectStore creates a store from the default AWS session (env vars,
// shared config, instance role).
func NewS3ObjectStore() (*S3ObjectStore, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %w", err)
	}
	return &S3ObjectStore{Client: s3.New(sess)}, nil
}

// notFound reports whether `err` means the key doesn't exist. `GetObject`
// answers with `NoSuchKey`; body-less requests only get the HTTP status.
func notFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, "NotFound":
		return true
	}
	return false
}

func (s *S3ObjectStore) PutObject(bucket, key string, data io.ReadSeeker) error {
	if _, err := s.Client.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   data,
	}); err != nil {
		return fmt.Errorf(
			"putting object in bucket `%s` at key `%s`: %w",
			bucket,
			key,
			err,
		)
	}
	return nil
}

func (s *S3ObjectStore) GetObject(bucket, key string) (io.ReadCloser, error) {
	rsp, err := s.Client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if notFound(err) {
			return nil, &types.ObjectNotFoundErr{Bucket: bucket, Key: key}
		}
		return nil, fmt.Errorf(
			"getting object from bucket `%s` at key `%s`: %w",
			bucket,
			key,
			err,
		)
	}
	return rsp.Body, nil
}

// ListObjects returns every key under `prefix`, following continuation
// tokens, in lexical order.
func (s *S3ObjectStore) ListObjects(bucket, prefix string) ([]string, error) {
	var keys []string
	if err := s.Client.ListObjectsV2Pages(
		&s3.ListObjectsV2Input{
			Bucket: aws.String(bucket),
			Prefix: aws.String(prefix),
		},
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, object := range page.Contents {
				keys = append(keys, aws.StringValue(object.Key))
			}
			return true
		},
	); err != nil {
		return nil, fmt.Errorf(
			"listing objects in bucket `%s` with prefix `%s`: %w",
			bucket,
			prefix,
			err,
		)
	}
	sort.Strings(keys)
	return keys, nil
}

// DeleteObject removes a key. S3 deletes are idempotent, so the key is
// checked first to report missing objects like the other stores do.
func (s *S3ObjectStore) DeleteObject(bucket, key string) error {
	if _, err := s.Client.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		if notFound(err) {
			return &types.ObjectNotFoundErr{Bucket: bucket, Key: key}
		}
		return fmt.Errorf(
			"checking object in bucket `%s` at key `%s`: %w",
			bucket,
			key,
			err,
		)
	}

	if _, err := s.Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf(
			"deleting object from bucket `%s` at key `%s`: %w",
			bucket,
			key,
			err,
		)
	}
	return nil
}

var _ types.ObjectStore = &S3ObjectStore{}
