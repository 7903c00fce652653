package objectstore

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/weberc2/dupfinder/pkg/types"
)

// s3Stub answers from canned values. Methods it doesn't override panic via
// the nil embedded interface.
type s3Stub struct {
	s3iface.S3API

	body    string
	pages   [][]string
	err     error
	headErr error
	deleted []string
}

func (stub *s3Stub) GetObject(*s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	if stub.err != nil {
		return nil, stub.err
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(stub.body)),
	}, nil
}

func (stub *s3Stub) ListObjectsV2Pages(
	_ *s3.ListObjectsV2Input,
	f func(*s3.ListObjectsV2Output, bool) bool,
) error {
	for i, page := range stub.pages {
		var out s3.ListObjectsV2Output
		for _, key := range page {
			out.Contents = append(out.Contents, &s3.Object{Key: aws.String(key)})
		}
		if !f(&out, i == len(stub.pages)-1) {
			break
		}
	}
	return stub.err
}

func (stub *s3Stub) HeadObject(*s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
	if stub.headErr != nil {
		return nil, stub.headErr
	}
	return &s3.HeadObjectOutput{}, nil
}

func (stub *s3Stub) DeleteObject(
	input *s3.DeleteObjectInput,
) (*s3.DeleteObjectOutput, error) {
	stub.deleted = append(stub.deleted, aws.StringValue(input.Key))
	return &s3.DeleteObjectOutput{}, stub.err
}

func TestS3ObjectStore_GetObject(t *testing.T) {
	denied := awserr.New("AccessDenied", "access denied", nil)
	for _, testCase := range []struct {
		name      string
		stub      s3Stub
		wanted    string
		wantedErr types.WantedError
	}{
		{
			name:      "found",
			stub:      s3Stub{body: "my-data"},
			wanted:    "my-data",
			wantedErr: types.NilError{},
		},
		{
			name: "no-such-key",
			stub: s3Stub{err: awserr.New(s3.ErrCodeNoSuchKey, "missing", nil)},
			wantedErr: &types.ObjectNotFoundErr{
				Bucket: "my-bucket",
				Key:    "my-key",
			},
		},
		{
			name: "other-error",
			stub: s3Stub{err: denied},
			wantedErr: types.WantedErrFunc(func(err error) error {
				if !errors.Is(err, denied) {
					return fmt.Errorf("wanted `%v`; found `%v`", denied, err)
				}
				return nil
			}),
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			store := S3ObjectStore{Client: &testCase.stub}
			body, err := store.GetObject("my-bucket", "my-key")
			if err := testCase.wantedErr.CompareErr(err); err != nil {
				t.Fatal(err)
			}
			if err != nil {
				return
			}
			defer body.Close()

			data, err := io.ReadAll(body)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if string(data) != testCase.wanted {
				t.Fatalf("wanted `%s`; found `%s`", testCase.wanted, data)
			}
		})
	}
}

func TestS3ObjectStore_ListObjects(t *testing.T) {
	store := S3ObjectStore{Client: &s3Stub{
		pages: [][]string{{"p/c", "p/a"}, {"p/b"}},
	}}
	keys, err := store.ListObjects("my-bucket", "p/")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	wanted := []string{"p/a", "p/b", "p/c"}
	if !reflect.DeepEqual(keys, wanted) {
		t.Fatalf("wanted `%v`; found `%v`", wanted, keys)
	}

	failing := errors.New("throttled")
	store.Client = &s3Stub{err: failing}
	if _, err := store.ListObjects("my-bucket", "p/"); !errors.Is(err, failing) {
		t.Fatalf("wanted `%v`; found `%v`", failing, err)
	}
}

func TestS3ObjectStore_DeleteObject(t *testing.T) {
	stub := s3Stub{}
	store := S3ObjectStore{Client: &stub}
	if err := store.DeleteObject("my-bucket", "my-key"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !reflect.DeepEqual(stub.deleted, []string{"my-key"}) {
		t.Fatalf("wanted `[my-key]` deleted; found `%v`", stub.deleted)
	}

	missing := s3Stub{headErr: awserr.New("NotFound", "not found", nil)}
	store.Client = &missing
	err := store.DeleteObject("my-bucket", "gone")
	wanted := &types.ObjectNotFoundErr{Bucket: "my-bucket", Key: "gone"}
	if err := wanted.CompareErr(err); err != nil {
		t.Fatal(err)
	}
	if len(missing.deleted) != 0 {
		t.Fatalf("wanted nothing deleted; found `%v`", missing.deleted)
	}
}
