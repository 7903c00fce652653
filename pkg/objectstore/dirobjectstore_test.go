package objectstore

import (
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/weberc2/dupfinder/pkg/types"
)

func TestDirObjectStore(t *testing.T) {
	store := DirObjectStore{Root: t.TempDir()}

	for key, data := range map[string]string{
		"runs/a/hashes.json":     "{}",
		"runs/a/duplicates.json": "{}",
		"runs/b/hashes.json":     "{\"x\":1}",
		"other/c":                "c",
	} {
		if err := store.PutObject("bucket", key, strings.NewReader(data)); err != nil {
			t.Fatalf("Unexpected err: %v", err)
		}
	}

	body, err := store.GetObject("bucket", "runs/b/hashes.json")
	if err != nil {
		t.Fatalf("Unexpected err: %v", err)
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		t.Fatalf("Unexpected err: %v", err)
	}
	if string(data) != "{\"x\":1}" {
		t.Fatalf("wanted `{\"x\":1}`; found `%s`", data)
	}

	keys, err := store.ListObjects("bucket", "runs/")
	if err != nil {
		t.Fatalf("Unexpected err: %v", err)
	}
	wanted := []string{
		"runs/a/duplicates.json",
		"runs/a/hashes.json",
		"runs/b/hashes.json",
	}
	if !reflect.DeepEqual(keys, wanted) {
		t.Fatalf("wanted `%v`; found `%v`", wanted, keys)
	}

	if err := store.DeleteObject("bucket", "other/c"); err != nil {
		t.Fatalf("Unexpected err: %v", err)
	}
	_, err = store.GetObject("bucket", "other/c")
	notFound := &types.ObjectNotFoundErr{Bucket: "bucket", Key: "other/c"}
	if err := notFound.CompareErr(err); err != nil {
		t.Fatal(err)
	}
	if err := notFound.CompareErr(store.DeleteObject("bucket", "other/c")); err != nil {
		t.Fatal(err)
	}
}

func TestDirObjectStore_ListMissingBucket(t *testing.T) {
	store := DirObjectStore{Root: t.TempDir()}
	keys, err := store.ListObjects("nothing-here", "")
	if err != nil {
		t.Fatalf("Unexpected err: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("wanted no keys; found `%v`", keys)
	}
}

func TestDirObjectStore_KeysStayInBucket(t *testing.T) {
	root := t.TempDir()
	store := DirObjectStore{Root: root}
	if err := store.PutObject("bucket", "../../escape", strings.NewReader("x")); err != nil {
		t.Fatalf("Unexpected err: %v", err)
	}
	keys, err := store.ListObjects("bucket", "")
	if err != nil {
		t.Fatalf("Unexpected err: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"escape"}) {
		t.Fatalf("wanted `[escape]`; found `%v`", keys)
	}
}
