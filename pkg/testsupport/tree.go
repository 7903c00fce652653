package testsupport

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/weberc2/dupfinder/pkg/types"
)

// Tree maps slash-separated relative paths to file contents.
type Tree map[string]string

// Write creates the tree under a fresh temporary directory and returns the
// directory.
func (tree Tree) Write(t testing.TB) string {
	t.Helper()
	root := t.TempDir()
	for rel, contents := range tree {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("creating parent directory for `%s`: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			t.Fatalf("writing file `%s`: %v", rel, err)
		}
	}
	return root
}

// Files returns the tree's files rooted at `root`, sorted by relative path.
func (tree Tree) Files(root string) []types.File {
	rels := make([]string, 0, len(tree))
	for rel := range tree {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	out := make([]types.File, len(rels))
	for i, rel := range rels {
		out[i] = types.File{
			Path: filepath.Join(root, filepath.FromSlash(rel)),
			Size: int64(len(tree[rel])),
		}
	}
	return out
}
