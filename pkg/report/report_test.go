package report

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/weberc2/dupfinder/pkg/fingerprint"
	"github.com/weberc2/dupfinder/pkg/testsupport"
	"github.com/weberc2/dupfinder/pkg/types"
)

func TestNew(t *testing.T) {
	r := testReport(t)

	wanted := Summary{
		Files:          4,
		Fingerprinted:  3,
		Failed:         1,
		Skipped:        1,
		DuplicateFiles: 1,
		WastedBytes:    1,
		Formatted:      "1 B",
	}
	if r.Summary != wanted {
		t.Fatalf("wanted `%+v`; found `%+v`", wanted, r.Summary)
	}
	if len(r.Failures) != 1 || !strings.HasSuffix(r.Failures[0].Path, "/gone") {
		t.Fatalf("wanted one failure for `gone`; found `%v`", r.Failures)
	}
	if r.Failures[0].Error == "" {
		t.Fatal("wanted failure reason; found empty string")
	}
	wantedSkipped := []Failure{{
		Path:  r.Root + "/locked",
		Error: "permission denied",
	}}
	if !reflect.DeepEqual(r.Skipped, wantedSkipped) {
		t.Fatalf("wanted `%v`; found `%v`", wantedSkipped, r.Skipped)
	}

	wantedSentence := "You have a total of 1 duplicated files which is " +
		"wasting 1 B worth of space."
	if found := r.Summary.Sentence(); found != wantedSentence {
		t.Fatalf("wanted `%s`; found `%s`", wantedSentence, found)
	}
}

func TestFormat_JSONShape(t *testing.T) {
	r := testReport(t)
	x := fingerprint.Fingerprint(md5.Sum([]byte("X"))).String()

	data, err := FormatJSON.EncodeDuplicates(r.Duplicates)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	var duplicates map[string][]string
	if err := json.Unmarshal(data, &duplicates); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(duplicates) != 1 || len(duplicates[x]) != 2 {
		t.Fatalf("wanted one group of two under `%s`; found `%v`", x, duplicates)
	}

	data, err = FormatJSON.EncodeFingerprints(r.Fingerprints)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	var hashes map[string]string
	if err := json.Unmarshal(data, &hashes); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(hashes) != 3 {
		t.Fatalf("wanted `3` hashes; found `%d`", len(hashes))
	}
	for path, hex := range hashes {
		if len(hex) != 32 || strings.ToLower(hex) != hex {
			t.Fatalf("path `%s`: wanted 32 lowercase hex chars; found `%s`", path, hex)
		}
	}

	// indented like the original artifacts
	if !strings.Contains(string(data), "\n  \"") {
		t.Fatalf("wanted indented JSON; found `%s`", data)
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	r := testReport(t)
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			summary, err := format.EncodeSummary(r)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			hashes, err := format.EncodeFingerprints(r.Fingerprints)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			duplicates, err := format.EncodeDuplicates(r.Duplicates)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}

			found, err := format.DecodeSummary(summary)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if found.Fingerprints, err = format.DecodeFingerprints(hashes); err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if found.Duplicates, err = format.DecodeDuplicates(duplicates); err != nil {
				t.Fatalf("unexpected err: %v", err)
			}

			if err := compareReports(r, found); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestFormat_RoundTripNonUTF8(t *testing.T) {
	tree := testsupport.Tree{"a\xff": "X", "a\xfe": "X", "b": "Y"}
	root := tree.Write(t)
	r := reportOf(t, root, tree.Files(root), []*types.ReadError{{
		Path: root + "/locked\xfd",
		Err:  errors.New("bad name \xfd"),
	}})
	r.Root = root + "/\xff"

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			summary, err := format.EncodeSummary(r)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			hashes, err := format.EncodeFingerprints(r.Fingerprints)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			duplicates, err := format.EncodeDuplicates(r.Duplicates)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			for _, data := range [][]byte{summary, hashes, duplicates} {
				if !utf8.Valid(data) {
					t.Fatalf("wanted valid UTF-8; found `%q`", data)
				}
			}

			found, err := format.DecodeSummary(summary)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if found.Fingerprints, err = format.DecodeFingerprints(hashes); err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if found.Duplicates, err = format.DecodeDuplicates(duplicates); err != nil {
				t.Fatalf("unexpected err: %v", err)
			}

			// the error text is display-only and loses invalid bytes
			wanted := *r
			wanted.Skipped = []Failure{{
				Path:  r.Skipped[0].Path,
				Error: "bad name \uFFFD",
			}}
			if err := compareReports(&wanted, found); err != nil {
				t.Fatal(err)
			}
			if found.Fingerprints.Len() != 3 {
				t.Fatalf("wanted `3` fingerprints; found `%d`", found.Fingerprints.Len())
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, testCase := range []struct {
		input     string
		wanted    Format
		wantedErr types.WantedError
	}{
		{"", FormatJSON, types.NilError{}},
		{"JSON", FormatJSON, types.NilError{}},
		{"yaml", FormatYAML, types.NilError{}},
		{"xml", "", &types.ConfigError{Field: "format"}},
	} {
		found, err := ParseFormat(testCase.input)
		if err := testCase.wantedErr.CompareErr(err); err != nil {
			t.Fatal(err)
		}
		if found != testCase.wanted {
			t.Fatalf("wanted `%s`; found `%s`", testCase.wanted, found)
		}
	}
}
