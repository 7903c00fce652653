package dupes

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"
)

// encodedPathPrefix marks a path stored as base64 of its raw bytes.
const encodedPathPrefix = "base64:"

// EncodePath renders a path as valid UTF-8 text without losing bytes.
// Filesystems allow names which aren't UTF-8, and text encoders replace the
// invalid bytes with U+FFFD, which would make distinct paths collide. Valid
// UTF-8 paths are returned as-is unless they happen to start with the
// marker prefix, in which case they're encoded too so that `DecodePath`
// stays unambiguous.
func EncodePath(path string) string {
	if utf8.ValidString(path) && !strings.HasPrefix(path, encodedPathPrefix) {
		return path
	}
	return encodedPathPrefix + base64.StdEncoding.EncodeToString([]byte(path))
}

// DecodePath reverses `EncodePath`.
func DecodePath(text string) (string, error) {
	if !strings.HasPrefix(text, encodedPathPrefix) {
		return text, nil
	}
	data, err := base64.StdEncoding.DecodeString(
		strings.TrimPrefix(text, encodedPathPrefix),
	)
	if err != nil {
		return "", fmt.Errorf("decoding path `%s`: %w", text, err)
	}
	return string(data), nil
}
