package dupes

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// decodeOrderedObject walks a JSON object's members in document order,
// calling `member` with the decoder positioned at each value.
func decodeOrderedObject(
	data []byte,
	member func(dec *json.Decoder, key string) error,
) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding object: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decoding object: wanted `{`; found `%v`", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding object key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("decoding object key: wanted string; found `%v`", tok)
		}
		if err := member(dec, key); err != nil {
			return fmt.Errorf("decoding member `%s`: %w", key, err)
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decoding object end: %w", err)
	}
	return nil
}
