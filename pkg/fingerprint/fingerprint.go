package fingerprint

import (
	"encoding/hex"
	"fmt"
)

// Size is the length of a fingerprint in bytes.
const Size = 16

// Fingerprint is a 128-bit digest of a file's full contents. Two files with
// the same fingerprint are considered duplicates; nothing stronger than the
// digest algorithm's own collision resistance is promised.
type Fingerprint [Size]byte

// String renders the fingerprint as 32 lowercase hex characters.
func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Fingerprint) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Parse parses a fingerprint from its hex form.
func Parse(s string) (f Fingerprint, err error) {
	if len(s) != 2*Size {
		err = fmt.Errorf(
			"parsing fingerprint `%s`: wanted %d hex characters; found %d",
			s,
			2*Size,
			len(s),
		)
		return
	}
	if _, err = hex.Decode(f[:], []byte(s)); err != nil {
		err = fmt.Errorf("parsing fingerprint `%s`: %w", s, err)
	}
	return
}
