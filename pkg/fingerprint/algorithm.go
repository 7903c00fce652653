package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/minio/highwayhash"
	"github.com/weberc2/dupfinder/pkg/types"
	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"
)

// Algorithm names a 128-bit digest. Every algorithm starts from a fixed
// state so that all workers agree on every file's fingerprint.
type Algorithm string

const (
	AlgorithmMD5         Algorithm = "md5"
	AlgorithmBLAKE2b     Algorithm = "blake2b"
	AlgorithmHighwayHash Algorithm = "highwayhash"
	AlgorithmXXH3        Algorithm = "xxh3"

	DefaultAlgorithm = AlgorithmMD5
)

// Algorithms lists the supported algorithms.
var Algorithms = []Algorithm{
	AlgorithmMD5,
	AlgorithmBLAKE2b,
	AlgorithmHighwayHash,
	AlgorithmXXH3,
}

// highwayKey is the fixed 256-bit highwayhash key.
var highwayKey = mustDecodeHex(
	"000102030405060708090A0B0C0D0E0FF0E0D0C0B0A090807060504030201000",
)

// ParseAlgorithm validates an algorithm name. The empty string selects the
// default algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	if s == "" {
		return DefaultAlgorithm, nil
	}
	a := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	if err := a.Validate(); err != nil {
		return "", err
	}
	return a, nil
}

func (a Algorithm) Validate() error {
	for _, known := range Algorithms {
		if a == known {
			return nil
		}
	}
	return &types.ConfigError{
		Field:  "algorithm",
		Reason: fmt.Sprintf("unsupported algorithm `%s`", a),
	}
}

// digest is a running digest state. Each file gets its own.
type digest interface {
	Write([]byte) (int, error)
	Sum128() Fingerprint
}

func (a Algorithm) newDigest() (digest, error) {
	switch a {
	case AlgorithmMD5, "":
		return hashDigest{md5.New()}, nil
	case AlgorithmBLAKE2b:
		h, err := blake2b.New(Size, nil)
		if err != nil {
			return nil, fmt.Errorf("creating blake2b digest: %w", err)
		}
		return hashDigest{h}, nil
	case AlgorithmHighwayHash:
		h, err := highwayhash.New128(highwayKey)
		if err != nil {
			return nil, fmt.Errorf("creating highwayhash digest: %w", err)
		}
		return hashDigest{h}, nil
	case AlgorithmXXH3:
		return xxh3Digest{xxh3.New()}, nil
	default:
		return nil, a.Validate()
	}
}

type hashDigest struct{ hash.Hash }

func (d hashDigest) Sum128() (f Fingerprint) {
	copy(f[:], d.Sum(nil))
	return
}

type xxh3Digest struct{ *xxh3.Hasher }

func (d xxh3Digest) Sum128() Fingerprint {
	return Fingerprint(d.Hasher.Sum128().Bytes())
}

func mustDecodeHex(s string) []byte {
	data, err := hex.DecodeString(s)
	if err != nil {
		panic(fmt.Sprintf("decoding hex `%s`: %v", s, err))
	}
	return data
}
