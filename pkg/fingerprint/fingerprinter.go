package fingerprint

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/weberc2/dupfinder/pkg/types"
)

// DefaultBufferSize is the chunk size used when `Fingerprinter.BufferSize`
// is unset.
const DefaultBufferSize = 4096

// MaxBufferSize is the largest accepted `Fingerprinter.BufferSize`.
const MaxBufferSize = 64 << 20

// Fingerprinter computes file fingerprints with bounded memory: one
// `BufferSize` buffer per call regardless of file size.
type Fingerprinter struct {
	// Algorithm selects the digest. Defaults to `DefaultAlgorithm`.
	Algorithm Algorithm

	// BufferSize is the size of each read. Defaults to `DefaultBufferSize`;
	// may not exceed `MaxBufferSize`.
	BufferSize int
}

// Fingerprint streams the file at `path` through a fresh digest. Any failure
// to open, read or close the file is returned as a `*types.ReadError`.
func (fp Fingerprinter) Fingerprint(path string) (f Fingerprint, err error) {
	if fp.BufferSize > MaxBufferSize {
		err = &types.ConfigError{
			Field: "bufferSize",
			Reason: fmt.Sprintf(
				"must be at most %d; found %d",
				MaxBufferSize,
				fp.BufferSize,
			),
		}
		return
	}

	d, err := fp.Algorithm.newDigest()
	if err != nil {
		return
	}

	defer func() {
		if err != nil {
			err = &types.ReadError{Path: path, Err: err}
		}
	}()

	var file *os.File
	if file, err = os.Open(path); err != nil {
		return
	}
	defer func() { err = errors.Join(err, file.Close()) }()

	size := fp.BufferSize
	if size < 1 {
		size = DefaultBufferSize
	}

	// an explicit loop rather than `io.Copy`, which would use the file's
	// `WriterTo` and its own (larger) buffer.
	buf := make([]byte, size)
	for {
		n, rerr := file.Read(buf)
		if n > 0 {
			// digest writes never fail
			d.Write(buf[:n])
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			err = rerr
			return
		}
	}

	f = d.Sum128()
	return
}
