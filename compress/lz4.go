package compress

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances; the struct carries
// internal hash-table state that benefits from reuse across calls.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

var lz4BestCompressorPool = sync.Pool{
	New: func() any {
		return &lz4.CompressorHC{}
	},
}

// LZ4Compressor implements both compressionType 1 (fast) and 2 (best),
// selected at construction.
type LZ4Compressor struct {
	best bool
}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates an LZ4 codec. When best is true it uses LZ4's
// high-compression mode (compressionType 2); otherwise the fast block mode
// (compressionType 1).
func NewLZ4Compressor(best bool) LZ4Compressor {
	return LZ4Compressor{best: best}
}

// Compress compresses data with LZ4.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dstSize := lz4.CompressBlockBound(len(data))
	dst := make([]byte, dstSize)

	var n int
	var err error

	if c.best {
		hc, _ := lz4BestCompressorPool.Get().(*lz4.CompressorHC)
		defer lz4BestCompressorPool.Put(hc)
		n, err = hc.CompressBlock(data, dst)
	} else {
		lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
		defer lz4CompressorPool.Put(lc)
		n, err = lc.CompressBlock(data, dst)
	}
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

// Decompress decompresses LZ4-compressed data.
//
// The record header carries the uncompressed byte length (word 8), so the
// normal call path passes a correctly sized dst; the retry loop below only
// triggers when dst is nil or undersized, e.g. when decompressing without
// a parsed header available.
func (c LZ4Compressor) Decompress(data []byte, dst []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	bufSize := len(dst)
	if bufSize == 0 {
		bufSize = len(data) * 4
	}
	const maxSize = 256 * 1024 * 1024

	buf := dst
	for {
		if len(buf) < bufSize {
			buf = make([]byte, bufSize)
		}

		n, err := lz4.UncompressBlock(data, buf)
		if err == nil {
			return buf[:n], nil
		}

		if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxSize {
			bufSize *= 2
			buf = nil
			continue
		}

		return nil, err
	}
}
