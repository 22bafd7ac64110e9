// Package compress provides the compression codecs consumed by the evio
// record pipeline. The wire format names exactly four compression types by
// a 4-bit nibble in the record header (§3 of the format): none, LZ4 fast,
// LZ4 best, and gzip.
package compress

import "fmt"

// CompressionType identifies one of the four compression algorithms the
// record header's compressionType nibble can name. The numeric values are
// the wire values themselves, not just symbolic constants.
type CompressionType uint8

const (
	// None stores record payloads uncompressed.
	None CompressionType = 0
	// LZ4Fast compresses with LZ4 at its default, throughput-optimized level.
	LZ4Fast CompressionType = 1
	// LZ4Best compresses with LZ4 at its highest compression level.
	LZ4Best CompressionType = 2
	// Gzip compresses with DEFLATE/gzip framing.
	Gzip CompressionType = 3
)

func (c CompressionType) String() string {
	switch c {
	case None:
		return "none"
	case LZ4Fast:
		return "lz4-fast"
	case LZ4Best:
		return "lz4-best"
	case Gzip:
		return "gzip"
	default:
		return "unknown"
	}
}

// Compressor compresses a record payload.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses a record payload. dst, if non-nil and large
// enough, is used directly to avoid an allocation on the hot read path.
type Decompressor interface {
	Decompress(data []byte, dst []byte) ([]byte, error)
}

// Codec combines both directions; every built-in compression type provides one.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec is a factory function that creates a Codec for the given
// compression type.
func CreateCodec(compressionType CompressionType) (Codec, error) {
	switch compressionType {
	case None:
		return NewNoOpCompressor(), nil
	case LZ4Fast:
		return NewLZ4Compressor(false), nil
	case LZ4Best:
		return NewLZ4Compressor(true), nil
	case Gzip:
		return NewGzipCompressor(), nil
	default:
		return nil, fmt.Errorf("compress: invalid compression type: %d", compressionType)
	}
}
