package compress

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// GzipCompressor implements compressionType 3. It uses klauspost/compress's
// gzip, a drop-in faster implementation of the standard library's package,
// the way the rest of this module's pack favors klauspost's compress/*
// family over stdlib equivalents.
type GzipCompressor struct{}

var _ Codec = (*GzipCompressor)(nil)

var gzipWriterPool = sync.Pool{
	New: func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

// NewGzipCompressor creates a gzip codec.
func NewGzipCompressor() GzipCompressor {
	return GzipCompressor{}
}

// Compress compresses data with gzip.
func (c GzipCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w, _ := gzipWriterPool.Get().(*gzip.Writer)
	w.Reset(&buf)

	if _, err := w.Write(data); err != nil {
		gzipWriterPool.Put(w)
		return nil, err
	}
	if err := w.Close(); err != nil {
		gzipWriterPool.Put(w)
		return nil, err
	}
	gzipWriterPool.Put(w)

	return buf.Bytes(), nil
}

// Decompress decompresses gzip-compressed data. dst is used as the initial
// capacity hint when non-empty.
func (c GzipCompressor) Decompress(data []byte, dst []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out := dst[:0]
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
