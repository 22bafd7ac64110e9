package compress

// NoOpCompressor bypasses compression entirely: compressionType 0 in the
// record header.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a no-operation compressor.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns the input unchanged.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the input unchanged, ignoring dst.
func (c NoOpCompressor) Decompress(data []byte, dst []byte) ([]byte, error) {
	return data, nil
}
