package compress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allCodecs() map[CompressionType]Codec {
	return map[CompressionType]Codec{
		None:    NewNoOpCompressor(),
		LZ4Fast: NewLZ4Compressor(false),
		LZ4Best: NewLZ4Compressor(true),
		Gzip:    NewGzipCompressor(),
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i % 251)
	}

	for typ, codec := range allCodecs() {
		t.Run(typ.String(), func(t *testing.T) {
			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed, make([]byte, len(data)))
			require.NoError(t, err)
			assert.Equal(t, data, decompressed)
		})
	}
}

func TestCodec_EmptyInput(t *testing.T) {
	for typ, codec := range allCodecs() {
		t.Run(typ.String(), func(t *testing.T) {
			compressed, err := codec.Compress(nil)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed, nil)
			require.NoError(t, err)
			assert.Empty(t, decompressed)
		})
	}
}

func TestCreateCodec(t *testing.T) {
	for _, typ := range []CompressionType{None, LZ4Fast, LZ4Best, Gzip} {
		codec, err := CreateCodec(typ)
		require.NoError(t, err)
		require.NotNil(t, codec)
	}

	_, err := CreateCodec(CompressionType(99))
	require.Error(t, err)
}

func TestCompressionType_String(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "lz4-fast", LZ4Fast.String())
	assert.Equal(t, "lz4-best", LZ4Best.String())
	assert.Equal(t, "gzip", Gzip.String())
	assert.Equal(t, "unknown", CompressionType(99).String())
}
