package bytebuf

import (
	"testing"

	"github.com/jlab-hipo/evio/endian"
	"github.com/jlab-hipo/evio/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_PutGetU32(t *testing.T) {
	b := Allocate(16)
	require.NoError(t, b.PutU32At(0, 0xC0DA0100))

	v, err := b.GetU32At(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xC0DA0100), v)
}

func TestBuffer_RelativeAccessorsAdvancePosition(t *testing.T) {
	b := Allocate(8)
	require.NoError(t, b.PutU32(1))
	require.NoError(t, b.PutU32(2))
	assert.Equal(t, 8, b.Pos())

	b.Rewind()
	v1, err := b.GetU32()
	require.NoError(t, err)
	v2, err := b.GetU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v1)
	assert.Equal(t, uint32(2), v2)
}

func TestBuffer_OutOfBounds(t *testing.T) {
	b := Allocate(4)
	_, err := b.GetU32At(1)
	assert.ErrorIs(t, err, errs.ErrOutOfBounds)
}

func TestBuffer_FlipClearCompact(t *testing.T) {
	b := Allocate(8)
	require.NoError(t, b.PutU32(10))
	require.NoError(t, b.PutU32(20))

	b.Flip()
	assert.Equal(t, 0, b.Pos())
	assert.Equal(t, 8, b.Limit())

	v, err := b.GetU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(10), v)

	b.Compact()
	assert.Equal(t, 4, b.Pos())
	assert.Equal(t, 8, b.Limit())
}

func TestBuffer_MarkReset(t *testing.T) {
	b := Allocate(8)
	require.NoError(t, b.SetPos(3))
	b.Mark()
	require.NoError(t, b.SetPos(6))
	require.NoError(t, b.Reset())
	assert.Equal(t, 3, b.Pos())
}

func TestBuffer_DuplicateSharesStorage(t *testing.T) {
	b := Allocate(4)
	dup := b.Duplicate()
	require.NoError(t, dup.PutU32(42))

	v, err := b.GetU32At(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), v)
}

func TestBuffer_Slice(t *testing.T) {
	b := Allocate(16)
	require.NoError(t, b.PutU32At(4, 99))

	s, err := b.Slice(4, 8)
	require.NoError(t, err)
	v, err := s.GetU32At(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(99), v)
}

func TestBuffer_U64DoesNotSplitAsTwoU32(t *testing.T) {
	b := NewWithOrder(make([]byte, 8), endian.GetBigEndianEngine())
	require.NoError(t, b.PutU64At(0, 0x0102030405060708))

	hi, err := b.GetU32At(0)
	require.NoError(t, err)
	lo, err := b.GetU32At(4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), hi)
	assert.Equal(t, uint32(0x05060708), lo)

	v, err := b.GetU64At(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), v)
}

func TestPad4(t *testing.T) {
	assert.Equal(t, 0, Pad4(0))
	assert.Equal(t, 3, Pad4(1))
	assert.Equal(t, 2, Pad4(2))
	assert.Equal(t, 1, Pad4(3))
	assert.Equal(t, 0, Pad4(4))
}
