package node

import (
	"testing"

	"github.com/jlab-hipo/evio/bytebuf"
	"github.com/jlab-hipo/evio/errs"
	"github.com/jlab-hipo/evio/header"
	"github.com/jlab-hipo/evio/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildChildBank returns an 8-word (32-byte) uint32 bank: 2 header words
// plus 6 uint32 payload words.
func buildChildBank(tag uint16) []byte {
	buf := make([]byte, 32)
	bank := structure.Bank{Length: 7, Tag: tag, Type: structure.Uint32, Num: 1}
	w0, w1 := bank.Encode()
	bb := bytebuf.New(buf)
	_ = bb.PutU32At(0, w0)
	_ = bb.PutU32At(4, w1)
	return buf
}

// buildSingleEventRecord assembles a minimal record containing one event: an
// outer bank (type=bank) wrapping three 8-word child banks A, B, C.
func buildSingleEventRecord(t *testing.T) *bytebuf.Buffer {
	t.Helper()

	a := buildChildBank(1)
	b := buildChildBank(2)
	c := buildChildBank(3)

	outerBody := append(append(append([]byte{}, a...), b...), c...)
	outer := structure.Bank{Length: uint32(1 + len(outerBody)/4), Tag: 100, Type: structure.TypeBank, Num: 1}
	ow0, ow1 := outer.Encode()

	eventBytes := make([]byte, 8+len(outerBody))
	eb := bytebuf.New(eventBytes)
	require.NoError(t, eb.PutU32At(0, ow0))
	require.NoError(t, eb.PutU32At(4, ow1))
	copy(eventBytes[8:], outerBody)

	h := header.New(header.KindRecord)
	h.Entries = 1
	h.IndexLength = 4
	h.UncompressedDataLength = uint32(len(eventBytes))

	total := header.LengthBytes + 4 + len(eventBytes)
	buf := bytebuf.Allocate(total)

	require.NoError(t, h.Write(buf, 0))
	require.NoError(t, buf.PutU32At(header.LengthBytes, uint32(len(eventBytes))))
	require.NoError(t, buf.PutBytesAt(header.LengthBytes+4, eventBytes))

	require.NoError(t, buf.SetLimit(total))

	return buf
}

func TestScanBuffer_SingleEventThreeChildren(t *testing.T) {
	buf := buildSingleEventRecord(t)

	s, err := ScanBuffer(buf, 0, buf.Limit())
	require.NoError(t, err)
	require.Equal(t, 1, s.EventCount())

	root, err := s.Event(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(100), root.Tag)
	require.Len(t, root.Children, 3)
	assert.Equal(t, uint16(1), root.Children[0].Tag)
	assert.Equal(t, uint16(2), root.Children[1].Tag)
	assert.Equal(t, uint16(3), root.Children[2].Tag)
	assert.Len(t, root.AllDescendants, 3)
}

func TestScanner_RemoveStructure(t *testing.T) {
	buf := buildSingleEventRecord(t)
	beforeLimit := buf.Limit()

	s, err := ScanBuffer(buf, 0, buf.Limit())
	require.NoError(t, err)

	root, err := s.Event(0)
	require.NoError(t, err)
	nodeB := root.Children[1]

	s2, err := s.RemoveStructure(nodeB)
	require.NoError(t, err)

	assert.True(t, nodeB.IsObsolete(), "old handle must be observably obsolete")
	assert.Equal(t, beforeLimit-32, s2.buf.Limit())

	root2, err := s2.Event(0)
	require.NoError(t, err)
	require.Len(t, root2.Children, 2)
	assert.Equal(t, uint16(1), root2.Children[0].Tag)
	assert.Equal(t, uint16(3), root2.Children[1].Tag)

	h := &header.Header{}
	require.NoError(t, h.Read(s2.buf, root2.RecordPos))
	assert.Equal(t, uint32(104-32), h.UncompressedDataLength)
}

func TestEvioNode_ObsoleteAfterRemoveStructure(t *testing.T) {
	buf := buildSingleEventRecord(t)
	s, err := ScanBuffer(buf, 0, buf.Limit())
	require.NoError(t, err)

	root, err := s.Event(0)
	require.NoError(t, err)
	nodeA := root.Children[0]
	nodeB := root.Children[1]

	_, err = s.RemoveStructure(nodeB)
	require.NoError(t, err)

	assert.True(t, nodeA.IsObsolete())
	_, err = nodeA.Bytes()
	assert.ErrorIs(t, err, errs.ErrObsoleteNode)
}
