// Package node implements EvioNode and the buffer scanner (§4.D): a lazy,
// zero-copy index over the events and substructures inside an uncompressed
// buffer, supporting in-place mutation with cascading length updates.
package node

import (
	"fmt"

	"github.com/jlab-hipo/evio/bytebuf"
	"github.com/jlab-hipo/evio/errs"
	"github.com/jlab-hipo/evio/internal/hash"
	"github.com/jlab-hipo/evio/structure"
)

// EvioNode is a non-owning positional index over one event or substructure
// inside a Scanner's buffer. It never copies bytes; it only remembers
// offsets. A node is valid only until the next mutation of its owning
// Scanner, at which point IsObsolete reports true and any other access
// fails with ErrObsoleteNode.
type EvioNode struct {
	scanner *Scanner

	Pos       int // byte offset of this structure's first header word
	DataPos   int // byte offset of the first payload byte
	Len       int // total byte length of this structure, header included
	DataLen   int // byte length of the payload alone
	RecordPos int // byte offset of the owning record's header

	Kind     structure.Kind
	DataType structure.DataType
	Tag      uint16
	Num      uint8
	Pad      uint8

	Parent         *EvioNode
	Children       []*EvioNode
	AllDescendants []*EvioNode // populated only on event-root nodes

	EventNode *EvioNode // the event root this node descends from (itself, if root)

	generation uint64 // scanner generation this node was built under
	fingerprint uint64 // xxhash64 of the header bytes at scan time
}

// IsObsolete reports whether node was invalidated by a subsequent mutation
// of its owning scanner (§4.D: "old handles remain observably obsolete").
func (n *EvioNode) IsObsolete() bool {
	return n.scanner == nil || n.generation != n.scanner.generation
}

// checkLive returns ErrObsoleteNode if the node has been invalidated.
func (n *EvioNode) checkLive() error {
	if n.IsObsolete() {
		return fmt.Errorf("%w: node at pos %d (gen %d, current %d)", errs.ErrObsoleteNode, n.Pos, n.generation, n.currentGeneration())
	}
	return nil
}

func (n *EvioNode) currentGeneration() uint64 {
	if n.scanner == nil {
		return 0
	}
	return n.scanner.generation
}

// Bytes returns a non-owning view of this structure's full bytes, including
// its own header. Fails with ErrObsoleteNode if the node was invalidated.
func (n *EvioNode) Bytes() ([]byte, error) {
	if err := n.checkLive(); err != nil {
		return nil, err
	}
	return n.scanner.buf.GetBytesAt(n.Pos, n.Len)
}

// DataBytes returns a non-owning view of this structure's payload, the
// header excluded.
func (n *EvioNode) DataBytes() ([]byte, error) {
	if err := n.checkLive(); err != nil {
		return nil, err
	}
	return n.scanner.buf.GetBytesAt(n.DataPos, n.DataLen)
}

// headerFingerprint computes the xxhash64 structural fingerprint of a
// node's own header bytes. IsObsolete does not consult it; it backs
// FingerprintMismatch, which catches a node whose generation still matches
// but whose underlying bytes were shifted without a generation bump (a
// scanner bug).
func headerFingerprint(buf *bytebuf.Buffer, pos, headerWords int) uint64 {
	raw, err := buf.GetBytesAt(pos, headerWords*4)
	if err != nil {
		return 0
	}
	return hash.ID(string(raw))
}

// FingerprintMismatch reports whether the node's header bytes have changed
// since it was built, even if the generation counter did not move. A true
// result always implies the node is unsafe to use.
func (n *EvioNode) FingerprintMismatch() bool {
	if n.scanner == nil {
		return true
	}
	headerWords := headerWordsFor(n.Kind)
	return headerFingerprint(n.scanner.buf, n.Pos, headerWords) != n.fingerprint
}

func headerWordsFor(kind structure.Kind) int {
	if kind == structure.KindBank {
		return 2
	}
	return 1
}

// String renders a short debug summary.
func (n *EvioNode) String() string {
	return fmt.Sprintf("node{kind=%s pos=%d len=%d tag=%d num=%d type=%d children=%d}",
		n.Kind, n.Pos, n.Len, n.Tag, n.Num, n.DataType, len(n.Children))
}
