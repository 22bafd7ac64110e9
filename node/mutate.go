package node

import (
	"fmt"

	"github.com/jlab-hipo/evio/bytebuf"
	"github.com/jlab-hipo/evio/errs"
	"github.com/jlab-hipo/evio/header"
	"github.com/jlab-hipo/evio/structure"
)

// RemoveStructure implements §4.D's removeStructure: it marks node (and
// every node built under the scanner's current generation) obsolete, shifts
// the bytes following node down to close the gap, decrements the ancestor
// chain's length words and the owning record header, then rescans.
//
// All-or-nothing per §7: if any length update or byte shift fails, the
// buffer's bytes are restored and the scanner is left untouched.
func (s *Scanner) RemoveStructure(n *EvioNode) (*Scanner, error) {
	if err := n.checkLive(); err != nil {
		return nil, err
	}

	removedBytes := n.Len
	shiftStart := n.Pos + n.Len
	shiftLen := s.buf.Limit() - shiftStart

	if shiftLen < 0 {
		return nil, fmt.Errorf("%w: node at %d exceeds buffer limit", errs.ErrOutOfBounds, n.Pos)
	}

	snapshot := append([]byte(nil), s.buf.Bytes()[:s.buf.Limit()]...)
	restore := func(err error) (*Scanner, error) {
		copy(s.buf.Bytes(), snapshot)
		return nil, err
	}

	if err := decrementAncestors(s.buf, n.Parent, removedBytes); err != nil {
		return restore(err)
	}
	if err := decrementRecordHeader(s.buf, n.RecordPos, removedBytes); err != nil {
		return restore(err)
	}

	if shiftLen > 0 {
		data, err := s.buf.GetBytesAt(shiftStart, shiftLen)
		if err != nil {
			return restore(err)
		}
		if err := s.buf.PutBytesAt(n.Pos, data); err != nil {
			return restore(err)
		}
	}

	if err := s.buf.SetLimit(s.buf.Limit() - removedBytes); err != nil {
		return restore(err)
	}

	s.generation++

	return ScanBuffer(s.buf, 0, s.buf.Limit())
}

// AddStructure implements §4.D's addStructure: it inserts addBytes
// immediately after event eventIndex's last payload byte, growing the
// event's own header and the owning record header, then rescans. Because
// Buffer never reallocates, growing means wrapping a freshly allocated,
// larger backing slice; the returned Scanner (and the caller's subsequent
// uses) must switch to it.
func (s *Scanner) AddStructure(eventIndex int, addBytes []byte) (*Scanner, error) {
	event, err := s.Event(eventIndex)
	if err != nil {
		return nil, err
	}
	if err := event.checkLive(); err != nil {
		return nil, err
	}
	if len(addBytes)%4 != 0 {
		return nil, fmt.Errorf("%w: addStructure payload %d bytes is not 4-byte aligned", errs.ErrBadLength, len(addBytes))
	}

	insertPos := event.Pos + event.Len
	oldBytes := s.buf.Bytes()[:s.buf.Limit()]

	newBytes := make([]byte, len(oldBytes)+len(addBytes))
	copy(newBytes, oldBytes[:insertPos])
	copy(newBytes[insertPos:], addBytes)
	copy(newBytes[insertPos+len(addBytes):], oldBytes[insertPos:])

	newBuf := bytebuf.NewWithOrder(newBytes, s.buf.Order())

	if err := growNode(newBuf, event, len(addBytes)); err != nil {
		return nil, err
	}
	if err := growRecordHeader(newBuf, event.RecordPos, len(addBytes)); err != nil {
		return nil, err
	}

	s.buf = newBuf
	s.generation++

	return ScanBuffer(newBuf, 0, newBuf.Limit())
}

func decrementAncestors(buf *bytebuf.Buffer, parent *EvioNode, removedBytes int) error {
	return walkAncestors(buf, parent, -removedBytes/4)
}

func growNode(buf *bytebuf.Buffer, n *EvioNode, addedBytes int) error {
	return adjustLength(buf, n, addedBytes/4)
}

func growRecordHeader(buf *bytebuf.Buffer, recordPos int, addedBytes int) error {
	return adjustRecordHeader(buf, recordPos, addedBytes)
}

func walkAncestors(buf *bytebuf.Buffer, parent *EvioNode, deltaWords int) error {
	for anc := parent; anc != nil; anc = anc.Parent {
		if err := adjustLength(buf, anc, deltaWords); err != nil {
			return err
		}
	}
	return nil
}

// adjustLength adds deltaWords to n's own header length field in buf.
func adjustLength(buf *bytebuf.Buffer, n *EvioNode, deltaWords int) error {
	switch n.Kind {
	case structure.KindBank:
		w0, err := buf.GetU32At(n.Pos)
		if err != nil {
			return err
		}
		w1, err := buf.GetU32At(n.Pos + 4)
		if err != nil {
			return err
		}
		bank := structure.DecodeBank(w0, w1)
		bank.Length = uint32(int(bank.Length) + deltaWords)
		nw0, nw1 := bank.Encode()
		if err := buf.PutU32At(n.Pos, nw0); err != nil {
			return err
		}
		return buf.PutU32At(n.Pos+4, nw1)

	case structure.KindSegment:
		w, err := buf.GetU32At(n.Pos)
		if err != nil {
			return err
		}
		seg := structure.DecodeSegment(w)
		seg.Length = uint16(int(seg.Length) + deltaWords)
		return buf.PutU32At(n.Pos, seg.Encode())

	default: // KindTagsegment
		w, err := buf.GetU32At(n.Pos)
		if err != nil {
			return err
		}
		ts := structure.DecodeTagsegment(w)
		ts.Length = uint16(int(ts.Length) + deltaWords)
		return buf.PutU32At(n.Pos, ts.Encode())
	}
}

func decrementRecordHeader(buf *bytebuf.Buffer, recordPos int, removedBytes int) error {
	return adjustRecordHeader(buf, recordPos, -removedBytes)
}

// adjustRecordHeader re-reads the record header at recordPos, adds
// deltaBytes to its uncompressed data length, and rewrites it; Write
// recomputes RecordLength and the pad bits from the primary fields, so
// recordLength tracks the change automatically.
func adjustRecordHeader(buf *bytebuf.Buffer, recordPos int, deltaBytes int) error {
	h := &header.Header{}
	if err := h.Read(buf, recordPos); err != nil {
		return err
	}

	newLen := int(h.UncompressedDataLength) + deltaBytes
	if newLen < 0 {
		return fmt.Errorf("%w: record at %d would have negative payload length", errs.ErrBadLength, recordPos)
	}
	h.UncompressedDataLength = uint32(newLen)

	return h.Write(buf, recordPos)
}
