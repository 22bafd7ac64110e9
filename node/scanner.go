package node

import (
	"fmt"

	"github.com/jlab-hipo/evio/bytebuf"
	"github.com/jlab-hipo/evio/compress"
	"github.com/jlab-hipo/evio/errs"
	"github.com/jlab-hipo/evio/header"
	"github.com/jlab-hipo/evio/structure"
)

// recordSpan is one entry of a Scanner's recordPositions table (§4.D).
type recordSpan struct {
	Pos        int // byte offset of the record header within the scanner's buffer
	Bytes      int // total record length in bytes
	EventCount int
}

// Scanner indexes the events and substructures of an uncompressed (or
// decompressed-on-scan) buffer. It owns no bytes: it either scans the
// caller's buffer in place or, if the source was compressed, a freshly
// allocated staging buffer it decompressed into.
type Scanner struct {
	buf        *bytebuf.Buffer
	generation uint64

	recordPositions  []recordSpan
	eventPrefix      []int // prefix sum of event counts per record
	roots            []*EvioNode
}

// Buffer returns the buffer the scanner's nodes are positioned against:
// either the caller's original buffer, or the staging buffer the scanner
// decompressed into.
func (s *Scanner) Buffer() *bytebuf.Buffer { return s.buf }

// EventCount returns the total number of event roots found across every
// record scanned.
func (s *Scanner) EventCount() int {
	if len(s.eventPrefix) == 0 {
		return 0
	}
	return s.eventPrefix[len(s.eventPrefix)-1]
}

// Event returns the ordinal-th event root across the whole scanned region.
func (s *Scanner) Event(ordinal int) (*EvioNode, error) {
	if ordinal < 0 || ordinal >= len(s.roots) {
		return nil, fmt.Errorf("%w: event ordinal %d", errs.ErrOutOfBounds, ordinal)
	}
	return s.roots[ordinal], nil
}

// ScanBuffer implements §4.D's scanBuffer: it walks every record header
// from bufferOffset to bufferLimit, decompressing into a staging buffer
// first if any record is compressed, then extracts every event and its
// descendant tree.
func ScanBuffer(buf *bytebuf.Buffer, bufferOffset, bufferLimit int) (*Scanner, error) {
	workBuf, err := stageIfCompressed(buf, bufferOffset, bufferLimit)
	if err != nil {
		return nil, err
	}

	s := &Scanner{buf: workBuf}

	pos := 0
	limit := workBuf.Limit()
	if workBuf == buf {
		pos, limit = bufferOffset, bufferLimit
	}

	for pos < limit {
		h := &header.Header{}
		if err := h.Read(workBuf, pos); err != nil {
			return nil, err
		}

		recordBytes := int(h.RecordLength) * 4
		if pos+recordBytes > limit {
			return nil, fmt.Errorf("%w: record at %d claims %d bytes past limit %d", errs.ErrTruncated, pos, recordBytes, limit)
		}

		eventsPos := pos + int(h.HeaderLength)*4 + int(h.IndexLength)
		pad1, _, _ := h.Padding()
		eventsPos += int(h.UserHeaderLength) + pad1

		idx, err := header.ReadEventLengthIndex(workBuf, pos+int(h.HeaderLength)*4, int(h.Entries))
		if err != nil {
			return nil, err
		}
		offsets := idx.Offsets()

		count := 0
		for i := 0; i < int(h.Entries); i++ {
			root, err := extractEventNode(s, workBuf, pos, eventsPos+int(offsets[i]), i)
			if err != nil {
				return nil, err
			}
			s.roots = append(s.roots, root)
			count++
		}

		prefix := count
		if len(s.eventPrefix) > 0 {
			prefix += s.eventPrefix[len(s.eventPrefix)-1]
		}
		s.eventPrefix = append(s.eventPrefix, prefix)
		s.recordPositions = append(s.recordPositions, recordSpan{Pos: pos, Bytes: recordBytes, EventCount: count})

		pos += recordBytes
	}

	return s, nil
}

// stageIfCompressed returns buf itself if no record in [offset, limit) is
// compressed; otherwise it decompresses every record into a freshly
// allocated staging buffer sized from each header's uncompressed-length
// field, per §4.D's output buffer policy.
func stageIfCompressed(buf *bytebuf.Buffer, offset, limit int) (*bytebuf.Buffer, error) {
	anyCompressed := false
	total := 0

	pos := offset
	for pos < limit {
		h := &header.Header{}
		if err := h.Read(buf, pos); err != nil {
			return nil, err
		}

		pad1, _, pad3 := h.Padding()
		total += int(h.HeaderLength)*4 + int(h.IndexLength) + (int(h.UserHeaderLength) + pad1) + (int(h.UncompressedDataLength) + pad3)

		if h.CompressionType != compress.None {
			anyCompressed = true
		}
		pos += int(h.RecordLength) * 4
	}

	if !anyCompressed {
		return buf, nil
	}

	staging := bytebuf.Allocate(total)
	staging.SetOrder(buf.Order())

	stagingPos := 0
	pos = offset
	for pos < limit {
		h := &header.Header{}
		if err := h.Read(buf, pos); err != nil {
			return nil, err
		}

		n, err := uncompressRecordInto(buf, pos, h, staging, stagingPos)
		if err != nil {
			return nil, err
		}

		stagingPos += n
		pos += int(h.RecordLength) * 4
	}

	return staging, nil
}

// uncompressRecordInto expands one record's header, index, user header, and
// decompressed payload into dst at dstPos, rewriting the header so it
// reads as CompressionType none with the uncompressed length as both
// compressed and uncompressed fields (the staging buffer is always
// canonical-uncompressed).
func uncompressRecordInto(src *bytebuf.Buffer, srcPos int, h *header.Header, dst *bytebuf.Buffer, dstPos int) (int, error) {
	pad1, pad2, pad3 := h.Padding()
	indexBytes := int(h.IndexLength)
	userHeaderBytes := int(h.UserHeaderLength) + pad1

	payloadPos := srcPos + int(h.HeaderLength)*4 + indexBytes + userHeaderBytes
	compLen := int(h.CompressedDataLength) + pad2
	if h.CompressionType == compress.None {
		compLen = int(h.UncompressedDataLength) + pad3
	}

	compressed, err := src.GetBytesAt(payloadPos, compLen)
	if err != nil {
		return 0, err
	}

	codec, err := compress.CreateCodec(h.CompressionType)
	if err != nil {
		return 0, err
	}

	dest := make([]byte, h.UncompressedDataLength)
	uncompressed, err := codec.Decompress(trimRight(compressed, int(h.CompressedDataLength)), dest)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrCodecFailure, err)
	}

	out := &header.Header{
		Kind:                   h.Kind,
		RecordNumber:           h.RecordNumber,
		Entries:                h.Entries,
		IndexLength:            h.IndexLength,
		UserHeaderLength:       h.UserHeaderLength,
		UncompressedDataLength: h.UncompressedDataLength,
		CompressionType:        compress.None,
		UserRegister1:          h.UserRegister1,
		UserRegister2:          h.UserRegister2,
		Bits:                   h.Bits,
		Order:                  dst.Order(),
	}

	if err := out.Write(dst, dstPos); err != nil {
		return 0, err
	}

	verbatim, err := src.GetBytesAt(srcPos+int(h.HeaderLength)*4, indexBytes+int(h.UserHeaderLength))
	if err != nil {
		return 0, err
	}
	if err := dst.PutBytesAt(dstPos+int(h.HeaderLength)*4, verbatim); err != nil {
		return 0, err
	}

	payloadDst := dstPos + int(h.HeaderLength)*4 + indexBytes + int(h.UserHeaderLength) + pad1
	if err := dst.PutBytesAt(payloadDst, uncompressed); err != nil {
		return 0, err
	}

	recordBytes := int(out.RecordLength) * 4
	return recordBytes, nil
}

func trimRight(b []byte, n int) []byte {
	if n < 0 || n > len(b) {
		return b
	}
	return b[:n]
}

// extractEventNode builds the root EvioNode for event ordinal at byte
// offset pos within the record at recordPos, then recursively builds its
// descendant tree.
func extractEventNode(s *Scanner, buf *bytebuf.Buffer, recordPos, pos, ordinal int) (*EvioNode, error) {
	w0, err := buf.GetU32At(pos)
	if err != nil {
		return nil, err
	}
	w1, err := buf.GetU32At(pos + 4)
	if err != nil {
		return nil, err
	}
	bank := structure.DecodeBank(w0, w1)

	if int(bank.Length) < 1 {
		return nil, fmt.Errorf("%w: event %d bank length %d", errs.ErrBadLength, ordinal, bank.Length)
	}

	root := &EvioNode{
		scanner:     s,
		generation:  s.generation,
		Pos:         pos,
		DataPos:     pos + 8,
		Len:         int(bank.Length+1) * 4,
		DataLen:     int(bank.Length-1) * 4,
		RecordPos:   recordPos,
		Kind:        structure.KindBank,
		DataType:    bank.Type,
		Tag:         bank.Tag,
		Num:         bank.Num,
		Pad:         bank.Pad,
		fingerprint: headerFingerprint(buf, pos, 2),
	}
	root.EventNode = root

	children, err := extractChildren(s, buf, recordPos, root, root.DataPos, root.DataLen, bank.Type)
	if err != nil {
		return nil, err
	}
	root.Children = children
	root.AllDescendants = flatten(children)

	return root, nil
}

// extractNode builds one non-root node of kind at pos, recursing into its
// own children if its data type is a container.
func extractNode(s *Scanner, buf *bytebuf.Buffer, recordPos int, parent *EvioNode, pos int, kind structure.Kind) (*EvioNode, error) {
	var n *EvioNode

	switch kind {
	case structure.KindBank:
		w0, err := buf.GetU32At(pos)
		if err != nil {
			return nil, err
		}
		w1, err := buf.GetU32At(pos + 4)
		if err != nil {
			return nil, err
		}
		bank := structure.DecodeBank(w0, w1)
		if int(bank.Length) < 1 {
			return nil, fmt.Errorf("%w: bank length %d", errs.ErrBadLength, bank.Length)
		}
		n = &EvioNode{
			scanner: s, generation: s.generation,
			Pos: pos, DataPos: pos + 8,
			Len: int(bank.Length+1) * 4, DataLen: int(bank.Length-1) * 4,
			RecordPos: recordPos, Kind: structure.KindBank,
			DataType: bank.Type, Tag: bank.Tag, Num: bank.Num, Pad: bank.Pad,
			fingerprint: headerFingerprint(buf, pos, 2),
		}

	case structure.KindSegment:
		w, err := buf.GetU32At(pos)
		if err != nil {
			return nil, err
		}
		seg := structure.DecodeSegment(w)
		n = &EvioNode{
			scanner: s, generation: s.generation,
			Pos: pos, DataPos: pos + 4,
			Len: int(seg.Length+1) * 4, DataLen: int(seg.Length) * 4,
			RecordPos: recordPos, Kind: structure.KindSegment,
			DataType: seg.Type, Tag: uint16(seg.Tag), Pad: seg.Pad,
			fingerprint: headerFingerprint(buf, pos, 1),
		}

	default: // KindTagsegment
		w, err := buf.GetU32At(pos)
		if err != nil {
			return nil, err
		}
		ts := structure.DecodeTagsegment(w)
		n = &EvioNode{
			scanner: s, generation: s.generation,
			Pos: pos, DataPos: pos + 4,
			Len: int(ts.Length+1) * 4, DataLen: int(ts.Length) * 4,
			RecordPos: recordPos, Kind: structure.KindTagsegment,
			DataType: ts.Type, Tag: ts.Tag,
			fingerprint: headerFingerprint(buf, pos, 1),
		}
	}

	n.Parent = parent
	n.EventNode = parent.EventNode

	children, err := extractChildren(s, buf, recordPos, n, n.DataPos, n.DataLen, n.DataType)
	if err != nil {
		return nil, err
	}
	n.Children = children

	return n, nil
}

// extractChildren walks a container body by child length prefixes,
// building one node per child via extractNode.
func extractChildren(s *Scanner, buf *bytebuf.Buffer, recordPos int, parent *EvioNode, dataPos, dataLen int, dataType structure.DataType) ([]*EvioNode, error) {
	if !dataType.IsContainer() {
		return nil, nil
	}

	childKind := childKindFor(dataType)

	var children []*EvioNode
	off := 0
	for off < dataLen {
		child, err := extractNode(s, buf, recordPos, parent, dataPos+off, childKind)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		off += child.Len
	}

	return children, nil
}

func childKindFor(parentType structure.DataType) structure.Kind {
	switch parentType {
	case structure.TypeSegment, structure.TypeSegmentAlt:
		return structure.KindSegment
	case structure.TypeTagsegment:
		return structure.KindTagsegment
	default:
		return structure.KindBank
	}
}

func flatten(children []*EvioNode) []*EvioNode {
	var all []*EvioNode
	for _, c := range children {
		all = append(all, c)
		all = append(all, flatten(c.Children)...)
	}
	return all
}
