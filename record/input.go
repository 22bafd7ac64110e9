// Package record implements record input (§4.E) and record output (§4.F):
// reading one record's events out of a file or buffer offset, and
// accumulating events into a pre-sized buffer that builds into wire bytes.
package record

import (
	"fmt"
	"io"

	"github.com/jlab-hipo/evio/bytebuf"
	"github.com/jlab-hipo/evio/compress"
	"github.com/jlab-hipo/evio/errs"
	"github.com/jlab-hipo/evio/header"
)

// Input holds one record's decompressed bytes plus its header and event
// index, exposing O(1) event lookup by ordinal.
type Input struct {
	Header *header.Header

	buf     *bytebuf.Buffer
	index   header.EventLengthIndex
	offsets []uint32

	payloadOff int // byte offset of the payload within buf
}

// NewInput creates an empty Input ready for ReadRecord or ReadFromBuffer.
func NewInput() *Input {
	return &Input{Header: &header.Header{}}
}

// ReadRecord implements §4.E: it seeks to offset, reads the 14-word header,
// then reads and decompresses the rest of the on-disk record into an
// internal canonical (always-uncompressed) buffer.
func (r *Input) ReadRecord(src io.ReaderAt, offset int64) error {
	headerBytes := make([]byte, header.LengthBytes)
	if _, err := src.ReadAt(headerBytes, offset); err != nil {
		return fmt.Errorf("%w: reading header at %d: %v", errs.ErrIoFailure, offset, err)
	}

	h := &header.Header{}
	if err := h.Read(bytebuf.New(headerBytes), 0); err != nil {
		return err
	}

	recordBytes := int(h.RecordLength) * 4
	raw := make([]byte, recordBytes)
	n, err := src.ReadAt(raw, offset)
	if err != nil && !(err == io.EOF && n == recordBytes) {
		return fmt.Errorf("%w: record at %d claims %d bytes: %v", errs.ErrTruncated, offset, recordBytes, err)
	}

	rawBuf := bytebuf.NewWithOrder(raw, h.Order)

	return r.readFrom(h, rawBuf, 0)
}

// ReadFromBuffer reads one record already fully present in buf at byte
// offset pos, without any I/O.
func (r *Input) ReadFromBuffer(buf *bytebuf.Buffer, pos int) error {
	h := &header.Header{}
	if err := h.Read(buf, pos); err != nil {
		return err
	}

	return r.readFrom(h, buf, pos)
}

func (r *Input) readFrom(h *header.Header, src *bytebuf.Buffer, srcPos int) error {
	pad1, pad2, pad3 := h.Padding()

	headerLenBytes := int(h.HeaderLength) * 4
	indexLenBytes := int(h.IndexLength)
	userHeaderLenBytes := int(h.UserHeaderLength) + pad1
	uncompressedPayload := int(h.UncompressedDataLength) + pad3

	total := headerLenBytes + indexLenBytes + userHeaderLenBytes + uncompressedPayload
	buf := bytebuf.Allocate(total)
	buf.SetOrder(h.Order)

	verbatimLen := indexLenBytes + userHeaderLenBytes
	if verbatimLen > 0 {
		verbatim, err := src.GetBytesAt(srcPos+headerLenBytes, verbatimLen)
		if err != nil {
			return err
		}
		if err := buf.PutBytesAt(headerLenBytes, verbatim); err != nil {
			return err
		}
	}

	payloadSrcPos := srcPos + headerLenBytes + indexLenBytes + userHeaderLenBytes
	payloadDstPos := headerLenBytes + indexLenBytes + userHeaderLenBytes

	if h.CompressionType == compress.None {
		payload, err := src.GetBytesAt(payloadSrcPos, uncompressedPayload)
		if err != nil {
			return err
		}
		if err := buf.PutBytesAt(payloadDstPos, payload); err != nil {
			return err
		}
	} else {
		compLen := int(h.CompressedDataLength) + pad2
		compressed, err := src.GetBytesAt(payloadSrcPos, compLen)
		if err != nil {
			return err
		}

		codec, err := compress.CreateCodec(h.CompressionType)
		if err != nil {
			return err
		}

		dst := make([]byte, h.UncompressedDataLength)
		out, err := codec.Decompress(compressed[:h.CompressedDataLength], dst)
		if err != nil {
			return fmt.Errorf("%w: %v", errs.ErrCodecFailure, err)
		}
		if err := buf.PutBytesAt(payloadDstPos, out); err != nil {
			return err
		}
	}

	out := *h
	out.CompressionType = compress.None
	out.CompressedDataLength = 0

	idx, err := header.ReadEventLengthIndex(buf, headerLenBytes, int(h.Entries))
	if err != nil {
		return err
	}

	r.Header = &out
	r.buf = buf
	r.index = idx
	r.offsets = idx.Offsets()
	r.payloadOff = payloadDstPos

	return nil
}

// Entries returns the number of events in the record.
func (r *Input) Entries() int {
	return len(r.index)
}

// GetEvent returns a non-owning byte view of event i's uncompressed bytes.
func (r *Input) GetEvent(i int) ([]byte, error) {
	if i < 0 || i >= len(r.index) {
		return nil, fmt.Errorf("%w: event %d", errs.ErrOutOfBounds, i)
	}
	start := r.payloadOff + int(r.offsets[i])
	n := int(r.offsets[i+1] - r.offsets[i])
	return r.buf.GetBytesAt(start, n)
}

// CopyEvent copies event i's bytes into dest, returning the number of bytes
// copied. dest must be at least as large as the event.
func (r *Input) CopyEvent(dest []byte, i int) (int, error) {
	src, err := r.GetEvent(i)
	if err != nil {
		return 0, err
	}
	if len(dest) < len(src) {
		return 0, fmt.Errorf("%w: dest %d bytes too small for event of %d bytes", errs.ErrOutOfBounds, len(dest), len(src))
	}
	return copy(dest, src), nil
}

// Buffer returns the record's internal canonical (uncompressed) buffer,
// for use by the node scanner.
func (r *Input) Buffer() *bytebuf.Buffer { return r.buf }
