package record

import (
	"fmt"

	"github.com/jlab-hipo/evio/bytebuf"
	"github.com/jlab-hipo/evio/compress"
	"github.com/jlab-hipo/evio/endian"
	"github.com/jlab-hipo/evio/errs"
	"github.com/jlab-hipo/evio/header"
	"github.com/jlab-hipo/evio/internal/pool"
)

// OutputConfig configures a record Output.
type OutputConfig struct {
	MaxEventCount        int
	MaxUncompressedBytes int
	Order                endian.EndianEngine
	CompressionType      compress.CompressionType
}

// DefaultOutputConfig returns the package's default record caps: ~1M events
// and ~8MiB of uncompressed payload per record, matching §6's stated
// defaults for maxEventCount and maxRecordSize.
func DefaultOutputConfig() OutputConfig {
	return OutputConfig{
		MaxEventCount:        1_000_000,
		MaxUncompressedBytes: 8 * 1024 * 1024,
		Order:                endian.GetLittleEndianEngine(),
		CompressionType:      compress.None,
	}
}

// Output implements §4.F: accumulate events into a pre-sized, pooled
// buffer until the next one would overflow either cap, then build a
// wire-format record. A Writer or ring slot lives far longer than any one
// record, calling Reset between records, so the backing buffer is drawn
// from the shared record-payload pool instead of growing a fresh slice
// every time.
type Output struct {
	cfg OutputConfig

	eventBuf *pool.ByteBuffer
	index    []uint32 // uncompressed byte length of each event, unpadded

	RecordNumber uint32
	UserHeader   []byte
}

// NewOutput creates an Output with the given configuration, drawing its
// event buffer from the shared record-payload pool.
func NewOutput(cfg OutputConfig) *Output {
	if cfg.Order == nil {
		cfg.Order = endian.GetLittleEndianEngine()
	}
	return &Output{cfg: cfg, eventBuf: pool.GetRecordBuffer()}
}

// Entries returns the number of events accepted so far.
func (o *Output) Entries() int { return len(o.index) }

// UncompressedBytes returns the total accumulated event byte count.
func (o *Output) UncompressedBytes() int { return o.eventBuf.Len() }

// TryAddEvent attempts to append an event's bytes. Events are packed back
// to back with no inter-event padding: the index records each event's
// exact uncompressed byte length, and prefix sums over it give each
// event's byte offset (§3's invariant). Only the payload as a whole is
// padded to a 4-byte boundary, in Build. It returns false without
// modifying state if adding the event would exceed the configured event
// count or uncompressed byte caps; the caller must Build and Reset before
// retrying.
func (o *Output) TryAddEvent(eventBytes []byte) bool {
	if len(o.index) >= o.cfg.MaxEventCount {
		return false
	}

	if o.eventBuf.Len()+len(eventBytes) > o.cfg.MaxUncompressedBytes {
		return false
	}

	o.eventBuf.MustWrite(eventBytes)
	o.index = append(o.index, uint32(len(eventBytes)))

	return true
}

// Reset clears counts and lengths so the buffers can be reused for the next
// record.
func (o *Output) Reset() {
	o.eventBuf.Reset()
	o.index = o.index[:0]
	o.UserHeader = nil
}

// Release returns the event buffer to the shared pool. Call it only when
// this Output will never be used again (e.g. on writer Close); a pooled
// Output still in rotation must keep calling Reset instead.
func (o *Output) Release() {
	pool.PutRecordBuffer(o.eventBuf)
	o.eventBuf = nil
}

// Build compresses the accumulated payload once, assembles header ‖ index ‖
// userHeader ‖ payload into a freshly allocated buffer, and returns it as a
// contiguous byte range. Build does not reset the Output; call Reset
// explicitly to start the next record.
func (o *Output) Build() ([]byte, error) {
	codec, err := compress.CreateCodec(o.cfg.CompressionType)
	if err != nil {
		return nil, err
	}

	payload := o.eventBuf.Bytes()
	compressed := payload
	if o.cfg.CompressionType != compress.None {
		compressed, err = codec.Compress(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrCodecFailure, err)
		}
	}

	h := header.New(header.KindRecord)
	h.Order = o.cfg.Order
	h.RecordNumber = o.RecordNumber
	h.Entries = uint32(len(o.index))
	h.IndexLength = uint32(len(o.index) * 4)
	h.UserHeaderLength = uint32(len(o.UserHeader))
	h.UncompressedDataLength = uint32(len(payload))
	h.CompressionType = o.cfg.CompressionType
	h.CompressedDataLength = uint32(len(compressed))

	pad1 := bytebuf.Pad4(len(o.UserHeader))
	payloadPad := bytebuf.Pad4(len(payload))
	if o.cfg.CompressionType != compress.None {
		payloadPad = bytebuf.Pad4(len(compressed))
	}

	total := header.LengthBytes + len(o.index)*4 + len(o.UserHeader) + pad1 + len(compressed) + payloadPad
	out := bytebuf.Allocate(total)
	out.SetOrder(h.Order)

	if err := h.Write(out, 0); err != nil {
		return nil, err
	}

	pos := header.LengthBytes
	idx := header.EventLengthIndex(o.index)
	if err := idx.Write(out, pos); err != nil {
		return nil, err
	}
	pos += len(o.index) * 4

	if len(o.UserHeader) > 0 {
		if err := out.PutBytesAt(pos, o.UserHeader); err != nil {
			return nil, err
		}
	}
	pos += len(o.UserHeader) + pad1

	if len(compressed) > 0 {
		if err := out.PutBytesAt(pos, compressed); err != nil {
			return nil, err
		}
	}

	return out.Bytes(), nil
}
