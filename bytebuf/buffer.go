// Package bytebuf provides a bounds-checked, endian-aware byte buffer with
// Java-NIO-style positioned access: an independent read/write position, a
// limit, mark/reset, and non-copying duplicate/slice views. It is the
// foundation every other package in this module builds record and header
// access on top of.
package bytebuf

import (
	"math"

	"github.com/jlab-hipo/evio/endian"
	"github.com/jlab-hipo/evio/errs"
)

// Buffer is a contiguous byte region with a current position, a limit, and
// a byte order. All relative accessors read or write at pos and then
// advance pos; positioned accessors leave pos untouched.
//
// A Buffer never reallocates: Cap is fixed at construction. Growing a
// buffer means wrapping a new, larger backing slice.
type Buffer struct {
	buf    []byte
	pos    int
	limit  int
	mark   int
	order  endian.EndianEngine
}

// New wraps buf in a Buffer with limit set to len(buf) and order defaulting
// to little-endian, the canonical wire order for this format.
func New(buf []byte) *Buffer {
	return &Buffer{
		buf:   buf,
		pos:   0,
		limit: len(buf),
		mark:  -1,
		order: endian.GetLittleEndianEngine(),
	}
}

// NewWithOrder wraps buf in a Buffer using the given byte order.
func NewWithOrder(buf []byte, order endian.EndianEngine) *Buffer {
	b := New(buf)
	b.order = order
	return b
}

// Allocate creates a new Buffer backed by a freshly allocated n-byte slice.
func Allocate(n int) *Buffer {
	return New(make([]byte, n))
}

// Order returns the buffer's current byte order.
func (b *Buffer) Order() endian.EndianEngine { return b.order }

// SetOrder switches the buffer's byte order. Numeric accessors honor the
// new order from the next call on; already-read values are unaffected.
func (b *Buffer) SetOrder(order endian.EndianEngine) { b.order = order }

// Cap returns the capacity of the underlying storage.
func (b *Buffer) Cap() int { return len(b.buf) }

// Pos returns the current position.
func (b *Buffer) Pos() int { return b.pos }

// Limit returns the current limit: the first position accessors may not
// read past.
func (b *Buffer) Limit() int { return b.limit }

// Remaining returns the number of bytes between pos and limit.
func (b *Buffer) Remaining() int { return b.limit - b.pos }

// HasRemaining reports whether any bytes remain before the limit.
func (b *Buffer) HasRemaining() bool { return b.pos < b.limit }

// Bytes returns the full backing slice, ignoring pos/limit. Callers that
// need only the logical contents should use Slice(0, Limit()).
func (b *Buffer) Bytes() []byte { return b.buf }

// SetPos sets the position. Fails with ErrOutOfBounds if pos is negative or
// exceeds the limit.
func (b *Buffer) SetPos(pos int) error {
	if pos < 0 || pos > b.limit {
		return errs.ErrOutOfBounds
	}
	b.pos = pos
	if b.mark > pos {
		b.mark = -1
	}
	return nil
}

// SetLimit sets the limit. Fails with ErrOutOfBounds if limit is negative
// or exceeds the capacity. If pos exceeds the new limit, pos is clamped
// down to it, mirroring java.nio.Buffer.limit.
func (b *Buffer) SetLimit(limit int) error {
	if limit < 0 || limit > len(b.buf) {
		return errs.ErrOutOfBounds
	}
	b.limit = limit
	if b.pos > limit {
		b.pos = limit
	}
	if b.mark > limit {
		b.mark = -1
	}
	return nil
}

// Mark saves the current position for a later Reset.
func (b *Buffer) Mark() { b.mark = b.pos }

// Reset restores the position saved by the most recent Mark. Fails with
// ErrOutOfBounds if Mark was never called (or was invalidated by a
// subsequent SetPos/SetLimit below it).
func (b *Buffer) Reset() error {
	if b.mark < 0 {
		return errs.ErrOutOfBounds
	}
	b.pos = b.mark
	return nil
}

// Flip sets the limit to the current position and then resets the position
// to zero: the standard idiom for switching a buffer from write mode to
// read mode.
func (b *Buffer) Flip() {
	b.limit = b.pos
	b.pos = 0
	b.mark = -1
}

// Rewind resets the position to zero without touching the limit.
func (b *Buffer) Rewind() {
	b.pos = 0
	b.mark = -1
}

// Clear resets position to zero and limit to capacity: the idiom for
// switching a buffer from read mode back to write mode.
func (b *Buffer) Clear() {
	b.pos = 0
	b.limit = len(b.buf)
	b.mark = -1
}

// Compact discards the bytes before pos by shifting [pos:limit) down to the
// start of the buffer, sets pos to the number of bytes moved, and sets
// limit to the capacity, so unread bytes are preserved for appending more
// data after them.
func (b *Buffer) Compact() {
	n := copy(b.buf, b.buf[b.pos:b.limit])
	b.pos = n
	b.limit = len(b.buf)
	b.mark = -1
}

// Duplicate returns a new Buffer sharing the same backing storage with an
// independent position, limit, and mark. Writes through either view are
// visible in the other.
func (b *Buffer) Duplicate() *Buffer {
	return &Buffer{
		buf:   b.buf,
		pos:   b.pos,
		limit: b.limit,
		mark:  b.mark,
		order: b.order,
	}
}

// Slice returns a new Buffer over buf[start:end], sharing storage with the
// receiver. The returned buffer's position is 0 and its limit is end-start.
// Fails with ErrOutOfBounds if the range is invalid.
func (b *Buffer) Slice(start, end int) (*Buffer, error) {
	if start < 0 || end < start || end > len(b.buf) {
		return nil, errs.ErrOutOfBounds
	}
	return &Buffer{
		buf:   b.buf[start:end],
		pos:   0,
		limit: end - start,
		mark:  -1,
		order: b.order,
	}, nil
}

func (b *Buffer) checkGet(pos, n int) error {
	if pos < 0 || n < 0 || pos+n > b.limit {
		return errs.ErrOutOfBounds
	}
	return nil
}

func (b *Buffer) checkPut(pos, n int) error {
	if pos < 0 || n < 0 || pos+n > len(b.buf) {
		return errs.ErrOutOfBounds
	}
	return nil
}

// --- positioned accessors ---

// GetU8At reads a byte at pos without advancing the position.
func (b *Buffer) GetU8At(pos int) (uint8, error) {
	if err := b.checkGet(pos, 1); err != nil {
		return 0, err
	}
	return b.buf[pos], nil
}

// PutU8At writes a byte at pos without advancing the position.
func (b *Buffer) PutU8At(pos int, v uint8) error {
	if err := b.checkPut(pos, 1); err != nil {
		return err
	}
	b.buf[pos] = v
	return nil
}

// GetU16At reads a uint16 at pos in the buffer's byte order.
func (b *Buffer) GetU16At(pos int) (uint16, error) {
	if err := b.checkGet(pos, 2); err != nil {
		return 0, err
	}
	return b.order.Uint16(b.buf[pos : pos+2]), nil
}

// PutU16At writes a uint16 at pos in the buffer's byte order.
func (b *Buffer) PutU16At(pos int, v uint16) error {
	if err := b.checkPut(pos, 2); err != nil {
		return err
	}
	b.order.PutUint16(b.buf[pos:pos+2], v)
	return nil
}

// GetU32At reads a uint32 at pos in the buffer's byte order.
func (b *Buffer) GetU32At(pos int) (uint32, error) {
	if err := b.checkGet(pos, 4); err != nil {
		return 0, err
	}
	return b.order.Uint32(b.buf[pos : pos+4]), nil
}

// PutU32At writes a uint32 at pos in the buffer's byte order.
func (b *Buffer) PutU32At(pos int, v uint32) error {
	if err := b.checkPut(pos, 4); err != nil {
		return err
	}
	b.order.PutUint32(b.buf[pos:pos+4], v)
	return nil
}

// GetU64At reads a uint64 at pos in the buffer's byte order, as a single
// 8-byte operation. Splitting a 64-bit register into two swapped 32-bit
// halves is a correctness pitfall for the user-register words; callers
// must use this accessor for them, never two GetU32At calls.
func (b *Buffer) GetU64At(pos int) (uint64, error) {
	if err := b.checkGet(pos, 8); err != nil {
		return 0, err
	}
	return b.order.Uint64(b.buf[pos : pos+8]), nil
}

// PutU64At writes a uint64 at pos in the buffer's byte order as one 8-byte
// operation.
func (b *Buffer) PutU64At(pos int, v uint64) error {
	if err := b.checkPut(pos, 8); err != nil {
		return err
	}
	b.order.PutUint64(b.buf[pos:pos+8], v)
	return nil
}

// GetI32At reads an int32 at pos.
func (b *Buffer) GetI32At(pos int) (int32, error) {
	v, err := b.GetU32At(pos)
	return int32(v), err
}

// PutI32At writes an int32 at pos.
func (b *Buffer) PutI32At(pos int, v int32) error {
	return b.PutU32At(pos, uint32(v))
}

// GetI64At reads an int64 at pos as a single 8-byte operation.
func (b *Buffer) GetI64At(pos int) (int64, error) {
	v, err := b.GetU64At(pos)
	return int64(v), err
}

// PutI64At writes an int64 at pos as a single 8-byte operation.
func (b *Buffer) PutI64At(pos int, v int64) error {
	return b.PutU64At(pos, uint64(v))
}

// GetF32At reads a float32 at pos.
func (b *Buffer) GetF32At(pos int) (float32, error) {
	v, err := b.GetU32At(pos)
	return math.Float32frombits(v), err
}

// PutF32At writes a float32 at pos.
func (b *Buffer) PutF32At(pos int, v float32) error {
	return b.PutU32At(pos, math.Float32bits(v))
}

// GetF64At reads a float64 at pos.
func (b *Buffer) GetF64At(pos int) (float64, error) {
	v, err := b.GetU64At(pos)
	return math.Float64frombits(v), err
}

// PutF64At writes a float64 at pos.
func (b *Buffer) PutF64At(pos int, v float64) error {
	return b.PutU64At(pos, math.Float64bits(v))
}

// GetBytesAt returns a non-owning view of n bytes at pos.
func (b *Buffer) GetBytesAt(pos, n int) ([]byte, error) {
	if err := b.checkGet(pos, n); err != nil {
		return nil, err
	}
	return b.buf[pos : pos+n], nil
}

// PutBytesAt copies data into the buffer starting at pos.
func (b *Buffer) PutBytesAt(pos int, data []byte) error {
	if err := b.checkPut(pos, len(data)); err != nil {
		return err
	}
	copy(b.buf[pos:pos+len(data)], data)
	return nil
}

// --- relative accessors: read/write at pos, then advance pos ---

// GetU8 reads a byte at pos and advances pos by 1.
func (b *Buffer) GetU8() (uint8, error) {
	v, err := b.GetU8At(b.pos)
	if err != nil {
		return 0, err
	}
	b.pos++
	return v, nil
}

// PutU8 writes a byte at pos and advances pos by 1.
func (b *Buffer) PutU8(v uint8) error {
	if err := b.PutU8At(b.pos, v); err != nil {
		return err
	}
	b.pos++
	return nil
}

// GetU32 reads a uint32 at pos and advances pos by 4.
func (b *Buffer) GetU32() (uint32, error) {
	v, err := b.GetU32At(b.pos)
	if err != nil {
		return 0, err
	}
	b.pos += 4
	return v, nil
}

// PutU32 writes a uint32 at pos and advances pos by 4.
func (b *Buffer) PutU32(v uint32) error {
	if err := b.PutU32At(b.pos, v); err != nil {
		return err
	}
	b.pos += 4
	return nil
}

// GetI32 reads an int32 at pos and advances pos by 4.
func (b *Buffer) GetI32() (int32, error) {
	v, err := b.GetU32()
	return int32(v), err
}

// PutI32 writes an int32 at pos and advances pos by 4.
func (b *Buffer) PutI32(v int32) error {
	return b.PutU32(uint32(v))
}

// GetU64 reads a uint64 at pos and advances pos by 8.
func (b *Buffer) GetU64() (uint64, error) {
	v, err := b.GetU64At(b.pos)
	if err != nil {
		return 0, err
	}
	b.pos += 8
	return v, nil
}

// PutU64 writes a uint64 at pos and advances pos by 8.
func (b *Buffer) PutU64(v uint64) error {
	if err := b.PutU64At(b.pos, v); err != nil {
		return err
	}
	b.pos += 8
	return nil
}

// GetBytes reads n bytes at pos, advances pos by n, and returns a
// non-owning view.
func (b *Buffer) GetBytes(n int) ([]byte, error) {
	v, err := b.GetBytesAt(b.pos, n)
	if err != nil {
		return nil, err
	}
	b.pos += n
	return v, nil
}

// PutBytes writes data at pos and advances pos by len(data).
func (b *Buffer) PutBytes(data []byte) error {
	if err := b.PutBytesAt(b.pos, data); err != nil {
		return err
	}
	b.pos += len(data)
	return nil
}

// Pad4 returns the number of zero bytes needed after n bytes to reach a
// 4-byte boundary: (-n) & 3.
func Pad4(n int) int {
	return (-n) & 3
}

// WritePad4 writes Pad4(n)-many zero bytes at pos and advances pos
// past them, aligning the next write to a 4-byte boundary.
func (b *Buffer) WritePad4(n int) error {
	pad := Pad4(n)
	for i := 0; i < pad; i++ {
		if err := b.PutU8(0); err != nil {
			return err
		}
	}
	return nil
}
