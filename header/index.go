package header

import "github.com/jlab-hipo/evio/bytebuf"

// IndexEntry is one (recordLength, eventCount) pair in a file's trailer or
// in-file record index (§3, §4.G).
type IndexEntry struct {
	RecordLength uint32 // bytes
	EventCount   uint32
}

// WriteIndex serializes entries as buf-order i32 pairs starting at pos,
// returning the number of bytes written (8 * len(entries)).
func WriteIndex(buf *bytebuf.Buffer, pos int, entries []IndexEntry) (int, error) {
	off := pos
	for _, e := range entries {
		if err := buf.PutU32At(off, e.RecordLength); err != nil {
			return 0, err
		}
		if err := buf.PutU32At(off+4, e.EventCount); err != nil {
			return 0, err
		}
		off += 8
	}

	return off - pos, nil
}

// ReadIndex parses n entries (2*n words) starting at pos.
func ReadIndex(buf *bytebuf.Buffer, pos int, n int) ([]IndexEntry, error) {
	entries := make([]IndexEntry, n)
	off := pos

	for i := 0; i < n; i++ {
		length, err := buf.GetU32At(off)
		if err != nil {
			return nil, err
		}
		count, err := buf.GetU32At(off + 4)
		if err != nil {
			return nil, err
		}

		entries[i] = IndexEntry{RecordLength: length, EventCount: count}
		off += 8
	}

	return entries, nil
}

// EventLengthIndex is the per-record array of uncompressed event byte
// lengths that follows a record header (§3). Unlike IndexEntry pairs, this
// is a flat array of single i32 lengths, one per event in the record.
type EventLengthIndex []uint32

// Write serializes the event-length index as buf-order i32 values.
func (idx EventLengthIndex) Write(buf *bytebuf.Buffer, pos int) error {
	off := pos
	for _, length := range idx {
		if err := buf.PutU32At(off, length); err != nil {
			return err
		}
		off += 4
	}
	return nil
}

// ReadEventLengthIndex parses n event lengths starting at pos.
func ReadEventLengthIndex(buf *bytebuf.Buffer, pos int, n int) (EventLengthIndex, error) {
	idx := make(EventLengthIndex, n)
	off := pos
	for i := 0; i < n; i++ {
		v, err := buf.GetU32At(off)
		if err != nil {
			return nil, err
		}
		idx[i] = v
		off += 4
	}
	return idx, nil
}

// Offsets returns the prefix-sum byte offsets of each event relative to the
// start of the payload: Offsets()[i] is the byte offset of event i, and
// Offsets()[len(idx)] is the total payload byte length.
func (idx EventLengthIndex) Offsets() []uint32 {
	offsets := make([]uint32, len(idx)+1)
	var sum uint32
	for i, length := range idx {
		offsets[i] = sum
		sum += length
	}
	offsets[len(idx)] = sum

	return offsets
}
