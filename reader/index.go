// Package reader implements the file reader (§4.G): opening a file,
// building the global event index either from a trailer/in-file index or a
// full scan, and dispensing events by ordinal with a stateful cursor for
// sequential access.
package reader

import (
	"fmt"
	"sort"

	"github.com/jlab-hipo/evio/errs"
)

// recordInfo is one entry of the reader's recordPositions table.
type recordInfo struct {
	Pos        int64
	Bytes      int
	EventCount int
}

// FileEventIndex answers eventOrdinal → (recordIndex, indexWithinRecord) in
// O(log N) via a prefix-sum binary search over per-record event counts, per
// §4.G. It also holds a single cursor shared by sequential Advance/Retreat
// and random SetEvent access: the cursor always names the last event
// ordinal dispensed, so a direction change after random access moves by
// exactly one event in the new direction, never re-dispensing the current
// position.
type FileEventIndex struct {
	prefix []int // prefix[i] = total events in records [0, i)

	cursor int // last event ordinal dispensed; -1 before first use
}

// NewFileEventIndex builds the prefix-sum table from each record's event
// count.
func NewFileEventIndex(counts []int) *FileEventIndex {
	prefix := make([]int, len(counts)+1)
	for i, c := range counts {
		prefix[i+1] = prefix[i] + c
	}
	return &FileEventIndex{prefix: prefix, cursor: -1}
}

// TotalEvents returns the total event count across all records.
func (x *FileEventIndex) TotalEvents() int {
	if len(x.prefix) == 0 {
		return 0
	}
	return x.prefix[len(x.prefix)-1]
}

// Locate maps a global event ordinal to its (recordIndex,
// indexWithinRecord) pair.
func (x *FileEventIndex) Locate(ordinal int) (recordIndex, indexWithinRecord int, err error) {
	if ordinal < 0 || ordinal >= x.TotalEvents() {
		return 0, 0, fmt.Errorf("%w: event ordinal %d", errs.ErrOutOfBounds, ordinal)
	}

	// sort.Search finds the first i such that prefix[i+1] > ordinal, i.e.
	// the record whose range [prefix[i], prefix[i+1]) contains ordinal.
	i := sort.Search(len(x.prefix)-1, func(i int) bool { return x.prefix[i+1] > ordinal })

	return i, ordinal - x.prefix[i], nil
}

// SetEvent positions the cursor at ordinal without dispensing it.
func (x *FileEventIndex) SetEvent(ordinal int) error {
	if ordinal < -1 || ordinal >= x.TotalEvents() {
		return fmt.Errorf("%w: event ordinal %d", errs.ErrOutOfBounds, ordinal)
	}
	x.cursor = ordinal
	return nil
}

// CanAdvance reports whether Advance would succeed.
func (x *FileEventIndex) CanAdvance() bool { return x.cursor+1 < x.TotalEvents() }

// CanRetreat reports whether Retreat would succeed.
func (x *FileEventIndex) CanRetreat() bool { return x.cursor-1 >= 0 }

// Advance moves the cursor to the next event ordinal and returns it.
func (x *FileEventIndex) Advance() (int, error) {
	if !x.CanAdvance() {
		return 0, fmt.Errorf("%w: no next event", errs.ErrOutOfBounds)
	}
	x.cursor++
	return x.cursor, nil
}

// Retreat moves the cursor to the previous event ordinal and returns it.
func (x *FileEventIndex) Retreat() (int, error) {
	if !x.CanRetreat() {
		return 0, fmt.Errorf("%w: no previous event", errs.ErrOutOfBounds)
	}
	x.cursor--
	return x.cursor, nil
}

// Cursor returns the current cursor position, or -1 if never set.
func (x *FileEventIndex) Cursor() int { return x.cursor }
