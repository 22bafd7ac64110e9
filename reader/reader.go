package reader

import (
	"fmt"
	"os"

	"github.com/jlab-hipo/evio/bytebuf"
	"github.com/jlab-hipo/evio/errs"
	"github.com/jlab-hipo/evio/header"
	"github.com/jlab-hipo/evio/internal/logging"
	"github.com/jlab-hipo/evio/record"
)

// Config holds the reader options named in §6: whether to enforce
// monotonic record numbering and whether to ignore any in-file/trailer
// index and force a full linear scan.
type Config struct {
	CheckRecordNumberSequence bool
	ForceScan                 bool
}

// FileReader implements §4.G: it opens an evio/HIPO file, builds the
// global event index from whichever source is fastest (trailer index,
// in-file index, or a full scan), and dispenses events by ordinal.
type FileReader struct {
	file       *os.File
	cfg        Config
	FileHeader *header.Header

	records []recordInfo
	index   *FileEventIndex

	dictionary []byte
	firstEvent []byte
}

// Open opens path, reads its file header, and builds the event index.
func Open(path string, cfg Config) (*FileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIoFailure, err)
	}

	r := &FileReader{file: f, cfg: cfg}
	if err := r.init(); err != nil {
		f.Close()
		return nil, err
	}

	return r, nil
}

func (r *FileReader) init() error {
	headerBytes := make([]byte, header.LengthBytes)
	if _, err := r.file.ReadAt(headerBytes, 0); err != nil {
		return fmt.Errorf("%w: reading file header: %v", errs.ErrIoFailure, err)
	}

	fh := &header.Header{Kind: header.KindFile}
	if err := fh.Read(bytebuf.New(headerBytes), 0); err != nil {
		return err
	}
	r.FileHeader = fh

	logging.For("reader").Debug().
		Str("file", r.file.Name()).
		Uint32("entries_per_header", fh.Entries).
		Msg("opened evio file")

	if err := r.buildIndex(); err != nil {
		return err
	}

	return r.recoverUserHeaderRecord()
}

// firstRecordOffset returns the byte offset of the first ordinary record,
// immediately after the file header, its optional index array, and its
// padded user header.
func (r *FileReader) firstRecordOffset() int64 {
	pad1, _, _ := r.FileHeader.Padding()
	return int64(header.LengthBytes) + int64(r.FileHeader.IndexLength) + int64(r.FileHeader.UserHeaderLength) + int64(pad1)
}

func (r *FileReader) buildIndex() error {
	switch {
	case r.cfg.ForceScan:
		return r.forceScanFile()
	case r.FileHeader.HasTrailerWithIndex():
		return r.readTrailerIndex()
	case r.FileHeader.IndexLength > 0:
		return r.readInFileIndex()
	default:
		return r.forceScanFile()
	}
}

func (r *FileReader) readTrailerIndex() error {
	trailerPos := int64(r.FileHeader.TrailerPosition())

	th := &header.Header{}
	trailerHeaderBytes := make([]byte, header.LengthBytes)
	if _, err := r.file.ReadAt(trailerHeaderBytes, trailerPos); err != nil {
		return fmt.Errorf("%w: reading trailer at %d: %v", errs.ErrIoFailure, trailerPos, err)
	}
	if err := th.Read(bytebuf.New(trailerHeaderBytes), 0); err != nil {
		return err
	}

	n := int(th.IndexLength) / 8
	idxBytes := make([]byte, th.IndexLength)
	if _, err := r.file.ReadAt(idxBytes, trailerPos+int64(header.LengthBytes)); err != nil {
		return fmt.Errorf("%w: reading trailer index: %v", errs.ErrIoFailure, err)
	}

	entries, err := header.ReadIndex(bytebuf.New(idxBytes), 0, n)
	if err != nil {
		return err
	}

	pos := r.firstRecordOffset()
	counts := make([]int, 0, n)
	for _, e := range entries {
		r.records = append(r.records, recordInfo{Pos: pos, Bytes: int(e.RecordLength), EventCount: int(e.EventCount)})
		counts = append(counts, int(e.EventCount))
		pos += int64(e.RecordLength)
	}

	r.index = NewFileEventIndex(counts)
	return nil
}

func (r *FileReader) readInFileIndex() error {
	n := int(r.FileHeader.IndexLength) / 8
	idxBytes := make([]byte, r.FileHeader.IndexLength)
	if _, err := r.file.ReadAt(idxBytes, int64(header.LengthBytes)); err != nil {
		return fmt.Errorf("%w: reading in-file index: %v", errs.ErrIoFailure, err)
	}

	entries, err := header.ReadIndex(bytebuf.New(idxBytes), 0, n)
	if err != nil {
		return err
	}

	pos := r.firstRecordOffset()
	counts := make([]int, 0, n)
	for _, e := range entries {
		r.records = append(r.records, recordInfo{Pos: pos, Bytes: int(e.RecordLength), EventCount: int(e.EventCount)})
		counts = append(counts, int(e.EventCount))
		pos += int64(e.RecordLength)
	}

	r.index = NewFileEventIndex(counts)
	return nil
}

// forceScanFile walks records linearly by recordLength, per §4.G, used
// when no index is trusted or forceScan is requested. A record flagged
// IsLastRecord is counted with its events and ends the scan.
func (r *FileReader) forceScanFile() error {
	info, err := r.file.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIoFailure, err)
	}
	size := info.Size()

	pos := r.firstRecordOffset()
	var counts []int
	var expectedNumber uint32 = 1

	for pos < size {
		headerBytes := make([]byte, header.LengthBytes)
		if _, err := r.file.ReadAt(headerBytes, pos); err != nil {
			return fmt.Errorf("%w: scanning record at %d: %v", errs.ErrIoFailure, pos, err)
		}

		h := &header.Header{}
		if err := h.Read(bytebuf.New(headerBytes), 0); err != nil {
			return err
		}

		if r.cfg.CheckRecordNumberSequence && h.RecordNumber != expectedNumber {
			return fmt.Errorf("%w: expected record %d, got %d", errs.ErrBadSequence, expectedNumber, h.RecordNumber)
		}
		expectedNumber++

		recordBytes := int64(h.RecordLength) * 4
		r.records = append(r.records, recordInfo{Pos: pos, Bytes: int(recordBytes), EventCount: int(h.Entries)})
		counts = append(counts, int(h.Entries))

		pos += recordBytes

		if h.Bits.IsLastRecord {
			break
		}
	}

	r.index = NewFileEventIndex(counts)
	return nil
}

// recoverUserHeaderRecord recovers the dictionary and first event from the
// file header's user-header region, itself framed as a record: the
// dictionary (plain ASCII) is that sub-record's first event, and the first
// event (an evio bank) is its second, per §4.G.
func (r *FileReader) recoverUserHeaderRecord() error {
	if r.FileHeader.UserHeaderLength == 0 {
		return nil
	}

	in := record.NewInput()
	if err := in.ReadRecord(r.file, int64(header.LengthBytes)+int64(r.FileHeader.IndexLength)); err != nil {
		// The user header region may not itself be record-framed; tolerate
		// that by leaving dictionary/first-event unset.
		return nil
	}

	if in.Entries() >= 1 {
		if ev, err := in.GetEvent(0); err == nil {
			r.dictionary = append([]byte(nil), ev...)
		}
	}
	if in.Entries() >= 2 {
		if ev, err := in.GetEvent(1); err == nil {
			r.firstEvent = append([]byte(nil), ev...)
		}
	}

	return nil
}

// Dictionary returns the file's XML dictionary bytes, or nil if none.
func (r *FileReader) Dictionary() []byte { return r.dictionary }

// FirstEvent returns the file's first-event bytes, or nil if none.
func (r *FileReader) FirstEvent() []byte { return r.firstEvent }

// EventCount returns the total number of events in the file.
func (r *FileReader) EventCount() int { return r.index.TotalEvents() }

// GetEvent returns event ordinal's uncompressed bytes, reading and
// decompressing its owning record on demand. It also repositions the
// shared sequential cursor at ordinal, so a subsequent GetNextEvent or
// GetPrevEvent continues from this random-access position instead of
// wherever sequential access last left off.
func (r *FileReader) GetEvent(ordinal int) ([]byte, error) {
	recIdx, within, err := r.index.Locate(ordinal)
	if err != nil {
		return nil, err
	}

	in := record.NewInput()
	if err := in.ReadRecord(r.file, r.records[recIdx].Pos); err != nil {
		return nil, err
	}

	event, err := in.GetEvent(within)
	if err != nil {
		return nil, err
	}

	if err := r.index.SetEvent(ordinal); err != nil {
		return nil, err
	}

	return event, nil
}

// GetNextEvent advances the shared cursor and returns that event.
func (r *FileReader) GetNextEvent() ([]byte, error) {
	ordinal, err := r.index.Advance()
	if err != nil {
		return nil, err
	}
	return r.GetEvent(ordinal)
}

// GetPrevEvent retreats the shared cursor and returns that event.
func (r *FileReader) GetPrevEvent() ([]byte, error) {
	ordinal, err := r.index.Retreat()
	if err != nil {
		return nil, err
	}
	return r.GetEvent(ordinal)
}

// Close closes the underlying file.
func (r *FileReader) Close() error {
	return r.file.Close()
}
