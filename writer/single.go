package writer

import (
	"fmt"
	"io"
	"os"

	"github.com/jlab-hipo/evio/bytebuf"
	"github.com/jlab-hipo/evio/endian"
	"github.com/jlab-hipo/evio/errs"
	"github.com/jlab-hipo/evio/header"
	"github.com/jlab-hipo/evio/internal/logging"
	"github.com/jlab-hipo/evio/record"
)

// Writer implements §4.H: a single-threaded writer that accumulates events
// into one record.Output at a time, flushing it to disk when full or on
// Close, and rotating files when a configured split size is crossed.
type Writer struct {
	cfg      Config
	pathTmpl string

	file       *os.File
	order      endian.EndianEngine
	cur        *record.Output
	splitNum   int
	nextRecNum uint32

	writtenBytes int64
	recordIndex  []header.IndexEntry // (length, eventCount) per written record, for the trailer

	userHeader []byte
	closed     bool
}

// Open creates a Writer for pathTemplate, applying opts over DefaultConfig,
// and opens the first output file.
func Open(pathTemplate string, userHeader []byte, opts ...Option) (*Writer, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		cfg:        cfg,
		pathTmpl:   pathTemplate,
		nextRecNum: 1,
		userHeader: userHeader,
	}

	if err := w.openFile(); err != nil {
		return nil, err
	}

	w.cur = record.NewOutput(record.OutputConfig{
		MaxEventCount:        cfg.MaxEventCount,
		MaxUncompressedBytes: cfg.MaxRecordSize,
		Order:                w.order,
		CompressionType:      cfg.CompressionType,
	})
	w.cur.RecordNumber = w.nextRecNum

	return w, nil
}

func (w *Writer) openFile() error {
	path := renderFilename(w.pathTmpl, w.splitNum, w.cfg.StreamID)

	appending := false
	if w.cfg.Append {
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			appending = true
		}
	}

	flags := os.O_CREATE
	switch {
	case w.cfg.Append:
		flags |= os.O_RDWR
	case w.cfg.OverwriteOk:
		flags |= os.O_WRONLY | os.O_TRUNC
	default:
		flags |= os.O_WRONLY | os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", errs.ErrIoFailure, path, err)
	}
	w.file = f
	w.recordIndex = w.recordIndex[:0]

	if appending {
		return w.resumeExistingFile(f)
	}

	w.order = w.cfg.Order
	w.writtenBytes = 0

	return w.writeFileHeader()
}

// resumeExistingFile re-detects an existing file's byte order and seeks to
// its end so new records append after whatever it already holds, per
// §4.H's append-mode contract. The trailer index this session produces
// covers only the records it appends, a documented limitation of append
// mode: recovering the prior session's per-record lengths would require a
// full forceScanFile pass first.
func (w *Writer) resumeExistingFile(f *os.File) error {
	order, ok := detectExistingOrder(f)
	if !ok {
		return fmt.Errorf("%w: cannot detect byte order of existing file for append", errs.ErrBadMagic)
	}
	w.order = order

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("%w: seeking to end for append: %v", errs.ErrIoFailure, err)
	}
	w.writtenBytes = size

	return nil
}

func (w *Writer) writeFileHeader() error {
	fh := header.New(header.KindFile)
	fh.Order = w.order
	fh.RecordNumber = uint32(w.splitNum)
	fh.UserHeaderLength = uint32(len(w.userHeader))

	pad1 := bytebuf.Pad4(len(w.userHeader))
	total := header.LengthBytes + len(w.userHeader) + pad1
	buf := bytebuf.Allocate(total)
	buf.SetOrder(w.order)

	if err := fh.Write(buf, 0); err != nil {
		return err
	}
	if len(w.userHeader) > 0 {
		if err := buf.PutBytesAt(header.LengthBytes, w.userHeader); err != nil {
			return err
		}
	}

	n, err := w.file.Write(buf.Bytes())
	if err != nil {
		return fmt.Errorf("%w: writing file header: %v", errs.ErrIoFailure, err)
	}
	w.writtenBytes += int64(n)

	logging.For("writer").Info().Str("path", w.file.Name()).Msg("opened output file")

	return nil
}

// detectExistingOrder re-reads an existing file's header to recover its
// byte order for append mode, per §4.H.
func detectExistingOrder(f *os.File) (endian.EndianEngine, bool) {
	headerBytes := make([]byte, header.LengthBytes)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		return nil, false
	}
	h := &header.Header{}
	if err := h.Read(bytebuf.New(headerBytes), 0); err != nil {
		return nil, false
	}
	return h.Order, true
}

// AddEvent appends eventBytes to the current record, flushing and starting
// a new record first if the current one is full.
func (w *Writer) AddEvent(eventBytes []byte) error {
	if w.closed {
		return fmt.Errorf("%w: writer is closed", errs.ErrInvalidConfig)
	}

	if !w.cur.TryAddEvent(eventBytes) {
		if err := w.flushRecord(); err != nil {
			return err
		}
		if !w.cur.TryAddEvent(eventBytes) {
			return fmt.Errorf("%w: event of %d bytes exceeds record capacity", errs.ErrInvalidConfig, len(eventBytes))
		}
	}

	return nil
}

// WriteRecord writes an already-built record's bytes verbatim, bypassing
// the accumulation path. Used by callers that built a record.Output
// themselves (e.g. the ring writer's I/O goroutine).
func (w *Writer) WriteRecord(built []byte, eventCount int) error {
	n, err := w.file.Write(built)
	if err != nil {
		return fmt.Errorf("%w: writing record: %v", errs.ErrIoFailure, err)
	}
	w.writtenBytes += int64(n)
	w.recordIndex = append(w.recordIndex, header.IndexEntry{RecordLength: uint32(len(built)), EventCount: uint32(eventCount)})

	if w.cfg.SplitSize > 0 && w.writtenBytes >= w.cfg.SplitSize {
		return w.rotate()
	}

	return nil
}

func (w *Writer) flushRecord() error {
	if w.cur.Entries() == 0 {
		return nil
	}

	built, err := w.cur.Build()
	if err != nil {
		return err
	}
	entries := w.cur.Entries()

	if err := w.WriteRecord(built, entries); err != nil {
		return err
	}

	w.nextRecNum++
	w.cur.Reset()
	w.cur.RecordNumber = w.nextRecNum

	return nil
}

// rotate closes the current file with a trailer, advances the split
// counter, and opens the next file.
func (w *Writer) rotate() error {
	if err := w.writeTrailer(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIoFailure, err)
	}

	w.splitNum += w.cfg.SplitIncrement
	if w.splitNum == 0 {
		w.splitNum = w.cfg.SplitIncrement
	}
	if w.cfg.ResetRecordNumberOnSplit {
		w.nextRecNum = 1
		w.cur.RecordNumber = w.nextRecNum
	}

	return w.openFile()
}

// writeTrailer emits the final record per §4.H: isLastRecord set,
// generalHeaderType fileTrailer, zero payload, optional concatenated
// index, then rewrites the file header's trailerPosition and
// hasTrailerWithIndex bit.
func (w *Writer) writeTrailer() error {
	trailerPos := w.writtenBytes

	th := header.New(header.KindRecord)
	th.Order = w.order
	th.RecordNumber = w.nextRecNum
	th.Bits.IsLastRecord = true
	th.Bits.HeaderType = header.HeaderTypeHipoTrailer

	var idxBytes []byte
	if w.cfg.AddTrailerIndex {
		idxBytes = make([]byte, len(w.recordIndex)*8)
		buf := bytebuf.New(idxBytes)
		buf.SetOrder(w.order)
		if _, err := header.WriteIndex(buf, 0, w.recordIndex); err != nil {
			return err
		}
		th.IndexLength = uint32(len(idxBytes))
	}

	total := header.LengthBytes + len(idxBytes)
	buf := bytebuf.Allocate(total)
	buf.SetOrder(w.order)
	if err := th.Write(buf, 0); err != nil {
		return err
	}
	if len(idxBytes) > 0 {
		if err := buf.PutBytesAt(header.LengthBytes, idxBytes); err != nil {
			return err
		}
	}

	n, err := w.file.Write(buf.Bytes())
	if err != nil {
		return fmt.Errorf("%w: writing trailer: %v", errs.ErrIoFailure, err)
	}
	w.writtenBytes += int64(n)

	return w.rewriteFileHeaderTrailerPointer(trailerPos, len(idxBytes) > 0)
}

func (w *Writer) rewriteFileHeaderTrailerPointer(trailerPos int64, hasIndex bool) error {
	fh := header.New(header.KindFile)
	fh.Order = w.order
	fh.RecordNumber = uint32(w.splitNum)
	fh.UserHeaderLength = uint32(len(w.userHeader))
	fh.SetHasTrailerWithIndex(hasIndex)
	fh.SetTrailerPosition(uint64(trailerPos))

	buf := bytebuf.Allocate(header.LengthBytes)
	buf.SetOrder(w.order)
	if err := fh.Write(buf, 0); err != nil {
		return err
	}

	if _, err := w.file.WriteAt(buf.Bytes(), 0); err != nil {
		return fmt.Errorf("%w: rewriting file header: %v", errs.ErrIoFailure, err)
	}

	return nil
}

// Close flushes any pending record, writes the trailer, and closes the
// file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.flushRecord(); err != nil {
		return err
	}
	if err := w.writeTrailer(); err != nil {
		return err
	}
	w.cur.Release()

	return w.file.Close()
}
