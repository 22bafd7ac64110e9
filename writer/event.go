package writer

import (
	"fmt"

	"github.com/jlab-hipo/evio/bytebuf"
	"github.com/jlab-hipo/evio/errs"
	"github.com/jlab-hipo/evio/node"
	"github.com/jlab-hipo/evio/record"
)

// singleRecordWriter is the narrow surface both Writer and RingWriter
// satisfy, letting EventWriter wrap either backend.
type singleRecordWriter interface {
	AddEvent(eventBytes []byte) error
	Close() error
}

// EventWriter implements §4.J: a superset of the single-threaded writer
// (or, when opened with OpenEventWriterRing, the ring writer) that accepts events as raw bytes, a
// bytebuf.Buffer, or an already-scanned node.EvioNode, and that manages a
// per-split "first event" and XML dictionary written into the top of every
// split file's user header so each split remains readable standalone.
type EventWriter struct {
	backend singleRecordWriter

	dictionary []byte
	firstEvent []byte
}

// buildUserHeaderRecord builds the piece needed to (re)build a split's
// user header: the dictionary and first event, framed as a two-event
// record in the given byte order.
func buildUserHeaderRecord(dictionary, firstEvent []byte, cfg Config) ([]byte, error) {
	if len(dictionary) == 0 && len(firstEvent) == 0 {
		return nil, nil
	}

	out := record.NewOutput(record.OutputConfig{
		MaxEventCount:        2,
		MaxUncompressedBytes: len(dictionary) + len(firstEvent) + 64,
		Order:                cfg.Order,
	})

	if len(dictionary) > 0 {
		if !out.TryAddEvent(dictionary) {
			return nil, fmt.Errorf("%w: dictionary too large for user header", errs.ErrInvalidConfig)
		}
	}
	if len(firstEvent) > 0 {
		if !out.TryAddEvent(firstEvent) {
			return nil, fmt.Errorf("%w: first event too large for user header", errs.ErrInvalidConfig)
		}
	}

	return out.Build()
}

// OpenEventWriter opens a single-threaded EventWriter. dictionary (XML,
// already UTF-8 bytes) and firstEvent (evio bank bytes) may be nil.
func OpenEventWriter(pathTemplate string, dictionary, firstEvent []byte, opts ...Option) (*EventWriter, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	userHeader, err := buildUserHeaderRecord(dictionary, firstEvent, cfg)
	if err != nil {
		return nil, err
	}

	w, err := Open(pathTemplate, userHeader, opts...)
	if err != nil {
		return nil, err
	}

	return &EventWriter{backend: w, dictionary: dictionary, firstEvent: firstEvent}, nil
}

// OpenEventWriterRing opens a ring-backed EventWriter.
func OpenEventWriterRing(pathTemplate string, dictionary, firstEvent []byte, opts ...Option) (*EventWriter, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	userHeader, err := buildUserHeaderRecord(dictionary, firstEvent, cfg)
	if err != nil {
		return nil, err
	}

	rw, err := NewRingWriter(pathTemplate, userHeader, opts...)
	if err != nil {
		return nil, err
	}

	return &EventWriter{backend: rw, dictionary: dictionary, firstEvent: firstEvent}, nil
}

// AddEventBytes writes a serialised bank's raw bytes.
func (w *EventWriter) AddEventBytes(eventBytes []byte) error {
	return w.backend.AddEvent(eventBytes)
}

// AddEventBuffer writes the remaining bytes of buf between its current
// position and limit.
func (w *EventWriter) AddEventBuffer(buf *bytebuf.Buffer) error {
	data, err := buf.GetBytesAt(buf.Pos(), buf.Remaining())
	if err != nil {
		return err
	}
	return w.backend.AddEvent(data)
}

// AddEventNode writes the bytes an already-scanned node.EvioNode spans.
func (w *EventWriter) AddEventNode(n *node.EvioNode) error {
	data, err := n.Bytes()
	if err != nil {
		return err
	}
	return w.backend.AddEvent(data)
}

// Close flushes and closes the underlying backend.
func (w *EventWriter) Close() error {
	return w.backend.Close()
}
