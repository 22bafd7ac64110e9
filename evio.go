// Package evio provides top-level convenience entry points over the
// reader and writer packages. Most programs only need Open, Create, and
// CreateEventWriter; for split files, ring-buffered multithread
// compression, or fine-grained reader/writer options, use the reader and
// writer packages directly.
package evio

import (
	"github.com/jlab-hipo/evio/reader"
	"github.com/jlab-hipo/evio/writer"
)

// Open opens path for reading, building its event index from whichever
// source is fastest (trailer index, in-file index, or a full scan). See
// reader.Config for options such as ForceScan and
// CheckRecordNumberSequence.
//
// Example:
//
//	r, err := evio.Open("run123.evio", reader.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	for i := 0; i < r.EventCount(); i++ {
//	    event, err := r.GetEvent(i)
//	    ...
//	}
func Open(path string, cfg reader.Config) (*reader.FileReader, error) {
	return reader.Open(path, cfg)
}

// Create opens pathTemplate for single-threaded writing with the given
// options, applied over writer.DefaultConfig. userHeader is written
// verbatim into the file header; use CreateEventWriter instead when it
// should carry a dictionary and/or first event.
//
// pathTemplate may contain a %d or %x specifier for the split number;
// see writer.WithSplitSize.
//
// Example:
//
//	w, err := evio.Create("run123.evio", nil, writer.WithCompression(compress.Gzip))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.AddEvent(eventBytes); err != nil {
//	    log.Fatal(err)
//	}
func Create(pathTemplate string, userHeader []byte, opts ...writer.Option) (*writer.Writer, error) {
	return writer.Open(pathTemplate, userHeader, opts...)
}

// CreateRingWriter opens pathTemplate for ring-buffered multithread
// writing: one producer goroutine (via AddEvent), writer.Config.CompThreads
// compressor goroutines, and one writer goroutine draining strictly in
// submission order. See writer.WithRing to size the ring and thread
// count.
func CreateRingWriter(pathTemplate string, userHeader []byte, opts ...writer.Option) (*writer.RingWriter, error) {
	return writer.NewRingWriter(pathTemplate, userHeader, opts...)
}

// CreateEventWriter opens a single-threaded event-level writer that also
// manages a dictionary and/or first event, written into the user header
// of every split so each split file remains independently readable.
// Either argument may be nil.
func CreateEventWriter(pathTemplate string, dictionary, firstEvent []byte, opts ...writer.Option) (*writer.EventWriter, error) {
	return writer.OpenEventWriter(pathTemplate, dictionary, firstEvent, opts...)
}

// CreateEventWriterRing is CreateEventWriter backed by the ring writer
// instead of the single-threaded writer.
func CreateEventWriterRing(pathTemplate string, dictionary, firstEvent []byte, opts ...writer.Option) (*writer.EventWriter, error) {
	return writer.OpenEventWriterRing(pathTemplate, dictionary, firstEvent, opts...)
}
