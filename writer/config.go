// Package writer implements the single-threaded writer (§4.H), the
// ring-based multithread writer (§4.I), and the event-level writer (§4.J).
package writer

import (
	"fmt"

	"github.com/jlab-hipo/evio/compress"
	"github.com/jlab-hipo/evio/endian"
	"github.com/jlab-hipo/evio/errs"
	"github.com/jlab-hipo/evio/internal/options"
)

// Config enumerates the writer options named in §6.
type Config struct {
	Order           endian.EndianEngine
	CompressionType compress.CompressionType

	MaxRecordSize int // bytes, 0 = default ~8 MiB
	MaxEventCount int // per record, 0 = default ~1M

	SplitSize int64 // bytes, 0 = no split

	RunNumber      uint32
	StreamID       int
	StreamCount    int
	SplitNumber    int
	SplitIncrement int

	CompThreads int
	RingSize    int

	Append         bool
	OverwriteOk    bool
	AddTrailerIndex bool

	// ResetRecordNumberOnSplit controls whether record numbers restart at
	// 1 in each split file (true) or continue monotonically across
	// splits (false, the default); see DESIGN.md's resolution of the
	// record-numbering Open Question.
	ResetRecordNumberOnSplit bool
}

// Option configures a Config, following the generic functional-options
// pattern shared across this module.
type Option = options.Option[*Config]

// DefaultConfig returns the writer's defaults: little-endian, no
// compression, ~8MiB/1M-event records, no splitting, 2 compressor threads,
// a 16-slot ring.
func DefaultConfig() Config {
	return Config{
		Order:           endian.GetLittleEndianEngine(),
		CompressionType: compress.None,
		MaxRecordSize:   8 * 1024 * 1024,
		MaxEventCount:   1_000_000,
		CompThreads:     2,
		RingSize:        16,
		StreamCount:     1,
		SplitIncrement:  1,
		AddTrailerIndex: true,
	}
}

// WithOrder sets the output byte order.
func WithOrder(order endian.EndianEngine) Option {
	return options.NoError(func(c *Config) { c.Order = order })
}

// WithCompression sets the compression type applied to each record.
func WithCompression(t compress.CompressionType) Option {
	return options.NoError(func(c *Config) { c.CompressionType = t })
}

// WithMaxRecordSize sets the uncompressed-byte cap per record.
func WithMaxRecordSize(n int) Option {
	return options.NoError(func(c *Config) { c.MaxRecordSize = n })
}

// WithMaxEventCount sets the event-count cap per record.
func WithMaxEventCount(n int) Option {
	return options.NoError(func(c *Config) { c.MaxEventCount = n })
}

// WithSplitSize sets the byte threshold that triggers file rotation; 0
// disables splitting.
func WithSplitSize(n int64) Option {
	return options.NoError(func(c *Config) { c.SplitSize = n })
}

// WithRunParams sets the run/stream identifiers. Of these, only streamID
// appears in rendered filenames, in the suffix appended to a template that
// has no specifier.
func WithRunParams(runNumber uint32, streamID, streamCount int) Option {
	return options.NoError(func(c *Config) {
		c.RunNumber = runNumber
		c.StreamID = streamID
		c.StreamCount = streamCount
	})
}

// WithRing sets the compressor thread count and ring size for the
// multithread writer.
func WithRing(compThreads, ringSize int) Option {
	return options.New(func(c *Config) error {
		c.CompThreads = compThreads
		c.RingSize = ringSize
		return nil
	})
}

// WithAppend opens an existing file in append mode, re-detecting its byte
// order. Record numbering starts again at 1; the existing file's record
// numbers are not read.
func WithAppend(v bool) Option {
	return options.NoError(func(c *Config) { c.Append = v })
}

// WithOverwriteOk permits truncating an existing file when not appending.
func WithOverwriteOk(v bool) Option {
	return options.NoError(func(c *Config) { c.OverwriteOk = v })
}

// WithTrailerIndex controls whether the close-time trailer record carries a
// concatenated (length, eventCount) index.
func WithTrailerIndex(v bool) Option {
	return options.NoError(func(c *Config) { c.AddTrailerIndex = v })
}

// WithResetRecordNumberOnSplit selects whether record numbers restart at 1
// in each split file.
func WithResetRecordNumberOnSplit(v bool) Option {
	return options.NoError(func(c *Config) { c.ResetRecordNumberOnSplit = v })
}

// NewConfig builds a Config from DefaultConfig plus opts, validating the
// ring parameters per §7's InvalidConfig.
func NewConfig(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return Config{}, err
	}

	if cfg.MaxRecordSize == 0 {
		cfg.MaxRecordSize = DefaultConfig().MaxRecordSize
	}
	if cfg.MaxEventCount == 0 {
		cfg.MaxEventCount = DefaultConfig().MaxEventCount
	}

	if cfg.RingSize <= 0 || cfg.RingSize&(cfg.RingSize-1) != 0 {
		return Config{}, fmt.Errorf("%w: ring size %d is not a power of two", errs.ErrInvalidConfig, cfg.RingSize)
	}
	if cfg.CompThreads < 1 || cfg.CompThreads > cfg.RingSize-2 {
		return Config{}, fmt.Errorf("%w: compThreads %d must be in [1, ringSize-2=%d]", errs.ErrInvalidConfig, cfg.CompThreads, cfg.RingSize-2)
	}

	return cfg, nil
}
