// Package errs defines the sentinel error values returned across the evio
// module. Callers should compare with errors.Is, never by string matching.
package errs

import "errors"

var (
	// ErrBadMagic is returned when a header's magic word is neither
	// MAGIC nor its byte-swapped form.
	ErrBadMagic = errors.New("evio: bad magic word")

	// ErrUnsupportedVersion is returned when a header's version field is
	// below the minimum supported version 6.
	ErrUnsupportedVersion = errors.New("evio: unsupported version")

	// ErrTruncated is returned when a claimed length overruns the
	// available source bytes.
	ErrTruncated = errors.New("evio: truncated data")

	// ErrBadLength is returned when a bank/segment/tagsegment header's
	// length is invalid or inconsistent with its parent.
	ErrBadLength = errors.New("evio: bad structure length")

	// ErrBadSequence is returned when a record number does not match the
	// expected sequence and sequence checking is enabled.
	ErrBadSequence = errors.New("evio: record number out of sequence")

	// ErrObsoleteNode is returned when an EvioNode handle is used after a
	// mutation invalidated it.
	ErrObsoleteNode = errors.New("evio: node is obsolete")

	// ErrOutOfBounds is returned when a buffer accessor would read or
	// write past its limit or capacity.
	ErrOutOfBounds = errors.New("evio: access out of bounds")

	// ErrCodecFailure is returned when a compressor or decompressor
	// fails.
	ErrCodecFailure = errors.New("evio: codec failure")

	// ErrIoFailure is returned when underlying file I/O fails.
	ErrIoFailure = errors.New("evio: io failure")

	// ErrInvalidConfig is returned for invalid writer/reader
	// configuration, e.g. compThreads >= ringSize or a non-power-of-two
	// ring size.
	ErrInvalidConfig = errors.New("evio: invalid configuration")
)
