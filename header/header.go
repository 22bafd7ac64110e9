// Package header implements the bit-exact 14-word record and file header
// codec (§3, §4.B): endian detection via the MAGIC word, derived
// length/padding fields, and the two 64-bit user registers.
package header

import (
	"encoding/binary"
	"fmt"

	"github.com/jlab-hipo/evio/bytebuf"
	"github.com/jlab-hipo/evio/compress"
	"github.com/jlab-hipo/evio/endian"
	"github.com/jlab-hipo/evio/errs"
)

// Header is the decoded form of a record header or file header. Both share
// the exact same 14-word wire layout; Kind only changes how a couple of
// fields are interpreted by callers (bit 10, UserRegister1).
type Header struct {
	Kind Kind

	RecordLength uint32 // words, inclusive of this header; derived on Write
	RecordNumber uint32 // or file number, for a KindFile header
	HeaderLength uint32 // always LengthWords
	Entries      uint32
	IndexLength  uint32 // bytes

	Bits BitInfo

	UserHeaderLength uint32 // bytes, unpadded

	UncompressedDataLength uint32 // bytes, unpadded
	CompressionType        compress.CompressionType
	CompressedDataLength   uint32 // bytes, unpadded; meaningful iff CompressionType != None

	UserRegister1 uint64 // or TrailerPosition, for a KindFile header
	UserRegister2 uint64

	Order endian.EndianEngine
}

// New creates a Header with sane defaults: version MinVersion, little-endian,
// header type matching kind.
func New(kind Kind) *Header {
	headerType := HeaderTypeHipoRecord
	if kind == KindFile {
		headerType = HeaderTypeHipoFile
	}

	return &Header{
		Kind:         kind,
		HeaderLength: LengthWords,
		Bits: BitInfo{
			Version:    MinVersion,
			HeaderType: headerType,
		},
		Order: endian.GetLittleEndianEngine(),
	}
}

// TrailerPosition returns UserRegister1 under its KindFile name.
func (h *Header) TrailerPosition() uint64 { return h.UserRegister1 }

// SetTrailerPosition sets UserRegister1 under its KindFile name.
func (h *Header) SetTrailerPosition(pos uint64) { h.UserRegister1 = pos }

// HasTrailerWithIndex reports bit 10 under its KindFile meaning.
func (h *Header) HasTrailerWithIndex() bool { return h.Bits.FirstEventOrTI }

// SetHasTrailerWithIndex sets bit 10 under its KindFile meaning.
func (h *Header) SetHasTrailerWithIndex(v bool) { h.Bits.FirstEventOrTI = v }

// HasFirstEvent reports bit 10 under its KindRecord meaning.
func (h *Header) HasFirstEvent() bool { return h.Bits.FirstEventOrTI }

// SetHasFirstEvent sets bit 10 under its KindRecord meaning.
func (h *Header) SetHasFirstEvent(v bool) { h.Bits.FirstEventOrTI = v }

// payloadBytes returns the unpadded byte length of whichever region is
// actually written to disk: the compressed payload if compression is
// active, else the raw uncompressed payload.
func (h *Header) payloadBytes() uint32 {
	if h.CompressionType != compress.None {
		return h.CompressedDataLength
	}
	return h.UncompressedDataLength
}

// recompute derives RecordLength and the three pad fields from the primary
// fields, per §4.B.
func (h *Header) recompute() {
	pad1 := bytebuf.Pad4(int(h.UserHeaderLength))
	pad2 := bytebuf.Pad4(int(h.CompressedDataLength))
	pad3 := bytebuf.Pad4(int(h.UncompressedDataLength))

	h.Bits.Pad1 = uint8(pad1)
	h.Bits.Pad2 = uint8(pad2)
	h.Bits.Pad3 = uint8(pad3)

	payloadPad := pad3
	if h.CompressionType != compress.None {
		payloadPad = pad2
	}

	indexWords := h.IndexLength / 4
	userHeaderWords := (h.UserHeaderLength + uint32(pad1)) / 4
	payloadWords := (h.payloadBytes() + uint32(payloadPad)) / 4

	h.HeaderLength = LengthWords
	h.RecordLength = LengthWords + indexWords + userHeaderWords + payloadWords
}

// compressedDataLengthWords is the value stored in the low 28 bits of word
// 9: the padded word length of whichever payload region actually went to
// disk, compressed or not (word9 always describes the on-disk payload,
// never the logical uncompressed length when compression is active).
func (h *Header) compressedDataLengthWords() uint32 {
	payload := h.payloadBytes()
	pad := bytebuf.Pad4(int(payload))
	return (payload + uint32(pad)) / 4
}

// Write serializes h into buf at byte offset pos, recomputing RecordLength
// and the bitInfo pad fields from the primary fields first.
func (h *Header) Write(buf *bytebuf.Buffer, pos int) error {
	h.recompute()
	buf.SetOrder(h.Order)

	type word struct {
		off int
		v   uint32
	}
	words := []word{
		{WordRecordLength, h.RecordLength},
		{WordRecordNumber, h.RecordNumber},
		{WordHeaderLength, h.HeaderLength},
		{WordEntries, h.Entries},
		{WordIndexLength, h.IndexLength},
		{WordBitInfoVersion, h.Bits.Encode()},
		{WordUserHeaderLength, h.UserHeaderLength},
		{WordMagic, Magic},
		{WordUncompressedDataLen, h.UncompressedDataLength},
		{WordCompressionAndLength, (uint32(h.CompressionType) << 28) | (h.compressedDataLengthWords() & 0x0FFFFFFF)},
	}

	for _, w := range words {
		if err := buf.PutU32At(pos+w.off*4, w.v); err != nil {
			return err
		}
	}

	if err := buf.PutU64At(pos+WordUserRegister1Hi*4, h.UserRegister1); err != nil {
		return err
	}
	if err := buf.PutU64At(pos+WordUserRegister2Hi*4, h.UserRegister2); err != nil {
		return err
	}

	return nil
}

// Read parses a header from buf at byte offset pos. It is endian-adaptive:
// it inspects the MAGIC word to detect the on-disk byte order, flipping
// buf's order if necessary, before reading any other field.
func (h *Header) Read(buf *bytebuf.Buffer, pos int) error {
	magicBytes, err := buf.GetBytesAt(pos+WordMagic*4, 4)
	if err != nil {
		return err
	}

	rawLE := binary.LittleEndian.Uint32(magicBytes)

	switch {
	case rawLE == Magic:
		buf.SetOrder(endian.GetLittleEndianEngine())
	case endian.SwapU32(rawLE) == Magic:
		buf.SetOrder(endian.GetBigEndianEngine())
	default:
		return fmt.Errorf("%w: word 7 = 0x%08x", errs.ErrBadMagic, rawLE)
	}

	h.Order = buf.Order()

	bitInfoWord, err := buf.GetU32At(pos + WordBitInfoVersion*4)
	if err != nil {
		return err
	}
	h.Bits = DecodeBitInfo(bitInfoWord)
	if h.Bits.Version < MinVersion {
		return fmt.Errorf("%w: version %d", errs.ErrUnsupportedVersion, h.Bits.Version)
	}

	get := func(off int) (uint32, error) { return buf.GetU32At(pos + off*4) }

	if h.RecordLength, err = get(WordRecordLength); err != nil {
		return err
	}
	if h.RecordNumber, err = get(WordRecordNumber); err != nil {
		return err
	}
	if h.HeaderLength, err = get(WordHeaderLength); err != nil {
		return err
	}
	if h.Entries, err = get(WordEntries); err != nil {
		return err
	}
	if h.IndexLength, err = get(WordIndexLength); err != nil {
		return err
	}
	if h.UserHeaderLength, err = get(WordUserHeaderLength); err != nil {
		return err
	}
	if h.UncompressedDataLength, err = get(WordUncompressedDataLen); err != nil {
		return err
	}

	compWord, err := get(WordCompressionAndLength)
	if err != nil {
		return err
	}
	h.CompressionType = compress.CompressionType(compWord >> 28)
	compressedWords := compWord & 0x0FFFFFFF
	h.CompressedDataLength = compressedWords*4 - uint32(h.Bits.Pad2)

	if h.UserRegister1, err = buf.GetU64At(pos + WordUserRegister1Hi*4); err != nil {
		return err
	}
	if h.UserRegister2, err = buf.GetU64At(pos + WordUserRegister2Hi*4); err != nil {
		return err
	}

	return nil
}

// Padding returns the (pad1, pad2, pad3) byte counts: padding after the
// user header, the compressed payload, and the uncompressed payload.
func (h *Header) Padding() (pad1, pad2, pad3 int) {
	return int(h.Bits.Pad1), int(h.Bits.Pad2), int(h.Bits.Pad3)
}

// String renders a short human-readable summary, following the teacher
// corpus's habit of giving wire structs a debug-friendly String method.
func (h *Header) String() string {
	kind := "record"
	if h.Kind == KindFile {
		kind = "file"
	}

	return fmt.Sprintf(
		"header{kind=%s len=%dw num=%d entries=%d idxLen=%d userHdrLen=%d uncompLen=%d comp=%s compLen=%d}",
		kind, h.RecordLength, h.RecordNumber, h.Entries, h.IndexLength,
		h.UserHeaderLength, h.UncompressedDataLength, h.CompressionType, h.CompressedDataLength,
	)
}
