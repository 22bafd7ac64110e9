package structure

// Bank is the decoded two-word bank header (§3): W0 = length-1 (words,
// excluding W0 itself); W1 = tag:16 ∥ pad:2 ∥ type:6 ∥ num:8.
type Bank struct {
	Length uint32 // words, excluding W0, i.e. W0's raw value
	Tag    uint16
	Pad    uint8
	Type   DataType
	Num    uint8
}

// HeaderLengthWords is always 2 for a bank.
func (Bank) HeaderLengthWords() int { return 2 }

// DecodeBank unpacks a bank's two header words.
func DecodeBank(w0, w1 uint32) Bank {
	return Bank{
		Length: w0,
		Tag:    uint16(w1 >> 16),
		Pad:    uint8((w1 >> 14) & 0x3),
		Type:   DataType((w1 >> 8) & 0x3F),
		Num:    uint8(w1 & 0xFF),
	}
}

// Encode packs the bank header back into its two words.
func (b Bank) Encode() (w0, w1 uint32) {
	w1 = uint32(b.Tag)<<16 | uint32(b.Pad&0x3)<<14 | uint32(b.Type&0x3F)<<8 | uint32(b.Num)
	return b.Length, w1
}

// Segment is the decoded one-word segment header: tag:8 ∥ pad:2 ∥ type:6 ∥
// length:16.
type Segment struct {
	Tag    uint8
	Pad    uint8
	Type   DataType
	Length uint16 // words, excluding this header word
}

// HeaderLengthWords is always 1 for a segment.
func (Segment) HeaderLengthWords() int { return 1 }

// DecodeSegment unpacks a segment's single header word.
func DecodeSegment(w uint32) Segment {
	return Segment{
		Tag:    uint8(w >> 24),
		Pad:    uint8((w >> 22) & 0x3),
		Type:   DataType((w >> 16) & 0x3F),
		Length: uint16(w),
	}
}

// Encode packs the segment header back into one word.
func (s Segment) Encode() uint32 {
	return uint32(s.Tag)<<24 | uint32(s.Pad&0x3)<<22 | uint32(s.Type&0x3F)<<16 | uint32(s.Length)
}

// Tagsegment is the decoded one-word tagsegment header: tag:12 ∥ type:4 ∥
// length:16.
type Tagsegment struct {
	Tag    uint16
	Type   DataType
	Length uint16
}

// HeaderLengthWords is always 1 for a tagsegment.
func (Tagsegment) HeaderLengthWords() int { return 1 }

// DecodeTagsegment unpacks a tagsegment's single header word.
func DecodeTagsegment(w uint32) Tagsegment {
	return Tagsegment{
		Tag:    uint16(w >> 20),
		Type:   DataType((w >> 16) & 0xF),
		Length: uint16(w),
	}
}

// Encode packs the tagsegment header back into one word.
func (ts Tagsegment) Encode() uint32 {
	return uint32(ts.Tag&0xFFF)<<20 | uint32(ts.Type&0xF)<<16 | uint32(ts.Length)
}
