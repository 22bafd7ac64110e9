package header

// Bit positions within word 5 (bitInfo ∥ version). Version occupies the low
// 8 bits; everything else packs into the high 24.
const (
	bitHasDictionary  = 8
	bitIsLastRecord   = 9
	bitFirstEventOrTI = 10 // hasFirstEvent (record) / hasTrailerWithIndex (file)
	bitPad1Lo         = 20
	bitPad2Lo         = 22
	bitPad3Lo         = 24
	bitHeaderTypeLo   = 28

	padBitsMask = 0x3
)

// BitInfo is the decoded form of word 5's high 24 bits, plus the version
// field from its low 8 bits.
type BitInfo struct {
	Version        uint8
	HasDictionary  bool
	IsLastRecord   bool
	FirstEventOrTI bool // hasFirstEvent for a record header, hasTrailerWithIndex for a file header
	Pad1           uint8 // 0-3 bytes of padding on the user-header region
	Pad2           uint8 // 0-3 bytes of padding on the compressed-data region
	Pad3           uint8 // 0-3 bytes of padding on the uncompressed-data region
	HeaderType     GeneralHeaderType
}

// DecodeBitInfo unpacks word 5 into a BitInfo.
func DecodeBitInfo(word uint32) BitInfo {
	return BitInfo{
		Version:        uint8(word & 0xFF),
		HasDictionary:  word&(1<<bitHasDictionary) != 0,
		IsLastRecord:   word&(1<<bitIsLastRecord) != 0,
		FirstEventOrTI: word&(1<<bitFirstEventOrTI) != 0,
		Pad1:           uint8((word >> bitPad1Lo) & padBitsMask),
		Pad2:           uint8((word >> bitPad2Lo) & padBitsMask),
		Pad3:           uint8((word >> bitPad3Lo) & padBitsMask),
		HeaderType:     GeneralHeaderType((word >> bitHeaderTypeLo) & 0xF),
	}
}

// Encode packs the BitInfo back into word 5.
func (b BitInfo) Encode() uint32 {
	word := uint32(b.Version)

	if b.HasDictionary {
		word |= 1 << bitHasDictionary
	}
	if b.IsLastRecord {
		word |= 1 << bitIsLastRecord
	}
	if b.FirstEventOrTI {
		word |= 1 << bitFirstEventOrTI
	}

	word |= uint32(b.Pad1&padBitsMask) << bitPad1Lo
	word |= uint32(b.Pad2&padBitsMask) << bitPad2Lo
	word |= uint32(b.Pad3&padBitsMask) << bitPad3Lo
	word |= uint32(b.HeaderType&0xF) << bitHeaderTypeLo

	return word
}
