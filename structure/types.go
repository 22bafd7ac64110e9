// Package structure packs and unpacks the bank, segment, and tagsegment
// headers of an evio event tree (§3), and names the data-type codes that
// classify their payloads. It has no notion of a buffer's position or
// owning record; that lives in the node package above it.
package structure

// Kind distinguishes the three evio container header shapes, which differ
// in header width and tag/num bit widths. Each shape has its own struct
// (Bank, Segment, Tagsegment) with a Decode function, an Encode method and
// HeaderLengthWords; callers switch on Kind to pick one.
type Kind uint8

const (
	KindBank Kind = iota
	KindSegment
	KindTagsegment
)

// DataType is the 6-bit (bank/segment) or 4-bit (tagsegment) payload type
// code carried in every structure header.
type DataType uint8

const (
	Unknown32      DataType = 0
	Uint32         DataType = 1
	Float32        DataType = 2
	Charstar8      DataType = 3
	Short16        DataType = 4
	Ushort16       DataType = 5
	Char8          DataType = 6
	Uchar8         DataType = 7
	Double64       DataType = 8
	Long64         DataType = 9
	Ulong64        DataType = 10
	Int32          DataType = 11
	TypeTagsegment DataType = 12
	TypeSegment    DataType = 13
	TypeBank       DataType = 14
	Composite      DataType = 15
	TypeBankAlt    DataType = 16
	TypeSegmentAlt DataType = 32
)

// IsContainer reports whether a data type is itself a container of child
// structures (bank, segment, or tagsegment), under either of its two valid
// codes for bank/segment.
func (t DataType) IsContainer() bool {
	switch t {
	case TypeBank, TypeBankAlt, TypeSegment, TypeSegmentAlt, TypeTagsegment:
		return true
	default:
		return false
	}
}

// ElementSize returns the fixed element size in bytes for primitive array
// types, or 0 for variable-length/container/composite types.
func (t DataType) ElementSize() int {
	switch t {
	case Char8, Uchar8, Charstar8:
		return 1
	case Short16, Ushort16:
		return 2
	case Uint32, Float32, Int32, Unknown32:
		return 4
	case Double64, Long64, Ulong64:
		return 8
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case KindBank:
		return "bank"
	case KindSegment:
		return "segment"
	case KindTagsegment:
		return "tagsegment"
	default:
		return "unknown"
	}
}
