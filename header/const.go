package header

// Word layout, in 32-bit words, shared by every record header and file
// header (§3, §4.B). File headers reuse this exact layout: bit 10 of word 5
// means hasFirstEvent for a record header and hasTrailerWithIndex for a
// file header, and UserRegister1 holds the file header's trailerPosition.
const (
	WordRecordLength          = 0
	WordRecordNumber          = 1 // file number, for a file header
	WordHeaderLength          = 2
	WordEntries               = 3
	WordIndexLength           = 4
	WordBitInfoVersion        = 5
	WordUserHeaderLength      = 6
	WordMagic                 = 7
	WordUncompressedDataLen   = 8
	WordCompressionAndLength  = 9
	WordUserRegister1Hi       = 10
	WordUserRegister2Hi       = 12

	// LengthWords is the fixed header size in 32-bit words.
	LengthWords = 14
	// LengthBytes is the fixed header size in bytes.
	LengthBytes = LengthWords * 4

	// Magic is the canonical little-endian-order magic word; reading it
	// byte-swapped is the oracle for detecting big-endian files.
	Magic uint32 = 0xC0DA0100

	// MinVersion is the lowest header version this codec accepts.
	MinVersion = 6
)

// Kind distinguishes a record header from a file header; both share the
// same 14-word wire layout (§4.B) but interpret bit 10 and the trailer
// position register differently.
type Kind uint8

const (
	// KindRecord marks an ordinary record header.
	KindRecord Kind = iota
	// KindFile marks the file header at the start of the file.
	KindFile
)

// GeneralHeaderType occupies bits 28-31 of word 5, distinguishing the
// structural role of the record this header belongs to.
type GeneralHeaderType uint8

const (
	HeaderTypeEvioRecord  GeneralHeaderType = 0
	HeaderTypeEvioFile    GeneralHeaderType = 1
	HeaderTypeHipoRecord  GeneralHeaderType = 2
	HeaderTypeHipoFile    GeneralHeaderType = 3
	HeaderTypeEvioTrailer GeneralHeaderType = 4
	HeaderTypeHipoTrailer GeneralHeaderType = 5
)
