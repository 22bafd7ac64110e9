package swap

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/jlab-hipo/evio/bytebuf"
	"github.com/jlab-hipo/evio/errs"
	"github.com/jlab-hipo/evio/structure"
)

// FormatItem is one element of a parsed Hall B composite format string: a
// repeat count and a type code, or a nested parenthesized group.
type FormatItem struct {
	Count  int // repeat count; 0 when RuntimeWidth is set, or for an unprefixed group (runs once)
	Type   byte
	Nested []FormatItem

	// RuntimeWidth is the byte width of the N/n marker word that precedes
	// this item in the data stream (4 for 'N', 2 for 'n'), or 0 if Count
	// is a literal. Applies equally whether this item is a nested group
	// or a single type char: the marker word is read from the data,
	// swapped in place, and its decoded value drives the repeat count.
	RuntimeWidth int
}

// InstructionStream is the flattened, parsed form of a composite format
// string, ready to drive a data swap without re-parsing on every element.
type InstructionStream []FormatItem

// elementSize returns the byte width of a format character's element, or 0
// for characters with no fixed width (container markers, runtime counts).
func elementSize(c byte) int {
	switch c {
	case 'c', 'C', 'a':
		return 1
	case 's', 'S':
		return 2
	case 'i', 'I', 'f', 'm':
		return 4
	case 'l', 'L', 'd':
		return 8
	default:
		return 0
	}
}

// ParseFormat parses a Hall B composite format string such as "2(i,f)" or
// "N(d)" into an InstructionStream. Supported type characters: i/I (int32),
// f (float32), d (double64), s/S (short16), l/L (long64), c/C (char8), a
// (char8 string), and m, which is handled as a 4-byte element. Parenthesized
// groups may nest and may be prefixed by a literal repeat count or by N/n
// to mean "read the count from the data stream at that point" (N = int32,
// n = int16); m is not recognised as a count prefix.
func ParseFormat(s string) (InstructionStream, error) {
	items, rest, err := parseItems(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, fmt.Errorf("%w: trailing composite format %q", errs.ErrBadLength, rest)
	}

	return InstructionStream(items), nil
}

func parseItems(s string) ([]FormatItem, string, error) {
	var items []FormatItem

	for len(s) > 0 {
		if s[0] == ')' {
			break
		}
		if s[0] == ',' {
			s = s[1:]
			continue
		}

		count, rest, runtimeWidth := parseCount(s)
		s = rest

		if len(s) == 0 {
			return nil, "", fmt.Errorf("%w: truncated composite format", errs.ErrBadLength)
		}

		if s[0] == '(' {
			nested, after, err := parseItems(s[1:])
			if err != nil {
				return nil, "", err
			}
			if len(after) == 0 || after[0] != ')' {
				return nil, "", fmt.Errorf("%w: unbalanced parens in composite format", errs.ErrBadLength)
			}
			s = after[1:]

			item := FormatItem{Count: count, Nested: nested}
			if runtimeWidth != 0 {
				item.Count = 0
				item.RuntimeWidth = runtimeWidth
			}
			items = append(items, item)
			continue
		}

		typeChar := s[0]
		if elementSize(typeChar) == 0 && typeChar != 'N' && typeChar != 'n' {
			return nil, "", fmt.Errorf("%w: unknown composite format char %q", errs.ErrBadLength, typeChar)
		}
		s = s[1:]

		n := count
		if n == 0 && runtimeWidth == 0 {
			n = 1
		}
		items = append(items, FormatItem{Count: n, Type: typeChar, RuntimeWidth: runtimeWidth})
	}

	return items, s, nil
}

// parseCount reads a leading decimal literal, or detects one of the
// runtime-count markers N/n standing alone before a following '(' or type
// char. Returns the parsed count (0 if runtime), the remaining string, and
// the runtime marker's byte width (4 for 'N', 2 for 'n', 0 if the count is
// a literal).
func parseCount(s string) (int, string, int) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 {
		n, _ := strconv.Atoi(s[:i])
		return n, s[i:], 0
	}

	if len(s) > 0 && s[0] == 'N' {
		return 0, s[1:], 4
	}
	if len(s) > 0 && s[0] == 'n' {
		return 0, s[1:], 2
	}

	return 0, s, 0
}

// swapComposite implements §4.C's composite path: the body starts with a
// tagsegment carrying the format string (copied/swapped as a tagsegment,
// its char payload untouched by byte order), followed by a data bank whose
// body is swapped word-by-word according to the parsed format.
func swapComposite(src *bytebuf.Buffer, srcPos, bodyBytes int, toLocal bool, dst *bytebuf.Buffer, dstPos int) error {
	fmtWord, err := rawWord(src, srcPos)
	if err != nil {
		return err
	}
	fmtTS := structure.DecodeTagsegment(logical(fmtWord, toLocal))
	fmtBytes := int(fmtTS.Length) * 4

	tgt, tgtPos := target(src, dst, srcPos, dstPos)
	if err := writeSwappedWord(tgt, tgtPos, fmtWord); err != nil {
		return err
	}

	rawFmt, err := src.GetBytesAt(srcPos+4, fmtBytes)
	if err != nil {
		return err
	}
	formatString := strings.TrimRight(string(rawFmt), "\x00")
	if err := copyBytes(src, srcPos+4, fmtBytes, dst, tgtPos+4); err != nil {
		return err
	}

	stream, err := ParseFormat(formatString)
	if err != nil {
		return err
	}

	dataPos := srcPos + 4 + fmtBytes
	dataTgtPos := tgtPos + 4 + fmtBytes

	bankW0, err := rawWord(src, dataPos)
	if err != nil {
		return err
	}
	bankW1, err := rawWord(src, dataPos+4)
	if err != nil {
		return err
	}
	bank := structure.DecodeBank(logical(bankW0, toLocal), logical(bankW1, toLocal))

	if err := writeSwappedWord(tgt, dataTgtPos, bankW0); err != nil {
		return err
	}
	if err := writeSwappedWord(tgt, dataTgtPos+4, bankW1); err != nil {
		return err
	}

	dataBodyBytes := int(bank.Length-1) * 4
	cursor := &compositeCursor{
		src: src, dst: dst,
		srcPos: dataPos + 8, dstPos: dataTgtPos + 8,
		limit: dataPos + 8 + dataBodyBytes,
	}

	if err := swapStream(cursor, stream, toLocal); err != nil {
		return err
	}
	if cursor.srcPos != cursor.limit {
		return fmt.Errorf("%w: composite format consumed %d bytes of %d-byte data bank", errs.ErrBadLength, cursor.srcPos-(dataPos+8), dataBodyBytes)
	}

	consumed := srcPos + 4 + fmtBytes + 8 + dataBodyBytes - srcPos
	if consumed != bodyBytes {
		return fmt.Errorf("%w: composite body size mismatch", errs.ErrBadLength)
	}

	return nil
}

// compositeCursor tracks the read/write position pair while a data-driven
// swap walks the composite bank body; src and dst advance in lockstep
// (dst == nil means in place).
type compositeCursor struct {
	src, dst       *bytebuf.Buffer
	srcPos, dstPos int
	limit          int
}

// readRuntimeCount reads an N/n marker word of the given byte width (4 or
// 2) at the cursor, swaps it into the target buffer in place, advances the
// cursor past it, and returns its decoded value to drive the repeat count
// of the item it prefixes.
func (c *compositeCursor) readRuntimeCount(width int, toLocal bool) (int, error) {
	if c.srcPos+width > c.limit {
		return 0, fmt.Errorf("%w: composite data exhausted", errs.ErrTruncated)
	}

	raw, err := c.src.GetBytesAt(c.srcPos, width)
	if err != nil {
		return 0, err
	}

	var value uint32
	switch width {
	case 2:
		v := binary.LittleEndian.Uint16(raw)
		if toLocal {
			v = swap16(v)
		}
		value = uint32(v)
	default:
		v := binary.LittleEndian.Uint32(raw)
		value = logical(v, toLocal)
	}

	if err := swapStrided(c.src, c.srcPos, width, width, c.dst, c.dstPos); err != nil {
		return 0, err
	}

	c.srcPos += width
	c.dstPos += width

	return int(value), nil
}

// advanceElement swaps (or copies) one element of the given format
// character at the cursor and advances both positions by its width.
func (c *compositeCursor) advanceElement(typeChar byte) error {
	size := elementSize(typeChar)
	if size == 0 {
		size = 4
	}

	switch size {
	case 1:
		if err := copyBytes(c.src, c.srcPos, 1, c.dst, c.dstPos); err != nil {
			return err
		}
	default:
		if err := swapStrided(c.src, c.srcPos, size, size, c.dst, c.dstPos); err != nil {
			return err
		}
	}

	c.srcPos += size
	c.dstPos += size
	return nil
}

// swapStream walks an InstructionStream once against the data starting at
// the cursor, looping the whole stream until the cursor exhausts the data
// region (the Hall B convention for a format shorter than its data).
func swapStream(c *compositeCursor, stream InstructionStream, toLocal bool) error {
	for c.srcPos < c.limit {
		if err := swapItems(c, stream, toLocal); err != nil {
			return err
		}
	}
	return nil
}

func swapItems(c *compositeCursor, items []FormatItem, toLocal bool) error {
	for _, item := range items {
		count := item.Count

		if item.RuntimeWidth != 0 {
			// N/n marker: its word lives in the data stream immediately
			// before the item it prefixes (group or single element), and
			// its decoded value is that item's repeat count.
			n, err := c.readRuntimeCount(item.RuntimeWidth, toLocal)
			if err != nil {
				return err
			}
			count = n
		} else if count == 0 {
			count = 1
		}

		for i := 0; i < count; i++ {
			if c.srcPos >= c.limit {
				return nil
			}
			if item.Nested != nil {
				if err := swapItems(c, item.Nested, toLocal); err != nil {
					return err
				}
				continue
			}
			if err := c.advanceElement(item.Type); err != nil {
				return err
			}
		}
	}

	return nil
}
