// Package swap implements the composite-data-aware byte swapper for an evio
// event tree (§4.C): banks, segments, tagsegments, primitive arrays, and
// the Hall B composite format. Swapping is a pure byte-reversal of every
// 32-bit (or wider) word in the tree; the toLocal flag only decides which
// copy of a structure's header fields (raw or swapped) is used to route the
// recursion, since the header word itself is always byte-reversed between
// src and dst.
package swap

import (
	"encoding/binary"
	"fmt"

	"github.com/jlab-hipo/evio/bytebuf"
	"github.com/jlab-hipo/evio/errs"
	"github.com/jlab-hipo/evio/structure"
)

// swap32 byte-reverses a raw 32-bit word value.
func swap32(v uint32) uint32 {
	return (v>>24)&0xff | (v>>8)&0xff00 | (v<<8)&0xff0000 | (v<<24)&0xff000000
}

// swap16 byte-reverses a raw 16-bit word value.
func swap16(v uint16) uint16 {
	return (v>>8)&0xff | (v<<8)&0xff00
}

// rawWord reads the raw (unswapped) 32-bit word at pos.
func rawWord(buf *bytebuf.Buffer, pos int) (uint32, error) {
	b, err := buf.GetBytesAt(pos, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// writeSwappedWord writes swap32(v) at dstPos in dst.
func writeSwappedWord(dst *bytebuf.Buffer, dstPos int, v uint32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, swap32(v))
	return dst.PutBytesAt(dstPos, b)
}

// logical returns the value to use for dispatch: the raw word as stored
// when toLocal is false (it is already native), or its swapped form when
// toLocal is true (converting it to native first).
func logical(raw uint32, toLocal bool) uint32 {
	if toLocal {
		return swap32(raw)
	}
	return raw
}

// target resolves the (buffer, position) pair a swap writes into: dst at
// dstPos when dst is non-nil (copy-while-swap), else src at srcPos
// (in-place).
func target(src, dst *bytebuf.Buffer, srcPos, dstPos int) (*bytebuf.Buffer, int) {
	if dst != nil {
		return dst, dstPos
	}
	return src, srcPos
}

// SwapEvent recursively swaps one evio event tree occupying a root bank at
// src[srcPos:], per §4.C and §8's "swap twice is identity" law. If dst is
// nil the swap happens in place within src; otherwise the swapped bytes are
// written into dst starting at dstPos and src is left untouched except for
// reads. Returns the number of bytes the structure occupies (its own
// length, words, times 4, plus the W0 word itself).
func SwapEvent(src *bytebuf.Buffer, srcPos int, toLocal bool, dst *bytebuf.Buffer, dstPos int) (int, error) {
	return swapBank(src, srcPos, toLocal, dst, dstPos)
}

func swapBank(src *bytebuf.Buffer, srcPos int, toLocal bool, dst *bytebuf.Buffer, dstPos int) (int, error) {
	w0, err := rawWord(src, srcPos)
	if err != nil {
		return 0, err
	}
	w1, err := rawWord(src, srcPos+4)
	if err != nil {
		return 0, err
	}

	lenWords := logical(w0, toLocal)
	bank := structure.DecodeBank(lenWords, logical(w1, toLocal))

	tgt, tgtPos := target(src, dst, srcPos, dstPos)
	if err := writeSwappedWord(tgt, tgtPos, w0); err != nil {
		return 0, err
	}
	if err := writeSwappedWord(tgt, tgtPos+4, w1); err != nil {
		return 0, err
	}

	bodyBytes := int(lenWords-1) * 4
	if bodyBytes < 0 {
		return 0, fmt.Errorf("%w: bank length %d", errs.ErrBadLength, lenWords)
	}

	if err := swapBody(src, srcPos+8, bodyBytes, bank.Type, bank.Num, toLocal, dst, tgtPos+8); err != nil {
		return 0, err
	}

	return int(lenWords+1) * 4, nil
}

func swapSegment(src *bytebuf.Buffer, srcPos int, toLocal bool, dst *bytebuf.Buffer, dstPos int) (int, error) {
	w, err := rawWord(src, srcPos)
	if err != nil {
		return 0, err
	}

	seg := structure.DecodeSegment(logical(w, toLocal))

	tgt, tgtPos := target(src, dst, srcPos, dstPos)
	if err := writeSwappedWord(tgt, tgtPos, w); err != nil {
		return 0, err
	}

	bodyBytes := int(seg.Length) * 4
	if err := swapBody(src, srcPos+4, bodyBytes, seg.Type, 0, toLocal, dst, tgtPos+4); err != nil {
		return 0, err
	}

	return (int(seg.Length) + 1) * 4, nil
}

func swapTagsegment(src *bytebuf.Buffer, srcPos int, toLocal bool, dst *bytebuf.Buffer, dstPos int) (int, error) {
	w, err := rawWord(src, srcPos)
	if err != nil {
		return 0, err
	}

	ts := structure.DecodeTagsegment(logical(w, toLocal))

	tgt, tgtPos := target(src, dst, srcPos, dstPos)
	if err := writeSwappedWord(tgt, tgtPos, w); err != nil {
		return 0, err
	}

	bodyBytes := int(ts.Length) * 4
	if err := swapBody(src, srcPos+4, bodyBytes, ts.Type, 0, toLocal, dst, tgtPos+4); err != nil {
		return 0, err
	}

	return (int(ts.Length) + 1) * 4, nil
}

// swapBody dispatches on a structure's payload type: recurse into children
// for container types, parse+swap for composite, or swap a flat primitive
// array with the appropriate element stride.
func swapBody(src *bytebuf.Buffer, srcPos, bodyBytes int, dataType structure.DataType, num uint8, toLocal bool, dst *bytebuf.Buffer, dstPos int) error {
	switch {
	case dataType == structure.Composite:
		return swapComposite(src, srcPos, bodyBytes, toLocal, dst, dstPos)
	case dataType.IsContainer():
		return swapContainerChildren(src, srcPos, bodyBytes, dataType, toLocal, dst, dstPos)
	default:
		return swapPrimitiveArray(src, srcPos, bodyBytes, dataType, toLocal, dst, dstPos)
	}
}

// swapContainerChildren walks a container's body by each child's own
// length prefix, recursing with the appropriate swapper for the child kind
// implied by the parent's data type.
func swapContainerChildren(src *bytebuf.Buffer, srcPos, bodyBytes int, parentType structure.DataType, toLocal bool, dst *bytebuf.Buffer, dstPos int) error {
	childSwap := childSwapperFor(parentType)

	off := 0
	for off < bodyBytes {
		n, err := childSwap(src, srcPos+off, toLocal, dst, dstPos+off)
		if err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("%w: zero-length child in container", errs.ErrBadLength)
		}
		off += n
	}

	if off != bodyBytes {
		return fmt.Errorf("%w: container body size mismatch", errs.ErrBadLength)
	}

	return nil
}

type childSwapper func(src *bytebuf.Buffer, srcPos int, toLocal bool, dst *bytebuf.Buffer, dstPos int) (int, error)

func childSwapperFor(parentType structure.DataType) childSwapper {
	switch parentType {
	case structure.TypeBank, structure.TypeBankAlt:
		return swapBank
	case structure.TypeSegment, structure.TypeSegmentAlt:
		return swapSegment
	case structure.TypeTagsegment:
		return swapTagsegment
	default:
		return swapBank
	}
}
