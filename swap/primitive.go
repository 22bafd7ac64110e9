package swap

import (
	"github.com/jlab-hipo/evio/bytebuf"
	"github.com/jlab-hipo/evio/structure"
)

// swapPrimitiveArray swaps (or copies, for byte-sized elements) bodyBytes of
// flat primitive data at src[srcPos:] using the stride implied by
// dataType, writing the result to dst[dstPos:] (or in place if dst is nil).
// toLocal has no bearing on a primitive array: byte order conversion is
// symmetric regardless of direction.
func swapPrimitiveArray(src *bytebuf.Buffer, srcPos, bodyBytes int, dataType structure.DataType, toLocal bool, dst *bytebuf.Buffer, dstPos int) error {
	_ = toLocal

	stride := dataType.ElementSize()
	if stride == 0 {
		// Opaque/string/char types with no fixed stride: copy verbatim.
		return copyBytes(src, srcPos, bodyBytes, dst, dstPos)
	}

	switch stride {
	case 1:
		return copyBytes(src, srcPos, bodyBytes, dst, dstPos)
	case 2:
		return swapStrided(src, srcPos, bodyBytes, 2, dst, dstPos)
	case 4:
		return swapStrided(src, srcPos, bodyBytes, 4, dst, dstPos)
	case 8:
		return swapStrided(src, srcPos, bodyBytes, 8, dst, dstPos)
	default:
		return copyBytes(src, srcPos, bodyBytes, dst, dstPos)
	}
}

func copyBytes(src *bytebuf.Buffer, srcPos, n int, dst *bytebuf.Buffer, dstPos int) error {
	data, err := src.GetBytesAt(srcPos, n)
	if err != nil {
		return err
	}

	tgt, tgtPos := target(src, dst, srcPos, dstPos)
	if tgt == src && tgtPos == srcPos {
		return nil
	}

	return tgt.PutBytesAt(tgtPos, data)
}

// swapStrided byte-reverses every stride-byte element in [srcPos,
// srcPos+n), writing into dst at dstPos (or in place if dst is nil).
func swapStrided(src *bytebuf.Buffer, srcPos, n, stride int, dst *bytebuf.Buffer, dstPos int) error {
	tgt, tgtPos := target(src, dst, srcPos, dstPos)

	out := make([]byte, n)
	data, err := src.GetBytesAt(srcPos, n)
	if err != nil {
		return err
	}
	copy(out, data)

	for off := 0; off+stride <= n; off += stride {
		reverse(out[off : off+stride])
	}

	return tgt.PutBytesAt(tgtPos, out)
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
