// Package endian provides the byte-order abstraction used throughout the
// evio format: every 32-bit header word, every primitive payload element,
// and the MAGIC endian oracle itself are read through an EndianEngine so a
// single buffer can flip between little- and big-endian without touching
// call sites.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary
// into one interface. binary.LittleEndian and binary.BigEndian already
// satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// HostOrder reports the native byte order of the running process.
func HostOrder() binary.ByteOrder {
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsHostLittleEndian reports whether the running process is little-endian.
func IsHostLittleEndian() bool {
	return HostOrder() == binary.LittleEndian
}

// Swap returns the opposite byte order from the one given.
func Swap(order EndianEngine) EndianEngine {
	if order == EndianEngine(binary.LittleEndian) {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// GetLittleEndianEngine returns the canonical wire byte order.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// SwapU32 byte-reverses a 32-bit word, used to test a header's MAGIC word
// against both possible on-disk byte orders without committing to either
// engine first.
func SwapU32(v uint32) uint32 {
	return (v>>24)&0xff | (v>>8)&0xff00 | (v<<8)&0xff0000 | (v<<24)&0xff000000
}

// SwapU16 byte-reverses a 16-bit word.
func SwapU16(v uint16) uint16 {
	return (v>>8)&0xff | (v<<8)&0xff00
}

// SwapU64 byte-reverses a 64-bit word.
func SwapU64(v uint64) uint64 {
	return (v>>56)&0xff | (v>>40)&0xff00 | (v>>24)&0xff0000 | (v>>8)&0xff000000 |
		(v<<8)&0xff00000000 | (v<<24)&0xff0000000000 | (v<<40)&0xff000000000000 | (v<<56)&0xff00000000000000
}
