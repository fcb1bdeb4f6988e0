// Package bitbuf provides position-tracked bit cursors over raw byte
// sequences.
//
// ReadBuffer and WriteBuffer support fields of any width from 1 to 64 bits,
// with no implicit byte alignment, because device protocols pack sub-byte
// fields back to back. Multi-byte fields honour the buffer's ByteOrder.
//
// A buffer is an owned cursor: it must be confined to one decode or encode
// call sequence at a time.
package bitbuf

import (
	"fmt"
	"strings"
)

// ByteOrder describes how the bytes of a multi-byte field are arranged on the
// wire, named after the Modbus device conventions for 32-bit values.
type ByteOrder int

const (
	// BigEndian is network order: ABCD.
	BigEndian ByteOrder = iota

	// LittleEndian reverses every byte: DCBA.
	LittleEndian

	// BigEndianByteSwap keeps word order and swaps the bytes inside each
	// 16-bit word: BADC.
	BigEndianByteSwap

	// LittleEndianByteSwap reverses word order and keeps the bytes inside
	// each 16-bit word: CDAB.
	LittleEndianByteSwap
)

// String returns the canonical name of the byte order.
func (o ByteOrder) String() string {
	switch o {
	case BigEndian:
		return "big-endian"
	case LittleEndian:
		return "little-endian"
	case BigEndianByteSwap:
		return "big-endian-byte-swap"
	case LittleEndianByteSwap:
		return "little-endian-byte-swap"
	default:
		return fmt.Sprintf("ByteOrder(%d)", int(o))
	}
}

// ParseByteOrder parses a byte order name.
//
// Accepted forms are the canonical names, their upper-case underscore
// variants (BIG_ENDIAN) and the letter patterns ABCD, DCBA, BADC and CDAB.
// An empty string selects BigEndian.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case "", "BIG_ENDIAN", "BE", "ABCD":
		return BigEndian, nil
	case "LITTLE_ENDIAN", "LE", "DCBA":
		return LittleEndian, nil
	case "BIG_ENDIAN_BYTE_SWAP", "BADC":
		return BigEndianByteSwap, nil
	case "LITTLE_ENDIAN_BYTE_SWAP", "CDAB":
		return LittleEndianByteSwap, nil
	default:
		return BigEndian, fmt.Errorf("%w: %q", ErrUnknownByteOrder, s)
	}
}

// permute converts raw between wire order and big-endian order in place.
// Every supported permutation is its own inverse, so the same call serves
// reads and writes. Word-oriented orders only apply to an even number of
// bytes; odd lengths are left as they are.
func (o ByteOrder) permute(raw []byte) {
	n := len(raw)
	switch o {
	case LittleEndian:
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			raw[i], raw[j] = raw[j], raw[i]
		}
	case BigEndianByteSwap:
		if n%2 != 0 {
			return
		}
		for i := 0; i < n; i += 2 {
			raw[i], raw[i+1] = raw[i+1], raw[i]
		}
	case LittleEndianByteSwap:
		if n%2 != 0 {
			return
		}
		for i, j := 0, n-2; i < j; i, j = i+2, j-2 {
			raw[i], raw[j] = raw[j], raw[i]
			raw[i+1], raw[j+1] = raw[j+1], raw[i+1]
		}
	}
}

// reorders reports whether a field of the given width is subject to byte
// reordering.
func (o ByteOrder) reorders(bits uint8) bool {
	return o != BigEndian && bits > 8 && bits%8 == 0
}

// Option configures a ReadBuffer or WriteBuffer.
type Option func(*options)

type options struct {
	order    ByteOrder
	capacity int
}

// WithByteOrder sets the byte order used for multi-byte fields.
func WithByteOrder(order ByteOrder) Option {
	return func(o *options) { o.order = order }
}

// WithCapacity fixes a WriteBuffer's capacity in bytes. Writes that would
// exceed it fail instead of growing the buffer. Ignored by ReadBuffer.
func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
