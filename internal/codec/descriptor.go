package codec

import (
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-codec/internal/codec/bitbuf"
	"github.com/nerrad567/gray-logic-codec/internal/codec/values"
)

// Family identifies the protocol family a descriptor belongs to.
type Family uint8

// Protocol families.
const (
	FamilyModbus Family = iota + 1
	FamilyKNX
)

// String returns the lower-case family name.
func (f Family) String() string {
	switch f {
	case FamilyModbus:
		return "modbus"
	case FamilyKNX:
		return "knx"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// BitOrder describes how consecutive bit-wide elements are packed into
// bytes.
type BitOrder uint8

const (
	// MSBFirst fills each byte from its most significant bit down.
	MSBFirst BitOrder = iota

	// LSBFirst fills each byte from its least significant bit up, as Modbus
	// does for coil and discrete input status bytes.
	LSBFirst
)

// Descriptor is the parsed form of an address or type token. It tells the
// Codec which rule to apply and how elements are laid out in the payload.
//
// Descriptors are plain values; the With* methods return modified copies.
type Descriptor struct {
	// Family and Format select the rule: Format is the data type name for
	// Modbus ("REAL") and the DPT format name for KNX ("F32").
	Family Family
	Format string

	// Type is the register type ("holding-register") or the canonical DPT
	// identifier ("14.019").
	Type string

	// Token is the text the descriptor was parsed from.
	Token string

	// Kind is the variant produced by Decode and expected by Encode.
	Kind values.Kind

	// Width is the number of value bits in one element.
	Width uint16

	// Stride is the number of bits one element occupies, including leading
	// padding. Zero means Width.
	Stride uint16

	// Count is the number of consecutive elements. Count 1 is a scalar.
	Count int

	// Start is the first register index for register-addressed families.
	Start uint32

	// BitOffset is skipped before the first element.
	BitOffset uint32

	ByteOrder bitbuf.ByteOrder
	BitOrder  BitOrder

	// Transform, when set, maps raw decoded values to engineering values.
	Transform Transform

	// Unit is the engineering unit, informational only.
	Unit string
}

// IsArray reports whether the descriptor addresses more than one element.
func (d Descriptor) IsArray() bool { return d.Count > 1 }

// ElementBits returns the bits occupied by one element.
func (d Descriptor) ElementBits() uint64 {
	if d.Stride > 0 {
		return uint64(d.Stride)
	}
	return uint64(d.Width)
}

// TotalBits returns the payload size the descriptor needs, in bits.
func (d Descriptor) TotalBits() uint64 {
	return uint64(d.BitOffset) + d.ElementBits()*uint64(d.elements())
}

// TotalBytes returns TotalBits rounded up to whole bytes.
func (d Descriptor) TotalBytes() int {
	return int((d.TotalBits() + 7) / 8) //nolint:gosec // bounded by count limits
}

// WithByteOrder returns a copy of d using order for multi-byte fields.
func (d Descriptor) WithByteOrder(order bitbuf.ByteOrder) Descriptor {
	d.ByteOrder = order
	return d
}

// WithBitOffset returns a copy of d whose first element starts offset bits
// into the payload.
func (d Descriptor) WithBitOffset(offset uint32) Descriptor {
	d.BitOffset = offset
	return d
}

// WithCount returns a copy of d addressing n elements.
func (d Descriptor) WithCount(n int) Descriptor {
	d.Count = n
	return d
}

func (d Descriptor) elements() int {
	if d.Count < 1 {
		return 1
	}
	return d.Count
}

// String renders the descriptor in a compact diagnostic form, for example
// "modbus holding-register:3 REAL[4] big-endian".
func (d Descriptor) String() string {
	var sb strings.Builder
	sb.WriteString(d.Family.String())
	sb.WriteByte(' ')
	sb.WriteString(d.Type)
	if d.Family == FamilyModbus {
		fmt.Fprintf(&sb, ":%d", d.Start)
	}
	sb.WriteByte(' ')
	sb.WriteString(d.Format)
	if d.IsArray() {
		fmt.Fprintf(&sb, "[%d]", d.Count)
	}
	if d.BitOffset > 0 {
		fmt.Fprintf(&sb, " +%db", d.BitOffset)
	}
	if d.ByteOrder != bitbuf.BigEndian {
		sb.WriteByte(' ')
		sb.WriteString(d.ByteOrder.String())
	}
	return sb.String()
}
