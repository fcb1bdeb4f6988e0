// Package values defines Value, the closed tagged variant that carries every
// decoded or encodable PLC value.
//
// A Value holds exactly one variant, reported by Kind. Variant payloads are
// read through As* extractors which fail with plcerr.ErrValueKindMismatch
// when the variant does not fit, and with plcerr.ErrValueOutOfRange when a
// numeric widening would lose information. Values are immutable: constructors
// and extractors copy slices at the boundary.
package values

import (
	"fmt"
	"strings"
)

// Kind identifies the active variant of a Value.
type Kind uint8

// Variants. The zero Kind is KindNull.
const (
	KindNull Kind = iota
	KindBool
	KindByte   // int8
	KindUByte  // uint8
	KindShort  // int16
	KindUShort // uint16
	KindInt    // int32
	KindUInt   // uint32
	KindLong   // int64
	KindULong  // uint64
	KindFloat  // float32
	KindDouble // float64
	KindString
	KindDateTime
	KindRaw
	KindList
	KindStruct
)

var kindNames = [...]string{
	KindNull:     "NULL",
	KindBool:     "BOOL",
	KindByte:     "BYTE",
	KindUByte:    "UBYTE",
	KindShort:    "SHORT",
	KindUShort:   "USHORT",
	KindInt:      "INT",
	KindUInt:     "UINT",
	KindLong:     "LONG",
	KindULong:    "ULONG",
	KindFloat:    "FLOAT",
	KindDouble:   "DOUBLE",
	KindString:   "STRING",
	KindDateTime: "DATETIME",
	KindRaw:      "RAW",
	KindList:     "LIST",
	KindStruct:   "STRUCT",
}

// String returns the upper-case name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind parses a kind name as produced by Kind.String, case-insensitively.
func ParseKind(s string) (Kind, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == up {
			return Kind(k), nil //nolint:gosec // index of a small array
		}
	}
	return KindNull, fmt.Errorf("values: unknown kind %q", s)
}

// IsInteger reports whether k is one of the eight integer kinds.
func (k Kind) IsInteger() bool {
	return k >= KindByte && k <= KindULong
}

// IsSigned reports whether k is a signed integer kind.
func (k Kind) IsSigned() bool {
	switch k {
	case KindByte, KindShort, KindInt, KindLong:
		return true
	default:
		return false
	}
}

// IsFloat reports whether k is KindFloat or KindDouble.
func (k Kind) IsFloat() bool {
	return k == KindFloat || k == KindDouble
}

// IsNumeric reports whether k is an integer or floating point kind.
func (k Kind) IsNumeric() bool {
	return k.IsInteger() || k.IsFloat()
}

// Bits returns the native width of a scalar kind, or 0 for kinds without one.
func (k Kind) Bits() uint8 {
	switch k {
	case KindBool:
		return 1
	case KindByte, KindUByte:
		return 8
	case KindShort, KindUShort:
		return 16
	case KindInt, KindUInt, KindFloat:
		return 32
	case KindLong, KindULong, KindDouble:
		return 64
	default:
		return 0
	}
}

// AssignableTo reports whether a value of kind k may be encoded where a value
// of kind target is expected. Integer kinds are interchangeable (range is
// checked at encode time), integers may feed floating point targets, and the
// two float kinds are interchangeable. Every other kind must match exactly.
func (k Kind) AssignableTo(target Kind) bool {
	switch {
	case k == target:
		return true
	case k.IsInteger() && target.IsInteger():
		return true
	case k.IsNumeric() && target.IsFloat():
		return true
	default:
		return false
	}
}
