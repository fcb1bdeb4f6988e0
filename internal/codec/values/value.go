package values

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-codec/internal/codec/plcerr"
)

// Value is an immutable tagged variant. The zero Value is Null.
type Value struct {
	kind   Kind
	bits   uint64 // bool, integers (two's complement) and float bit patterns
	str    string
	time   time.Time
	raw    []byte
	list   []Value
	fields []Field
}

// Field is one named member of a Struct value.
type Field struct {
	Name  string
	Value Value
}

// ─── Constructors ───────────────────────────────────────────────────

// Null returns the absent value.
func Null() Value { return Value{} }

// Bool returns a BOOL value.
func Bool(v bool) Value {
	var b uint64
	if v {
		b = 1
	}
	return Value{kind: KindBool, bits: b}
}

// Byte returns a BYTE (int8) value.
func Byte(v int8) Value { return signed(KindByte, int64(v)) }

// UByte returns a UBYTE (uint8) value.
func UByte(v uint8) Value { return Value{kind: KindUByte, bits: uint64(v)} }

// Short returns a SHORT (int16) value.
func Short(v int16) Value { return signed(KindShort, int64(v)) }

// UShort returns a USHORT (uint16) value.
func UShort(v uint16) Value { return Value{kind: KindUShort, bits: uint64(v)} }

// Int returns an INT (int32) value.
func Int(v int32) Value { return signed(KindInt, int64(v)) }

// UInt returns a UINT (uint32) value.
func UInt(v uint32) Value { return Value{kind: KindUInt, bits: uint64(v)} }

// Long returns a LONG (int64) value.
func Long(v int64) Value { return signed(KindLong, v) }

// ULong returns a ULONG (uint64) value.
func ULong(v uint64) Value { return Value{kind: KindULong, bits: v} }

// Float returns a FLOAT (float32) value.
func Float(v float32) Value {
	return Value{kind: KindFloat, bits: uint64(math.Float32bits(v))}
}

// Double returns a DOUBLE (float64) value.
func Double(v float64) Value {
	return Value{kind: KindDouble, bits: math.Float64bits(v)}
}

// String returns a STRING value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// DateTime returns a DATETIME value.
func DateTime(t time.Time) Value { return Value{kind: KindDateTime, time: t} }

// Raw returns a RAW value holding a copy of b.
func Raw(b []byte) Value {
	return Value{kind: KindRaw, raw: bytes.Clone(nonNil(b))}
}

// List returns a LIST value. Elements need not share a kind.
func List(elems ...Value) Value {
	return Value{kind: KindList, list: slices.Clone(nonNilValues(elems))}
}

// Struct returns a STRUCT value with fields in the given order. Field names
// must be unique; a duplicate fails with *plcerr.KindError.
func Struct(fields ...Field) (Value, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.Name]; dup {
			return Value{}, &plcerr.KindError{
				Want: KindStruct.String() + " with unique field names",
				Got:  fmt.Sprintf("duplicate field %q", f.Name),
			}
		}
		seen[f.Name] = struct{}{}
	}
	return Value{kind: KindStruct, fields: slices.Clone(fields)}, nil
}

// MustStruct is Struct for field sets known to be unique. It panics on a
// duplicate name.
func MustStruct(fields ...Field) Value {
	v, err := Struct(fields...)
	if err != nil {
		panic(err)
	}
	return v
}

// F is shorthand for a Field literal.
func F(name string, v Value) Field { return Field{Name: name, Value: v} }

// Signed returns a value of the signed integer kind k holding v, failing when
// v does not fit the kind's width.
func Signed(k Kind, v int64) (Value, error) {
	if !k.IsSigned() {
		return Value{}, kindError(k.String(), "signed integer kind")
	}
	if bits := k.Bits(); bits < 64 {
		lo, hi := int64(-1)<<(bits-1), int64(1)<<(bits-1)-1
		if v < lo || v > hi {
			return Value{}, rangeError(v, k)
		}
	}
	return signed(k, v), nil
}

// Unsigned returns a value of the unsigned integer kind k holding v, failing
// when v does not fit the kind's width.
func Unsigned(k Kind, v uint64) (Value, error) {
	if !k.IsInteger() || k.IsSigned() {
		return Value{}, kindError(k.String(), "unsigned integer kind")
	}
	if bits := k.Bits(); bits < 64 && v>>bits != 0 {
		return Value{}, rangeError(v, k)
	}
	return Value{kind: k, bits: v}, nil
}

func signed(k Kind, v int64) Value {
	return Value{kind: k, bits: uint64(v)} //nolint:gosec // stored as two's complement
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func nonNilValues(v []Value) []Value {
	if v == nil {
		return []Value{}
	}
	return v
}

// ─── Queries ────────────────────────────────────────────────────────

// Kind returns the active variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the absent value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Len returns the element count of a List or the field count of a Struct,
// and 0 for every other kind.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindStruct:
		return len(v.fields)
	default:
		return 0
	}
}

// Index returns element i of a List.
func (v Value) Index(i int) (Value, error) {
	if v.kind != KindList {
		return Value{}, kindError(KindList.String(), v.kind.String())
	}
	if i < 0 || i >= len(v.list) {
		return Value{}, fmt.Errorf("values: index %d out of bounds for list of %d", i, len(v.list))
	}
	return v.list[i], nil
}

// Field returns the named member of a Struct.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindStruct {
		return Value{}, false
	}
	for _, f := range v.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Keys returns the field names of a Struct in insertion order.
func (v Value) Keys() []string {
	if v.kind != KindStruct {
		return nil
	}
	keys := make([]string, len(v.fields))
	for i, f := range v.fields {
		keys[i] = f.Name
	}
	return keys
}

// ─── Equality and formatting ────────────────────────────────────────

// Equal reports whether a and b hold the same variant and payload. Floats
// compare by value, with NaN equal to NaN and +0 equal to -0.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindFloat:
		x, y := math.Float32frombits(uint32(a.bits)), math.Float32frombits(uint32(b.bits))
		return x == y || (x != x && y != y)
	case KindDouble:
		x, y := math.Float64frombits(a.bits), math.Float64frombits(b.bits)
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	case KindString:
		return a.str == b.str
	case KindDateTime:
		return a.time.Equal(b.time)
	case KindRaw:
		return bytes.Equal(a.raw, b.raw)
	case KindList:
		return slices.EqualFunc(a.list, b.list, Equal)
	case KindStruct:
		return slices.EqualFunc(a.fields, b.fields, func(x, y Field) bool {
			return x.Name == y.Name && Equal(x.Value, y.Value)
		})
	default:
		return a.bits == b.bits
	}
}

// String formats v for logs and diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return strconv.FormatBool(v.bits != 0)
	case KindByte, KindShort, KindInt, KindLong:
		return strconv.FormatInt(int64(v.bits), 10) //nolint:gosec // two's complement
	case KindUByte, KindUShort, KindUInt, KindULong:
		return strconv.FormatUint(v.bits, 10)
	case KindFloat:
		return strconv.FormatFloat(float64(math.Float32frombits(uint32(v.bits))), 'g', -1, 32)
	case KindDouble:
		return strconv.FormatFloat(math.Float64frombits(v.bits), 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.str)
	case KindDateTime:
		return v.time.Format(time.RFC3339Nano)
	case KindRaw:
		return "0x" + hex.EncodeToString(v.raw)
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindStruct:
		parts := make([]string, len(v.fields))
		for i, f := range v.fields {
			parts[i] = f.Name + ":" + f.Value.String()
		}
		return "{" + strings.Join(parts, " ") + "}"
	default:
		return v.kind.String()
	}
}
