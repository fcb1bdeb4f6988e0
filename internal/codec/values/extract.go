package values

import (
	"bytes"
	"math"
	"slices"
	"time"

	"github.com/nerrad567/gray-logic-codec/internal/codec/plcerr"
)

// maxExactFloat is the largest integer magnitude a float64 holds exactly.
const maxExactFloat = 1 << 53

func kindError(want, got string) error {
	return &plcerr.KindError{Want: want, Got: got}
}

func rangeError(v any, k Kind) error {
	return plcerr.Range(v, k.String())
}

// AsBool returns the payload of a BOOL value.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, kindError(KindBool.String(), v.kind.String())
	}
	return v.bits != 0, nil
}

// AsInt64 returns any integer variant widened to int64. A ULONG above
// math.MaxInt64 fails with ErrValueOutOfRange.
func (v Value) AsInt64() (int64, error) {
	switch {
	case v.kind.IsSigned():
		return int64(v.bits), nil //nolint:gosec // two's complement
	case v.kind.IsInteger():
		if v.bits > math.MaxInt64 {
			return 0, rangeError(v.bits, KindLong)
		}
		return int64(v.bits), nil
	default:
		return 0, kindError("integer", v.kind.String())
	}
}

// AsUint64 returns any integer variant widened to uint64. Negative values
// fail with ErrValueOutOfRange.
func (v Value) AsUint64() (uint64, error) {
	switch {
	case v.kind.IsSigned():
		i := int64(v.bits) //nolint:gosec // two's complement
		if i < 0 {
			return 0, rangeError(i, KindULong)
		}
		return uint64(i), nil
	case v.kind.IsInteger():
		return v.bits, nil
	default:
		return 0, kindError("unsigned integer", v.kind.String())
	}
}

// AsFloat64 returns a FLOAT or DOUBLE payload as float64. Integer variants
// are accepted when their magnitude is exactly representable.
func (v Value) AsFloat64() (float64, error) {
	switch v.kind {
	case KindFloat:
		return float64(math.Float32frombits(uint32(v.bits))), nil
	case KindDouble:
		return math.Float64frombits(v.bits), nil
	}
	if v.kind.IsSigned() {
		i := int64(v.bits) //nolint:gosec // two's complement
		if i > maxExactFloat || i < -maxExactFloat {
			return 0, rangeError(i, KindDouble)
		}
		return float64(i), nil
	}
	if v.kind.IsInteger() {
		if v.bits > maxExactFloat {
			return 0, rangeError(v.bits, KindDouble)
		}
		return float64(v.bits), nil
	}
	return 0, kindError("numeric", v.kind.String())
}

// AsString returns the payload of a STRING value.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", kindError(KindString.String(), v.kind.String())
	}
	return v.str, nil
}

// AsTime returns the payload of a DATETIME value.
func (v Value) AsTime() (time.Time, error) {
	if v.kind != KindDateTime {
		return time.Time{}, kindError(KindDateTime.String(), v.kind.String())
	}
	return v.time, nil
}

// AsBytes returns a copy of the payload of a RAW value.
func (v Value) AsBytes() ([]byte, error) {
	if v.kind != KindRaw {
		return nil, kindError(KindRaw.String(), v.kind.String())
	}
	return bytes.Clone(v.raw), nil
}

// AsList returns a copy of the elements of a LIST value.
func (v Value) AsList() ([]Value, error) {
	if v.kind != KindList {
		return nil, kindError(KindList.String(), v.kind.String())
	}
	return slices.Clone(v.list), nil
}

// AsStruct returns a copy of the fields of a STRUCT value.
func (v Value) AsStruct() ([]Field, error) {
	if v.kind != KindStruct {
		return nil, kindError(KindStruct.String(), v.kind.String())
	}
	return slices.Clone(v.fields), nil
}

// Native returns the payload as a plain Go value: nil, bool, int64, uint64,
// float32, float64, string, time.Time, []byte, []any, or map[string]any for
// structs.
func (v Value) Native() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.bits != 0
	case KindByte, KindShort, KindInt, KindLong:
		return int64(v.bits) //nolint:gosec // two's complement
	case KindUByte, KindUShort, KindUInt, KindULong:
		return v.bits
	case KindFloat:
		return math.Float32frombits(uint32(v.bits))
	case KindDouble:
		return math.Float64frombits(v.bits)
	case KindString:
		return v.str
	case KindDateTime:
		return v.time
	case KindRaw:
		return bytes.Clone(v.raw)
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Native()
		}
		return out
	case KindStruct:
		out := make(map[string]any, len(v.fields))
		for _, f := range v.fields {
			out[f.Name] = f.Value.Native()
		}
		return out
	default:
		return nil
	}
}
