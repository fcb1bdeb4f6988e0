package values

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// MarshalJSON renders v as natural JSON: numbers, strings, arrays and
// objects. Struct fields keep their insertion order. RAW renders as a hex
// string, DATETIME as RFC 3339, and non-finite floats as the strings "NaN",
// "+Inf" and "-Inf".
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.appendJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) appendJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.bits != 0))
	case KindByte, KindShort, KindInt, KindLong:
		buf.WriteString(strconv.FormatInt(int64(v.bits), 10)) //nolint:gosec // two's complement
	case KindUByte, KindUShort, KindUInt, KindULong:
		buf.WriteString(strconv.FormatUint(v.bits, 10))
	case KindFloat:
		appendJSONFloat(buf, float64(math.Float32frombits(uint32(v.bits))), 32)
	case KindDouble:
		appendJSONFloat(buf, math.Float64frombits(v.bits), 64)
	case KindString:
		return appendJSONString(buf, v.str)
	case KindDateTime:
		return appendJSONString(buf, v.time.Format(time.RFC3339Nano))
	case KindRaw:
		return appendJSONString(buf, hex.EncodeToString(v.raw))
	case KindList:
		buf.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.appendJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindStruct:
		buf.WriteByte('{')
		for i, f := range v.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSONString(buf, f.Name); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := f.Value.appendJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("values: cannot marshal %s", v.kind)
	}
	return nil
}

func appendJSONFloat(buf *bytes.Buffer, f float64, bitSize int) {
	switch {
	case math.IsNaN(f):
		buf.WriteString(`"NaN"`)
	case math.IsInf(f, 1):
		buf.WriteString(`"+Inf"`)
	case math.IsInf(f, -1):
		buf.WriteString(`"-Inf"`)
	default:
		buf.WriteString(strconv.FormatFloat(f, 'g', -1, bitSize))
	}
}

func appendJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("values: marshal string: %w", err)
	}
	buf.Write(b)
	return nil
}

// Coerce converts a JSON-decoded Go value into a Value of kind k.
//
// x is what encoding/json produces: nil, bool, float64 or json.Number,
// string, []any and map[string]any. Numbers are range-checked against k.
// RAW accepts a hex string (an optional 0x prefix is allowed) and DATETIME an
// RFC 3339 string. LIST and STRUCT members are converted with Infer.
// A nil x always yields Null.
func Coerce(x any, k Kind) (Value, error) {
	if x == nil {
		return Null(), nil
	}

	switch {
	case k == KindBool:
		b, ok := x.(bool)
		if !ok {
			return Value{}, kindError(k.String(), jsonKind(x))
		}
		return Bool(b), nil

	case k.IsSigned():
		n, err := jsonInt(x, k)
		if err != nil {
			return Value{}, err
		}
		return Signed(k, n)

	case k.IsInteger():
		n, err := jsonUint(x, k)
		if err != nil {
			return Value{}, err
		}
		return Unsigned(k, n)

	case k.IsFloat():
		f, err := jsonFloat(x, k)
		if err != nil {
			return Value{}, err
		}
		if k == KindFloat {
			if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
				return Value{}, rangeError(f, k)
			}
			return Float(float32(f)), nil
		}
		return Double(f), nil

	case k == KindString:
		s, ok := x.(string)
		if !ok {
			return Value{}, kindError(k.String(), jsonKind(x))
		}
		return String(s), nil

	case k == KindDateTime:
		s, ok := x.(string)
		if !ok {
			return Value{}, kindError(k.String(), jsonKind(x))
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return Value{}, kindError(k.String(), fmt.Sprintf("string %q", s))
		}
		return DateTime(t), nil

	case k == KindRaw:
		s, ok := x.(string)
		if !ok {
			return Value{}, kindError(k.String(), jsonKind(x))
		}
		b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
		if err != nil {
			return Value{}, kindError(k.String(), fmt.Sprintf("string %q", s))
		}
		return Raw(b), nil

	case k == KindList, k == KindStruct:
		v := Infer(x)
		if v.kind != k {
			return Value{}, kindError(k.String(), v.kind.String())
		}
		return v, nil

	default:
		return Value{}, kindError(k.String(), jsonKind(x))
	}
}

// Infer converts a JSON-decoded Go value into the closest Value: whole
// numbers become LONG (or ULONG above math.MaxInt64), other numbers DOUBLE.
// Object members are ordered by key.
func Infer(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Long(i)
		}
		if u, err := strconv.ParseUint(string(t), 10, 64); err == nil {
			return ULong(u)
		}
		f, _ := t.Float64() //nolint:errcheck // json.Number is already valid
		return Double(f)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) <= maxExactFloat {
			return Long(int64(t))
		}
		return Double(t)
	case string:
		return String(t)
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			elems[i] = Infer(e)
		}
		return List(elems...)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		fields := make([]Field, len(keys))
		for i, k := range keys {
			fields[i] = F(k, Infer(t[k]))
		}
		return MustStruct(fields...)
	default:
		return String(fmt.Sprint(t))
	}
}

func jsonKind(x any) string {
	switch x.(type) {
	case bool:
		return "JSON boolean"
	case float64, json.Number:
		return "JSON number"
	case string:
		return "JSON string"
	case []any:
		return "JSON array"
	case map[string]any:
		return "JSON object"
	default:
		return fmt.Sprintf("%T", x)
	}
}

func jsonInt(x any, k Kind) (int64, error) {
	switch t := x.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		return 0, rangeError(t, k)
	case float64:
		if t != math.Trunc(t) || t < math.MinInt64 || t >= math.MaxInt64 {
			return 0, rangeError(t, k)
		}
		return int64(t), nil
	default:
		return 0, kindError(k.String(), jsonKind(x))
	}
}

func jsonUint(x any, k Kind) (uint64, error) {
	switch t := x.(type) {
	case json.Number:
		if u, err := strconv.ParseUint(string(t), 10, 64); err == nil {
			return u, nil
		}
		return 0, rangeError(t, k)
	case float64:
		if t != math.Trunc(t) || t < 0 || t >= math.MaxUint64 {
			return 0, rangeError(t, k)
		}
		return uint64(t), nil
	default:
		return 0, kindError(k.String(), jsonKind(x))
	}
}

func jsonFloat(x any, k Kind) (float64, error) {
	switch t := x.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, rangeError(t, k)
		}
		return f, nil
	case float64:
		return t, nil
	case string:
		switch t {
		case "NaN":
			return math.NaN(), nil
		case "+Inf", "Inf":
			return math.Inf(1), nil
		case "-Inf":
			return math.Inf(-1), nil
		}
	}
	return 0, kindError(k.String(), jsonKind(x))
}
