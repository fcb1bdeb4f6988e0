package knx

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/nerrad567/gray-logic-codec/internal/codec"
	"github.com/nerrad567/gray-logic-codec/internal/codec/bitbuf"
	"github.com/nerrad567/gray-logic-codec/internal/codec/plcerr"
	"github.com/nerrad567/gray-logic-codec/internal/codec/values"
)

// KNX format constants.
const (
	// f16Invalid is the DPT 9 "invalid data" pattern.
	f16Invalid = 0x7FFF

	// f16MaxExponent is the largest DPT 9 exponent.
	f16MaxExponent = 15

	// f16MantissaMask selects the 11 mantissa bits of a DPT 9 value.
	f16MantissaMask = 0x07FF

	// stringBytes is the fixed length of a DPT 16 string.
	stringBytes = 14

	// dateYearPivot splits DPT 11 two-digit years between centuries:
	// 0-89 are 2000-2089, 90-99 are 1990-1999.
	dateYearPivot = 90

	// dateTimeYearBase is the epoch of the DPT 19 year field.
	dateTimeYearBase = 1900
)

// field is one sub-field of a fixed format layout. A field with no name is
// reserved: skipped on decode and zero-filled on encode.
type field struct {
	name string
	kind values.Kind
	bits uint8
}

func reserved(bits uint8) field { return field{bits: bits} }

func bit(name string) field { return field{name: name, kind: values.KindBool, bits: 1} }

func unsigned(name string, bits uint8) field {
	return field{name: name, kind: values.KindUByte, bits: bits}
}

func f16(name string) field { return field{name: name, kind: values.KindFloat, bits: 16} }

func widthOf(fields []field) uint16 {
	var w uint16
	for _, f := range fields {
		w += uint16(f.bits)
	}
	return w
}

// formatRules maps KNX format names to their rules.
var formatRules = map[string]codec.Rule{
	"B1":   scalar(reserved(7), bit("value")),
	"B2":   record(reserved(6), bit("control"), bit("value")),
	"B1U3": record(reserved(4), bit("control"), unsigned("stepCode", 3)),
	"N2":   scalar(reserved(6), unsigned("value", 2)),
	"N3":   scalar(reserved(5), unsigned("value", 3)),
	"r2U6": scalar(reserved(2), unsigned("value", 6)),

	"B1r1U6": record(bit("learn"), reserved(1), unsigned("sceneNumber", 6)),
	"r1b1U6": record(reserved(1), bit("sceneActive"), unsigned("sceneNumber", 6)),
	"B5N3": record(bit("a"), bit("b"), bit("c"), bit("d"), bit("e"),
		unsigned("mode", 3)),
	"U4U4": record(unsigned("busy", 4), unsigned("nak", 4)),

	"U8":  scalar(field{"value", values.KindUByte, 8}),
	"N8":  scalar(field{"value", values.KindUByte, 8}),
	"B8":  scalar(field{"value", values.KindUByte, 8}),
	"V8":  scalar(field{"value", values.KindByte, 8}),
	"U16": scalar(field{"value", values.KindUShort, 16}),
	"B16": scalar(field{"value", values.KindUShort, 16}),
	"V16": scalar(field{"value", values.KindShort, 16}),
	"F16": scalar(f16("value")),
	"U32": scalar(field{"value", values.KindUInt, 32}),
	"B32": scalar(field{"value", values.KindUInt, 32}),
	"V32": scalar(field{"value", values.KindInt, 32}),
	"F32": scalar(field{"value", values.KindFloat, 32}),
	"V64": scalar(field{"value", values.KindLong, 64}),

	"N3N5r2N6r2N6": record(
		unsigned("dayOfWeek", 3), unsigned("hour", 5),
		reserved(2), unsigned("minutes", 6),
		reserved(2), unsigned("seconds", 6)),

	"U4U4U4U4U4U4B4N4": record(
		unsigned("d6", 4), unsigned("d5", 4), unsigned("d4", 4),
		unsigned("d3", 4), unsigned("d2", 4), unsigned("d1", 4),
		bit("error"), bit("permission"), bit("direction"), bit("encrypted"),
		unsigned("index", 4)),

	"U8U8U8": record(
		unsigned("red", 8), unsigned("green", 8), unsigned("blue", 8)),

	"U8U8U8U8r4B4": record(
		unsigned("red", 8), unsigned("green", 8), unsigned("blue", 8), unsigned("white", 8),
		reserved(4), bit("redValid"), bit("greenValid"), bit("blueValid"), bit("whiteValid")),

	"F16F16F16": record(f16("comfort"), f16("standbyShift"), f16("economyShift")),

	"A8_ASCII":    stringRule(1, asciiCodec{}),
	"A8_8859_1":   stringRule(1, latin1Codec{}),
	"A112_ASCII":  stringRule(stringBytes, asciiCodec{}),
	"A112_8859_1": stringRule(stringBytes, latin1Codec{}),

	"r3N5r4N4r1U7":              dateRule(),
	"U8r4U4r3U5U3U5r2U6r2U6B16": dateTimeRule(),
	"B24":                       bitListRule(24),
}

// Entries returns the rule table entries for every KNX format.
func Entries() []codec.Entry {
	entries := make([]codec.Entry, 0, len(formatRules))
	for name, rule := range formatRules {
		entries = append(entries, codec.Entry{
			Key:  codec.Key{Family: codec.FamilyKNX, Format: name},
			Rule: rule,
		})
	}
	return entries
}

// ─── Layout rules ───────────────────────────────────────────────────

// scalar builds a rule whose layout holds exactly one named field. The
// field's value is returned unwrapped.
func scalar(fields ...field) codec.Rule {
	var value field
	for _, f := range fields {
		if f.name != "" {
			value = f
		}
	}
	return codec.Rule{
		Kind:     value.kind,
		Width:    widthOf(fields),
		Nullable: value.kind == values.KindFloat && value.bits == 16,
		Decode: func(rb *bitbuf.ReadBuffer, _ codec.Descriptor) (values.Value, error) {
			var out values.Value
			for _, f := range fields {
				v, err := readField(rb, f)
				if err != nil {
					return values.Value{}, err
				}
				if f.name != "" {
					out = v
				}
			}
			return out, nil
		},
		Encode: func(wb *bitbuf.WriteBuffer, v values.Value, _ codec.Descriptor) error {
			for _, f := range fields {
				if err := writeField(wb, f, v); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// record builds a rule that decodes its named fields into a STRUCT, in
// layout order.
func record(fields ...field) codec.Rule {
	return codec.Rule{
		Kind:  values.KindStruct,
		Width: widthOf(fields),
		Decode: func(rb *bitbuf.ReadBuffer, _ codec.Descriptor) (values.Value, error) {
			out := make([]values.Field, 0, len(fields))
			for _, f := range fields {
				v, err := readField(rb, f)
				if err != nil {
					return values.Value{}, err
				}
				if f.name != "" {
					out = append(out, values.F(f.name, v))
				}
			}
			return values.Struct(out...)
		},
		Encode: func(wb *bitbuf.WriteBuffer, v values.Value, _ codec.Descriptor) error {
			for _, f := range fields {
				var fv values.Value
				if f.name != "" {
					var err error
					if fv, err = structField(v, f.name); err != nil {
						return err
					}
				}
				if err := writeField(wb, f, fv); err != nil {
					return fmt.Errorf("field %s: %w", f.name, err)
				}
			}
			return nil
		},
	}
}

func readField(rb *bitbuf.ReadBuffer, f field) (values.Value, error) {
	switch {
	case f.name == "":
		return values.Value{}, rb.Skip(uint64(f.bits))
	case f.kind == values.KindBool:
		b, err := rb.ReadBit()
		if err != nil {
			return values.Value{}, err
		}
		return values.Bool(b), nil
	case f.kind == values.KindFloat && f.bits == 16:
		u, err := rb.ReadUint(16)
		if err != nil {
			return values.Value{}, err
		}
		return decodeF16(uint16(u)), nil //nolint:gosec // 16-bit read
	case f.kind == values.KindFloat:
		x, err := rb.ReadFloat32()
		if err != nil {
			return values.Value{}, err
		}
		return values.Float(x), nil
	case f.kind.IsSigned():
		i, err := rb.ReadInt(f.bits)
		if err != nil {
			return values.Value{}, err
		}
		return values.Signed(f.kind, i)
	default:
		u, err := rb.ReadUint(f.bits)
		if err != nil {
			return values.Value{}, err
		}
		return values.Unsigned(f.kind, u)
	}
}

func writeField(wb *bitbuf.WriteBuffer, f field, v values.Value) error {
	switch {
	case f.name == "":
		return wb.WritePadding(uint64(f.bits))
	case f.kind == values.KindBool:
		b, err := v.AsBool()
		if err != nil {
			return err
		}
		return wb.WriteBit(b)
	case f.kind == values.KindFloat && f.bits == 16:
		if v.IsNull() {
			return wb.WriteUint(16, f16Invalid)
		}
		x, err := v.AsFloat64()
		if err != nil {
			return err
		}
		raw, err := encodeF16(x)
		if err != nil {
			return err
		}
		return wb.WriteUint(16, uint64(raw))
	case f.kind == values.KindFloat:
		x, err := v.AsFloat64()
		if err != nil {
			return err
		}
		x32, err := codec.ToFloat32(x)
		if err != nil {
			return err
		}
		return wb.WriteFloat32(x32)
	case f.kind.IsSigned():
		i, err := v.AsInt64()
		if err != nil {
			return err
		}
		return wb.WriteInt(f.bits, i)
	default:
		u, err := v.AsUint64()
		if err != nil {
			return err
		}
		return wb.WriteUint(f.bits, u)
	}
}

// structField returns the named field of a STRUCT value.
func structField(v values.Value, name string) (values.Value, error) {
	fv, ok := v.Field(name)
	if !ok {
		return values.Value{}, &plcerr.KindError{
			Want: fmt.Sprintf("%s with field %q", values.KindStruct, name),
			Got:  v.Kind().String(),
		}
	}
	return fv, nil
}

// optionalField is structField for fields that default to zero when absent.
func optionalField(v values.Value, name string, zero values.Value) values.Value {
	if fv, ok := v.Field(name); ok {
		return fv
	}
	return zero
}

// ─── 2-byte float (DPT 9) ───────────────────────────────────────────

// decodeF16 converts a KNX 2-byte float.
//
// Layout: MEEE EMMM MMMM MMMM, where M is an 11-bit two's-complement
// mantissa whose sign bit leads the word and E is a 4-bit exponent.
//
//	value = 0.01 × mantissa × 2^exponent
//
// The pattern 0x7FFF marks invalid data and decodes to NULL.
func decodeF16(raw uint16) values.Value {
	if raw == f16Invalid {
		return values.Null()
	}
	exp := (raw >> 11) & 0x0F
	mantissa := int32(raw & f16MantissaMask)
	if raw&0x8000 != 0 {
		mantissa |= -0x800 // sign extend
	}
	return values.Float(float32(float64(mantissa) * float64(int32(1)<<exp) / 100))
}

// f16RangeTarget names the encodable F16 range. The largest value is
// 2046 × 2^15 / 100 since mantissa 2047 at exponent 15 is the invalid pattern.
const f16RangeTarget = "F16 (-671088.64..670433.28)"

// encodeF16 converts f to a KNX 2-byte float, choosing the smallest
// exponent whose mantissa fits in 11 bits.
//
// Returns:
//   - uint16: Encoded value
//   - error: *plcerr.RangeError if f needs an exponent above 15, or would
//     collide with the invalid-data pattern
func encodeF16(f float64) (uint16, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, plcerr.Range(f, "F16")
	}

	exp := 0
	mantissa := math.Round(f * 100)
	for mantissa < -2048 || mantissa > 2047 {
		exp++
		if exp > f16MaxExponent {
			return 0, plcerr.Range(f, f16RangeTarget)
		}
		mantissa = math.Round(f * 100 / float64(int32(1)<<exp))
	}

	raw := uint16(exp)<<11 | uint16(int16(mantissa))&f16MantissaMask //nolint:gosec // exp ≤ 15, mantissa fits 12 bits
	if mantissa < 0 {
		raw |= 0x8000
	}
	if raw == f16Invalid {
		return 0, plcerr.Range(f, f16RangeTarget+", 0x7FFF is reserved for invalid data")
	}
	return raw, nil
}

// ─── Strings ────────────────────────────────────────────────────────

type charCodec interface {
	decode(b []byte) (string, error)
	encode(s string) ([]byte, error)
	name() string
}

type asciiCodec struct{}

func (asciiCodec) name() string { return "ASCII" }

func (asciiCodec) decode(b []byte) (string, error) {
	for _, c := range b {
		if c > 0x7F {
			return "", plcerr.Range(fmt.Sprintf("0x%02X", c), "ASCII")
		}
	}
	return string(b), nil
}

func (asciiCodec) encode(s string) ([]byte, error) {
	for _, r := range s {
		if r > 0x7F {
			return nil, plcerr.Range(fmt.Sprintf("%q", r), "ASCII")
		}
	}
	return []byte(s), nil
}

type latin1Codec struct{}

func (latin1Codec) name() string { return "ISO 8859-1" }

func (latin1Codec) decode(b []byte) (string, error) {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("knx: decode ISO 8859-1: %w", err)
	}
	return string(s), nil
}

func (latin1Codec) encode(s string) ([]byte, error) {
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, plcerr.Range(fmt.Sprintf("%q", s), "ISO 8859-1")
	}
	return b, nil
}

// stringRule builds a fixed-length character rule. One-byte formats hold a
// single character; longer formats are NUL padded on the right.
func stringRule(n int, cc charCodec) codec.Rule {
	return codec.Rule{
		Kind:  values.KindString,
		Width: uint16(n * 8), //nolint:gosec // n is a small constant
		Decode: func(rb *bitbuf.ReadBuffer, _ codec.Descriptor) (values.Value, error) {
			b, err := rb.ReadBytes(n)
			if err != nil {
				return values.Value{}, err
			}
			if n > 1 {
				b = []byte(strings.TrimRight(string(b), "\x00"))
			}
			s, err := cc.decode(b)
			if err != nil {
				return values.Value{}, err
			}
			return values.String(s), nil
		},
		Encode: func(wb *bitbuf.WriteBuffer, v values.Value, _ codec.Descriptor) error {
			s, err := v.AsString()
			if err != nil {
				return err
			}
			b, err := cc.encode(s)
			if err != nil {
				return err
			}
			if n == 1 && len(b) != 1 {
				return plcerr.Range(fmt.Sprintf("%q", s), "single "+cc.name()+" character")
			}
			if len(b) > n {
				return plcerr.Range(fmt.Sprintf("%d bytes", len(b)), fmt.Sprintf("%s string of %d bytes", cc.name(), n))
			}
			if err := wb.WriteBytes(b); err != nil {
				return err
			}
			return wb.WritePadding(uint64(n-len(b)) * 8) //nolint:gosec // len(b) ≤ n
		},
	}
}

// ─── Dates and bit lists ────────────────────────────────────────────

// dateRule decodes DPT 11 (r3 day5 r4 month4 r1 year7) to a DATE_AND_TIME at
// midnight UTC.
func dateRule() codec.Rule {
	fields := []field{
		reserved(3), unsigned("day", 5),
		reserved(4), unsigned("month", 4),
		reserved(1), unsigned("year", 7),
	}
	inner := record(fields...)
	return codec.Rule{
		Kind:  values.KindDateTime,
		Width: inner.Width,
		Decode: func(rb *bitbuf.ReadBuffer, d codec.Descriptor) (values.Value, error) {
			v, err := inner.Decode(rb, d)
			if err != nil {
				return values.Value{}, err
			}
			day, month, year := fieldUint(v, "day"), fieldUint(v, "month"), fieldUint(v, "year")
			if year > 99 {
				return values.Value{}, plcerr.Range(fmt.Sprintf("%02d-%02d-%02d", year, month, day), "calendar date")
			}
			y := 2000 + int(year)
			if year >= dateYearPivot {
				y = 1900 + int(year)
			}
			t, err := calendarTime(y, int(month), int(day), 0, 0, 0)
			if err != nil {
				return values.Value{}, err
			}
			return values.DateTime(t), nil
		},
		Encode: func(wb *bitbuf.WriteBuffer, v values.Value, d codec.Descriptor) error {
			t, err := v.AsTime()
			if err != nil {
				return err
			}
			y, m, day := t.Date()
			if y < 1900+dateYearPivot || y >= 2000+dateYearPivot {
				return plcerr.Range(y, "DPT 11 year (1990..2089)")
			}
			//nolint:gosec // day, month and two-digit year are bounded
			return inner.Encode(wb, values.MustStruct(
				values.F("day", values.UByte(uint8(day))),
				values.F("month", values.UByte(uint8(m))),
				values.F("year", values.UByte(uint8(y%100))),
			), d)
		},
	}
}

var dateTimeFlags = []string{
	"fault", "workingDay", "noWorkingDay", "noYear", "noMonthAndDay",
	"noDayOfWeek", "noTime", "standardSummerTime", "clockWithSyncSignal",
}

// dateTimeRule decodes DPT 19 to a STRUCT holding the calendar time as a
// DATE_AND_TIME plus the day of week and status flags.
func dateTimeRule() codec.Rule {
	fields := []field{
		unsigned("year", 8),
		reserved(4), unsigned("month", 4),
		reserved(3), unsigned("day", 5),
		unsigned("dayOfWeek", 3), unsigned("hour", 5),
		reserved(2), unsigned("minutes", 6),
		reserved(2), unsigned("seconds", 6),
	}
	for _, name := range dateTimeFlags {
		fields = append(fields, bit(name))
	}
	fields = append(fields, reserved(7))
	inner := record(fields...)

	return codec.Rule{
		Kind:  values.KindStruct,
		Width: inner.Width,
		Decode: func(rb *bitbuf.ReadBuffer, d codec.Descriptor) (values.Value, error) {
			v, err := inner.Decode(rb, d)
			if err != nil {
				return values.Value{}, err
			}
			// Month and day are zero when the noMonthAndDay flag is set.
			month, day := int(fieldUint(v, "month")), int(fieldUint(v, "day"))
			if fieldBool(v, "noMonthAndDay") {
				month, day = 1, 1
			}
			// Hour 24 (end of day) has no time.Time form and is rejected.
			t, err := calendarTime(dateTimeYearBase+int(fieldUint(v, "year")), month, day,
				int(fieldUint(v, "hour")), int(fieldUint(v, "minutes")), int(fieldUint(v, "seconds")))
			if err != nil {
				return values.Value{}, err
			}

			out := []values.Field{
				values.F("dateTime", values.DateTime(t)),
				values.F("dayOfWeek", values.UByte(uint8(fieldUint(v, "dayOfWeek")))), //nolint:gosec // 3 bits
			}
			for _, name := range dateTimeFlags {
				f, _ := v.Field(name)
				out = append(out, values.F(name, f))
			}
			return values.Struct(out...)
		},
		Encode: func(wb *bitbuf.WriteBuffer, v values.Value, d codec.Descriptor) error {
			tv, err := structField(v, "dateTime")
			if err != nil {
				return err
			}
			t, err := tv.AsTime()
			if err != nil {
				return err
			}
			if t.Year() < dateTimeYearBase || t.Year() > dateTimeYearBase+255 {
				return plcerr.Range(t.Year(), "DPT 19 year (1900..2155)")
			}
			month, day := uint8(t.Month()), uint8(t.Day()) //nolint:gosec // bounded by time.Time
			if noDate, _ := optionalField(v, "noMonthAndDay", values.Bool(false)).AsBool(); noDate {
				month, day = 0, 0
			}
			//nolint:gosec // calendar fields are bounded by time.Time and the year check
			raw := []values.Field{
				values.F("year", values.UByte(uint8(t.Year()-dateTimeYearBase))),
				values.F("month", values.UByte(month)),
				values.F("day", values.UByte(day)),
				values.F("dayOfWeek", optionalField(v, "dayOfWeek", values.UByte(0))),
				values.F("hour", values.UByte(uint8(t.Hour()))),
				values.F("minutes", values.UByte(uint8(t.Minute()))),
				values.F("seconds", values.UByte(uint8(t.Second()))),
			}
			for _, name := range dateTimeFlags {
				raw = append(raw, values.F(name, optionalField(v, name, values.Bool(false))))
			}
			return inner.Encode(wb, values.MustStruct(raw...), d)
		},
	}
}

// bitListRule decodes n bits, most significant first, into a LIST of BOOL.
func bitListRule(n int) codec.Rule {
	return codec.Rule{
		Kind:  values.KindList,
		Width: uint16(n), //nolint:gosec // n is a small constant
		Decode: func(rb *bitbuf.ReadBuffer, _ codec.Descriptor) (values.Value, error) {
			out := make([]values.Value, n)
			for i := range out {
				b, err := rb.ReadBit()
				if err != nil {
					return values.Value{}, err
				}
				out[i] = values.Bool(b)
			}
			return values.List(out...), nil
		},
		Encode: func(wb *bitbuf.WriteBuffer, v values.Value, _ codec.Descriptor) error {
			elems, err := v.AsList()
			if err != nil {
				return err
			}
			if len(elems) != n {
				return plcerr.Range(fmt.Sprintf("list of %d", len(elems)), fmt.Sprintf("%d bits", n))
			}
			for _, e := range elems {
				b, err := e.AsBool()
				if err != nil {
					return err
				}
				if err := wb.WriteBit(b); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// fieldUint reads an unsigned field from a STRUCT produced by record.
func fieldBool(v values.Value, name string) bool {
	f, _ := v.Field(name)
	b, _ := f.AsBool()
	return b
}

// calendarTime builds a UTC time, rejecting fields that time.Date would
// normalise into a different instant (31 February, hour 24, minute 60).
func calendarTime(year, month, day, hour, minute, second int) (time.Time, error) {
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if month < 1 || month > 12 || t.Day() != day || t.Hour() != hour || t.Minute() != minute || t.Second() != second {
		return time.Time{}, plcerr.Range(
			fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", year, month, day, hour, minute, second),
			"calendar date and time")
	}
	return t, nil
}

func fieldUint(v values.Value, name string) uint64 {
	f, _ := v.Field(name)
	u, _ := f.AsUint64()
	return u
}
