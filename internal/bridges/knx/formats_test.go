package knx

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-codec/internal/codec"
	"github.com/nerrad567/gray-logic-codec/internal/codec/values"
)

func newCodec(t testing.TB) *codec.Codec {
	t.Helper()
	table, err := codec.NewTable(Entries())
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	return codec.New(table)
}

func descriptor(t testing.TB, token string) codec.Descriptor {
	t.Helper()
	d, err := ParseDescriptor(token)
	if err != nil {
		t.Fatalf("ParseDescriptor(%q) error = %v", token, err)
	}
	return d
}

func u8(v uint8) values.Value { return values.UByte(v) }

// ─── Wire layouts ───────────────────────────────────────────────────

// Each case decodes data to want and encodes want back to data.
var layoutTests = []struct {
	name  string
	dpt   string
	data  []byte
	value values.Value
}{
	{"switch on", "1.001", []byte{0x01}, values.Bool(true)},
	{"switch off", "1.001", []byte{0x00}, values.Bool(false)},
	{"switch control", "2.001", []byte{0x02},
		values.MustStruct(values.F("control", values.Bool(true)), values.F("value", values.Bool(false)))},
	{"dimming up 3", "3.007", []byte{0x0B},
		values.MustStruct(values.F("control", values.Bool(true)), values.F("stepCode", u8(3)))},
	{"ascii char", "4.001", []byte{0x41}, values.String("A")},
	{"latin-1 char", "4.002", []byte{0xE9}, values.String("é")},
	{"scaling full", "5.001", []byte{0xFF}, values.Double(100)},
	{"scaling zero", "5.001", []byte{0x00}, values.Double(0)},
	{"angle full", "5.003", []byte{0xFF}, values.Double(360)},
	{"percent u8", "5.004", []byte{0xC8}, u8(200)},
	{"percent v8", "6.001", []byte{0xFF}, values.Byte(-1)},
	{"status mode3", "6.020", []byte{0xA2}, values.MustStruct(
		values.F("a", values.Bool(true)), values.F("b", values.Bool(false)), values.F("c", values.Bool(true)),
		values.F("d", values.Bool(false)), values.F("e", values.Bool(false)), values.F("mode", u8(2)))},
	{"2-byte unsigned", "7.001", []byte{0x12, 0x34}, values.UShort(0x1234)},
	{"2-byte signed", "8.001", []byte{0xFF, 0xFE}, values.Short(-2)},
	{"temperature", "9.001", []byte{0x0C, 0x33}, values.Float(21.5)},
	{"negative temperature", "9.001", []byte{0x8A, 0x24}, values.Float(-30)},
	{"zero float", "9.001", []byte{0x00, 0x00}, values.Float(0)},
	{"invalid float", "9.001", []byte{0x7F, 0xFF}, values.Null()},
	{"time of day", "10.001", []byte{0x2D, 0x2D, 0x1E}, values.MustStruct(
		values.F("dayOfWeek", u8(1)), values.F("hour", u8(13)),
		values.F("minutes", u8(45)), values.F("seconds", u8(30)))},
	{"date 2024", "11.001", []byte{0x0F, 0x03, 0x18},
		values.DateTime(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))},
	{"date 1995", "11.001", []byte{0x1F, 0x0C, 0x5F},
		values.DateTime(time.Date(1995, time.December, 31, 0, 0, 0, 0, time.UTC))},
	{"4-byte unsigned", "12.001", []byte{0x00, 0x00, 0x01, 0x00}, values.UInt(256)},
	{"active energy", "13.010", []byte{0xFF, 0xFF, 0xFF, 0xFF}, values.Int(-1)},
	{"electric current", "Value_Electric_Current", []byte{0x41, 0xB0, 0x00, 0x00}, values.Float(22)},
	{"access data", "15.000", []byte{0x12, 0x34, 0x56, 0x83}, values.MustStruct(
		values.F("d6", u8(1)), values.F("d5", u8(2)), values.F("d4", u8(3)),
		values.F("d3", u8(4)), values.F("d2", u8(5)), values.F("d1", u8(6)),
		values.F("error", values.Bool(true)), values.F("permission", values.Bool(false)),
		values.F("direction", values.Bool(false)), values.F("encrypted", values.Bool(false)),
		values.F("index", u8(3)))},
	{"ascii string", "16.000",
		[]byte{'K', 'N', 'X', ' ', 'i', 's', ' ', 'O', 'K', 0, 0, 0, 0, 0}, values.String("KNX is OK")},
	{"latin-1 string", "16.001",
		[]byte{0x47, 0x72, 0xFC, 0xDF, 0x65, 0, 0, 0, 0, 0, 0, 0, 0, 0}, values.String("Grüße")},
	{"empty ascii string", "16.000", make([]byte, 14), values.String("")},
	{"empty latin-1 string", "16.001", make([]byte, 14), values.String("")},
	{"scene number", "17.001", []byte{0x3F}, u8(63)},
	{"scene control", "18.001", []byte{0x85},
		values.MustStruct(values.F("learn", values.Bool(true)), values.F("sceneNumber", u8(5)))},
	{"date time", "19.001", []byte{0x7C, 0x03, 0x0F, 0xAD, 0x2D, 0x1E, 0x40, 0x00}, values.MustStruct(
		values.F("dateTime", values.DateTime(time.Date(2024, time.March, 15, 13, 45, 30, 0, time.UTC))),
		values.F("dayOfWeek", u8(5)),
		values.F("fault", values.Bool(false)),
		values.F("workingDay", values.Bool(true)),
		values.F("noWorkingDay", values.Bool(false)),
		values.F("noYear", values.Bool(false)),
		values.F("noMonthAndDay", values.Bool(false)),
		values.F("noDayOfWeek", values.Bool(false)),
		values.F("noTime", values.Bool(false)),
		values.F("standardSummerTime", values.Bool(false)),
		values.F("clockWithSyncSignal", values.Bool(false)))},
	{"hvac mode", "20.102", []byte{0x01}, u8(1)},
	{"status byte", "21.001", []byte{0x81}, u8(0x81)},
	{"status word", "22.100", []byte{0x80, 0x01}, values.UShort(0x8001)},
	{"on/off action", "23.001", []byte{0x03}, u8(3)},
	{"double nibble", "25.1000", []byte{0x21},
		values.MustStruct(values.F("busy", u8(2)), values.F("nak", u8(1)))},
	{"scene info", "26.001", []byte{0x45},
		values.MustStruct(values.F("sceneActive", values.Bool(true)), values.F("sceneNumber", u8(5)))},
	{"combined info", "27.001", []byte{0xDE, 0xAD, 0xBE, 0xEF}, values.UInt(0xDEADBEEF)},
	{"energy v64", "29.010", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFE}, values.Long(-2)},
	{"extended action", "31.101", []byte{0x05}, u8(5)},
	{"setpoints", "222.100", []byte{0x0C, 0x33, 0x7F, 0xFF, 0x8A, 0x24}, values.MustStruct(
		values.F("comfort", values.Float(21.5)),
		values.F("standbyShift", values.Null()),
		values.F("economyShift", values.Float(-30)))},
	{"rgb", "232.600", []byte{0xFF, 0x80, 0x00},
		values.MustStruct(values.F("red", u8(255)), values.F("green", u8(128)), values.F("blue", u8(0)))},
	{"rgbw", "251.600", []byte{0x01, 0x02, 0x03, 0x04, 0x0F}, values.MustStruct(
		values.F("red", u8(1)), values.F("green", u8(2)), values.F("blue", u8(3)), values.F("white", u8(4)),
		values.F("redValid", values.Bool(true)), values.F("greenValid", values.Bool(true)),
		values.F("blueValid", values.Bool(true)), values.F("whiteValid", values.Bool(true)))},
}

func TestFormats_Decode(t *testing.T) {
	c := newCodec(t)
	for _, tt := range layoutTests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Decode(tt.data, descriptor(t, tt.dpt))
			if err != nil {
				t.Fatalf("Decode(% X) error = %v", tt.data, err)
			}
			if !values.Equal(got, tt.value) {
				t.Errorf("Decode(% X) = %v, want %v", tt.data, got, tt.value)
			}
		})
	}
}

func TestFormats_Encode(t *testing.T) {
	c := newCodec(t)
	for _, tt := range layoutTests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Encode(tt.value, descriptor(t, tt.dpt))
			if err != nil {
				t.Fatalf("Encode(%v) error = %v", tt.value, err)
			}
			if !bytes.Equal(got, tt.data) {
				t.Errorf("Encode(%v) = % X, want % X", tt.value, got, tt.data)
			}
		})
	}
}

func TestFormats_ShortFrameReservedBitsIgnored(t *testing.T) {
	c := newCodec(t)
	// Only bit 0 carries a DPT 1 value.
	v, err := c.Decode([]byte{0x80}, descriptor(t, "1.001"))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !values.Equal(v, values.Bool(false)) {
		t.Errorf("Decode(0x80) = %v, want false", v)
	}

	v, err = c.Decode([]byte{0xC5}, descriptor(t, "17.001"))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !values.Equal(v, u8(5)) {
		t.Errorf("Decode(0xC5) = %v, want 5", v)
	}
}

func TestFormats_Scaling(t *testing.T) {
	c := newCodec(t)
	d := descriptor(t, DPTPercentage)

	v, err := c.Decode([]byte{0x80}, d)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if f, _ := v.AsFloat64(); math.Abs(f-50.196) > 0.001 {
		t.Errorf("Decode(0x80) = %v, want ~50.196", v)
	}

	got, err := c.Encode(values.Double(50), d)
	if err != nil {
		t.Fatalf("Encode(50) error = %v", err)
	}
	if !bytes.Equal(got, []byte{0x80}) {
		t.Errorf("Encode(50) = % X, want 80", got)
	}

	// Integer inputs are accepted and scaled.
	if got, _ := c.Encode(values.Long(100), d); !bytes.Equal(got, []byte{0xFF}) {
		t.Errorf("Encode(LONG 100) = % X, want FF", got)
	}
}

func TestFormats_BitList(t *testing.T) {
	c := newCodec(t)
	v, err := c.Decode([]byte{0x80, 0x00, 0x01}, descriptor(t, "30.1010"))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	elems, err := v.AsList()
	if err != nil || len(elems) != 24 {
		t.Fatalf("Decode() = %v, want LIST of 24", v)
	}
	for i, e := range elems {
		want := i == 0 || i == 23
		if !values.Equal(e, values.Bool(want)) {
			t.Errorf("bit %d = %v, want %v", i, e, want)
		}
	}

	got, err := c.Encode(v, descriptor(t, "30.1010"))
	if err != nil || !bytes.Equal(got, []byte{0x80, 0x00, 0x01}) {
		t.Errorf("Encode() = % X, %v", got, err)
	}
}

func TestFormats_DateTimeDefaults(t *testing.T) {
	c := newCodec(t)
	// Flags and day of week may be omitted when encoding.
	in := values.MustStruct(values.F("dateTime",
		values.DateTime(time.Date(2024, time.March, 15, 13, 45, 30, 0, time.UTC))))
	got, err := c.Encode(in, descriptor(t, DPTDateTime))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := []byte{0x7C, 0x03, 0x0F, 0x0D, 0x2D, 0x1E, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode() = % X, want % X", got, want)
	}
}

func TestFormats_DateTimeWithoutMonthAndDay(t *testing.T) {
	c := newCodec(t)
	d := descriptor(t, DPTDateTime)
	// 2024, month and day unset, 12:00:00, noMonthAndDay.
	data := []byte{0x7C, 0x00, 0x00, 0x0C, 0x00, 0x00, 0x08, 0x00}

	v, err := c.Decode(data, d)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	dt, _ := v.Field("dateTime")
	got, err := dt.AsTime()
	if err != nil || !got.Equal(time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("dateTime = %v, %v", got, err)
	}

	back, err := c.Encode(v, d)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Equal(back, data) {
		t.Errorf("Encode() = % X, want % X", back, data)
	}
}

// ─── Failures ───────────────────────────────────────────────────────

func TestFormats_DecodeErrors(t *testing.T) {
	c := newCodec(t)
	tests := []struct {
		name string
		dpt  string
		data []byte
		want error
	}{
		{"short float", "9.001", []byte{0x0C}, codec.ErrBufferUnderflow},
		{"empty switch", "1.001", nil, codec.ErrBufferUnderflow},
		{"short string", "16.000", []byte("abc"), codec.ErrBufferUnderflow},
		{"zero day", "11.001", []byte{0x00, 0x01, 0x01}, codec.ErrValueOutOfRange},
		{"month 13", "11.001", []byte{0x01, 0x0D, 0x01}, codec.ErrValueOutOfRange},
		{"31 february", "11.001", []byte{0x1F, 0x02, 0x18}, codec.ErrValueOutOfRange},
		{"31 april", "11.001", []byte{0x1F, 0x04, 0x18}, codec.ErrValueOutOfRange},
		{"date time hour 24", "19.001", []byte{0x7C, 0x06, 0x1E, 0x18, 0x00, 0x00, 0x00, 0x00}, codec.ErrValueOutOfRange},
		{"date time minute 60", "19.001", []byte{0x7C, 0x06, 0x1E, 0x0C, 0x3C, 0x00, 0x00, 0x00}, codec.ErrValueOutOfRange},
		{"date time 30 february", "19.001", []byte{0x7C, 0x02, 0x1E, 0x0C, 0x00, 0x00, 0x00, 0x00}, codec.ErrValueOutOfRange},
		{"date time month 0", "19.001", []byte{0x7C, 0x00, 0x01, 0x0C, 0x00, 0x00, 0x00, 0x00}, codec.ErrValueOutOfRange},
		{"non-ascii", "4.001", []byte{0xE9}, codec.ErrValueOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decode(tt.data, descriptor(t, tt.dpt))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode(% X) error = %v, want %v", tt.data, err, tt.want)
			}
		})
	}
}

func TestFormats_EncodeErrors(t *testing.T) {
	c := newCodec(t)
	tests := []struct {
		name  string
		dpt   string
		value values.Value
		want  error
	}{
		{"string to switch", "1.001", values.String("on"), codec.ErrValueKindMismatch},
		{"null to switch", "1.001", values.Null(), codec.ErrValueKindMismatch},
		{"scaling above 100", "5.001", values.Double(101), codec.ErrValueOutOfRange},
		{"scene 64", "17.001", values.UByte(64), codec.ErrValueOutOfRange},
		{"float too large", "9.001", values.Double(1e7), codec.ErrValueOutOfRange},
		{"float invalid pattern", "9.001", values.Double(670760.96), codec.ErrValueOutOfRange},
		{"non-ascii char", "4.001", values.String("é"), codec.ErrValueOutOfRange},
		{"two chars", "4.002", values.String("ab"), codec.ErrValueOutOfRange},
		{"euro sign latin-1", "16.001", values.String("5 €"), codec.ErrValueOutOfRange},
		{"string too long", "16.000", values.String("fifteen chars!!"), codec.ErrValueOutOfRange},
		{"date year 2090", "11.001", values.DateTime(time.Date(2090, 1, 1, 0, 0, 0, 0, time.UTC)), codec.ErrValueOutOfRange},
		{"rgb missing blue", "232.600",
			values.MustStruct(values.F("red", u8(1)), values.F("green", u8(2))), codec.ErrValueKindMismatch},
		{"rgb as list", "232.600", values.List(u8(1), u8(2), u8(3)), codec.ErrValueKindMismatch},
		{"bit list too short", "30.1010", values.List(values.Bool(true)), codec.ErrValueOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Encode(tt.value, descriptor(t, tt.dpt))
			if !errors.Is(err, tt.want) {
				t.Errorf("Encode(%v) error = %v, want %v", tt.value, err, tt.want)
			}
		})
	}
}

// ─── 2-byte float ───────────────────────────────────────────────────

func TestEncodeF16_RangeMessage(t *testing.T) {
	for _, v := range []float64{670760.96, 700000, -700000} {
		_, err := encodeF16(v)
		if !errors.Is(err, codec.ErrValueOutOfRange) {
			t.Fatalf("encodeF16(%v) error = %v, want ErrValueOutOfRange", v, err)
		}
		if !strings.Contains(err.Error(), "-671088.64..670433.28") {
			t.Errorf("encodeF16(%v) error = %q, want the encodable range", v, err)
		}
	}
}

func TestEncodeF16(t *testing.T) {
	tests := []struct {
		value float64
		want  uint16
	}{
		{0, 0x0000},
		{0.01, 0x0001},
		{-0.01, 0x87FF},
		{20.47, 0x07FF},
		{21.5, 0x0C33},
		{-30, 0x8A24},
		{-671088.64, 0xF800},
		{670433.28, 0x7FFE},
	}
	for _, tt := range tests {
		got, err := encodeF16(tt.value)
		if err != nil {
			t.Errorf("encodeF16(%v) error = %v", tt.value, err)
			continue
		}
		if got != tt.want {
			t.Errorf("encodeF16(%v) = 0x%04X, want 0x%04X", tt.value, got, tt.want)
		}
	}

	for _, bad := range []float64{-671088.65 * 2, 680000, math.NaN(), math.Inf(1)} {
		if _, err := encodeF16(bad); !errors.Is(err, codec.ErrValueOutOfRange) {
			t.Errorf("encodeF16(%v) error = %v, want ErrValueOutOfRange", bad, err)
		}
	}
}

func TestF16_RoundTrip(t *testing.T) {
	for _, v := range []float64{-273, -30, -0.5, 0, 0.5, 1, 19.99, 21.5, 100, 1000, 65000, 670000} {
		raw, err := encodeF16(v)
		if err != nil {
			t.Errorf("encodeF16(%v) error = %v", v, err)
			continue
		}
		got, err := decodeF16(raw).AsFloat64()
		if err != nil {
			t.Errorf("decodeF16(0x%04X) error = %v", raw, err)
			continue
		}
		// Precision is 0.01 × 2^exponent, at most 1% of the magnitude.
		tolerance := math.Max(math.Abs(v)*0.01, 0.01)
		if math.Abs(got-v) > tolerance {
			t.Errorf("round trip %v → 0x%04X → %v", v, raw, got)
		}
	}
}

func BenchmarkDecodeF16(b *testing.B) {
	c := newCodec(b)
	d := descriptor(b, DPTTemperature)
	data := []byte{0x0C, 0x33}
	for i := 0; i < b.N; i++ {
		c.Decode(data, d) //nolint:errcheck // benchmark
	}
}

func BenchmarkEncodeDateTime(b *testing.B) {
	c := newCodec(b)
	d := descriptor(b, DPTDateTime)
	v := values.MustStruct(values.F("dateTime", values.DateTime(time.Date(2024, 3, 15, 13, 45, 30, 0, time.UTC))))
	for i := 0; i < b.N; i++ {
		c.Encode(v, d) //nolint:errcheck // benchmark
	}
}
