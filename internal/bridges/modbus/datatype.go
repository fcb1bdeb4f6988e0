// Package modbus parses Modbus register addresses and supplies the rule
// table entries that decode Modbus data types.
//
// Address grammar:
//
//	registerType ":" start [":" dataType] ["[" count "]"]
//	<0|1|3|4|6> "x" start  [":" dataType] ["[" count "]"]
//
// Examples: "coil:3[4]", "holding-register:1:REAL", "4x00010:DINT[2]".
package modbus

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/nerrad567/gray-logic-codec/internal/codec"
	"github.com/nerrad567/gray-logic-codec/internal/codec/bitbuf"
	"github.com/nerrad567/gray-logic-codec/internal/codec/plcerr"
	"github.com/nerrad567/gray-logic-codec/internal/codec/values"
)

// DataType is an IEC 61131-3 elementary type as carried in Modbus registers.
type DataType struct {
	Name string
	Kind values.Kind
	Bits uint8
}

// Supported data types.
var (
	BOOL  = DataType{"BOOL", values.KindBool, 1}
	BYTE  = DataType{"BYTE", values.KindUByte, 8}
	WORD  = DataType{"WORD", values.KindUShort, 16}
	DWORD = DataType{"DWORD", values.KindUInt, 32}
	LWORD = DataType{"LWORD", values.KindULong, 64}
	SINT  = DataType{"SINT", values.KindByte, 8}
	USINT = DataType{"USINT", values.KindUByte, 8}
	INT   = DataType{"INT", values.KindShort, 16}
	UINT  = DataType{"UINT", values.KindUShort, 16}
	DINT  = DataType{"DINT", values.KindInt, 32}
	UDINT = DataType{"UDINT", values.KindUInt, 32}
	LINT  = DataType{"LINT", values.KindLong, 64}
	ULINT = DataType{"ULINT", values.KindULong, 64}
	REAL  = DataType{"REAL", values.KindFloat, 32}
	LREAL = DataType{"LREAL", values.KindDouble, 64}
	CHAR  = DataType{"CHAR", values.KindString, 8}
	WCHAR = DataType{"WCHAR", values.KindString, 16}
)

var dataTypes = map[string]DataType{}

func init() {
	for _, dt := range []DataType{
		BOOL, BYTE, WORD, DWORD, LWORD,
		SINT, USINT, INT, UINT, DINT, UDINT, LINT, ULINT,
		REAL, LREAL, CHAR, WCHAR,
	} {
		dataTypes[dt.Name] = dt
	}
}

// LookupDataType finds a data type by name, case-insensitively.
func LookupDataType(name string) (DataType, bool) {
	dt, ok := dataTypes[strings.ToUpper(name)]
	return dt, ok
}

// Entries returns the rule table entries for every Modbus data type.
func Entries() []codec.Entry {
	rule := func(dt DataType) codec.Rule {
		switch {
		case dt == BOOL:
			return codec.BitRule()
		case dt == REAL:
			return codec.Float32Rule()
		case dt == LREAL:
			return codec.Float64Rule()
		case dt == CHAR:
			return charRule()
		case dt == WCHAR:
			return wcharRule()
		case dt.Kind.IsSigned():
			return codec.SignedRule(dt.Kind, dt.Bits)
		default:
			return codec.UnsignedRule(dt.Kind, dt.Bits)
		}
	}

	entries := make([]codec.Entry, 0, len(dataTypes))
	for _, dt := range dataTypes {
		entries = append(entries, codec.Entry{
			Key:  codec.Key{Family: codec.FamilyModbus, Format: dt.Name},
			Rule: rule(dt),
		})
	}
	return entries
}

// charRule decodes one ISO 8859-1 character per byte.
func charRule() codec.Rule {
	return codec.Rule{
		Kind:  values.KindString,
		Width: 8,
		Decode: func(rb *bitbuf.ReadBuffer, _ codec.Descriptor) (values.Value, error) {
			b, err := rb.ReadBytes(1)
			if err != nil {
				return values.Value{}, err
			}
			s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
			if err != nil {
				return values.Value{}, fmt.Errorf("modbus: decode CHAR: %w", err)
			}
			return values.String(string(s)), nil
		},
		Encode: func(wb *bitbuf.WriteBuffer, v values.Value, _ codec.Descriptor) error {
			s, err := singleChar(v)
			if err != nil {
				return err
			}
			b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
			if err != nil {
				return plcerr.Range(s, "CHAR (ISO 8859-1)")
			}
			return wb.WriteBytes(b)
		},
	}
}

// wcharRule decodes one UTF-16 code unit per register, big-endian on the
// wire before any register byte order is applied.
func wcharRule() codec.Rule {
	utf16 := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	return codec.Rule{
		Kind:  values.KindString,
		Width: 16,
		Decode: func(rb *bitbuf.ReadBuffer, _ codec.Descriptor) (values.Value, error) {
			u, err := rb.ReadUint(16)
			if err != nil {
				return values.Value{}, err
			}
			s, err := utf16.NewDecoder().Bytes([]byte{byte(u >> 8), byte(u)})
			if err != nil {
				return values.Value{}, fmt.Errorf("modbus: decode WCHAR: %w", err)
			}
			return values.String(string(s)), nil
		},
		Encode: func(wb *bitbuf.WriteBuffer, v values.Value, _ codec.Descriptor) error {
			s, err := singleChar(v)
			if err != nil {
				return err
			}
			b, err := utf16.NewEncoder().Bytes([]byte(s))
			if err != nil || len(b) != 2 {
				return plcerr.Range(s, "WCHAR (single UTF-16 unit)")
			}
			return wb.WriteUint(16, uint64(b[0])<<8|uint64(b[1]))
		},
	}
}

func singleChar(v values.Value) (string, error) {
	s, err := v.AsString()
	if err != nil {
		return "", err
	}
	if utf8.RuneCountInString(s) != 1 {
		return "", plcerr.Range(fmt.Sprintf("%q", s), "single character")
	}
	return s, nil
}
