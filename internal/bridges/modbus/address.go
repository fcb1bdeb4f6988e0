package modbus

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-codec/internal/codec"
	"github.com/nerrad567/gray-logic-codec/internal/codec/bitbuf"
	"github.com/nerrad567/gray-logic-codec/internal/codec/plcerr"
)

// Protocol limits from the Modbus application protocol specification.
const (
	registerBits = 16

	// maxBitCount is the most coils or discrete inputs one read may return.
	maxBitCount = 2000

	// maxRegisterCount is the most registers one read may return.
	maxRegisterCount = 125

	// maxAddress is the highest address in a standard register table.
	maxAddress = 0xFFFF

	// maxExtendedAddress is the highest extended register address:
	// 10000 records in each of 65536 files, flattened.
	maxExtendedAddress = 655359
)

// RegisterType is one of the Modbus data tables.
type RegisterType struct {
	Name string

	// Prefix is the Modicon table digit used in the short form (4x00001).
	Prefix byte

	// Bits is the natural width of one address: 1 for bit tables, 16 for
	// register tables.
	Bits uint16

	Writable bool
}

// Register types.
var (
	Coil             = RegisterType{Name: "coil", Prefix: '0', Bits: 1, Writable: true}
	DiscreteInput    = RegisterType{Name: "discrete-input", Prefix: '1', Bits: 1}
	InputRegister    = RegisterType{Name: "input-register", Prefix: '3', Bits: registerBits}
	HoldingRegister  = RegisterType{Name: "holding-register", Prefix: '4', Bits: registerBits, Writable: true}
	ExtendedRegister = RegisterType{Name: "extended-register", Prefix: '6', Bits: registerBits, Writable: true}
)

var registerTypes = []RegisterType{Coil, DiscreteInput, InputRegister, HoldingRegister, ExtendedRegister}

// LookupRegisterType finds a register type by name, case-insensitively.
func LookupRegisterType(name string) (RegisterType, bool) {
	for _, rt := range registerTypes {
		if strings.EqualFold(rt.Name, name) {
			return rt, true
		}
	}
	return RegisterType{}, false
}

func registerTypeByPrefix(p byte) (RegisterType, bool) {
	for _, rt := range registerTypes {
		if rt.Prefix == p {
			return rt, true
		}
	}
	return RegisterType{}, false
}

// IsBit reports whether the table holds single-bit values.
func (rt RegisterType) IsBit() bool { return rt.Bits == 1 }

func (rt RegisterType) maxCount() int {
	if rt.IsBit() {
		return maxBitCount
	}
	return maxRegisterCount
}

func (rt RegisterType) maxAddress() uint64 {
	if rt == ExtendedRegister {
		return maxExtendedAddress
	}
	return maxAddress
}

// Address is a parsed register address.
type Address struct {
	Type     RegisterType
	Start    uint32
	DataType DataType
	Count    int
	Token    string
}

// Stride returns the bits one element occupies: one bit in bit tables, and
// the data type width rounded up to whole registers otherwise.
func (a Address) Stride() uint16 {
	if a.Type.IsBit() {
		return 1
	}
	regs := (uint16(a.DataType.Bits) + registerBits - 1) / registerBits
	return regs * registerBits
}

// Quantity returns the number of table addresses the request covers.
func (a Address) Quantity() int {
	return a.Count * int(a.Stride()/a.Type.Bits)
}

// String returns the canonical long form of the address.
func (a Address) String() string {
	s := fmt.Sprintf("%s:%d:%s", a.Type.Name, a.Start, a.DataType.Name)
	if a.Count > 1 {
		s += fmt.Sprintf("[%d]", a.Count)
	}
	return s
}

// Descriptor builds the codec descriptor for the address. order applies to
// multi-byte values in register tables; bit tables ignore it.
func (a Address) Descriptor(order bitbuf.ByteOrder) codec.Descriptor {
	d := codec.Descriptor{
		Family: codec.FamilyModbus,
		Format: a.DataType.Name,
		Type:   a.Type.Name,
		Token:  a.Token,
		Kind:   a.DataType.Kind,
		Width:  uint16(a.DataType.Bits),
		Stride: a.Stride(),
		Count:  a.Count,
		Start:  a.Start,
	}
	if a.Type.IsBit() {
		d.BitOrder = codec.LSBFirst
	} else {
		d.ByteOrder = order
	}
	return d
}

// ParseAddress parses a register address token. Malformed tokens fail with
// *plcerr.SyntaxError; unknown register types with ErrUnknownRegisterType.
func ParseAddress(token string) (Address, error) {
	if strings.TrimSpace(token) == "" {
		return Address{}, plcerr.Syntax(token, 0, "empty address")
	}

	body, count, err := splitCount(token)
	if err != nil {
		return Address{}, err
	}

	a := Address{Token: token, Count: count}

	// Locate the register type and the start index text.
	var startText string
	var startPos int
	fields := strings.Split(body, ":")
	head := fields[0]
	switch {
	case isShortForm(head):
		rt, ok := registerTypeByPrefix(head[0])
		if !ok {
			return Address{}, &plcerr.UnknownError{Kind: plcerr.ErrUnknownRegisterType, Token: head[:2]}
		}
		a.Type = rt
		startText, startPos = head[2:], 2
		fields = fields[1:]
	default:
		if head == "" {
			return Address{}, plcerr.Syntax(token, 0, "missing register type")
		}
		rt, ok := LookupRegisterType(head)
		if !ok {
			return Address{}, &plcerr.UnknownError{Kind: plcerr.ErrUnknownRegisterType, Token: head}
		}
		if len(fields) < 2 {
			return Address{}, plcerr.Syntax(token, len(head), "expected ':' after register type")
		}
		a.Type = rt
		startText, startPos = fields[1], len(head)+1
		fields = fields[2:]
	}

	start, err := parseIndex(token, startText, startPos, "start index")
	if err != nil {
		return Address{}, err
	}
	a.Start = uint32(start) //nolint:gosec // bounded by maxExtendedAddress below

	// Optional data type.
	pos := startPos + len(startText)
	switch len(fields) {
	case 0:
		a.DataType = INT
		if a.Type.IsBit() {
			a.DataType = BOOL
		}
	case 1:
		name := fields[0]
		dt, ok := LookupDataType(name)
		if !ok {
			return Address{}, plcerr.Syntax(token, pos+1, "unknown data type %q", name)
		}
		if a.Type.IsBit() && dt != BOOL {
			return Address{}, plcerr.Syntax(token, pos+1, "data type %s not allowed in %s table", dt.Name, a.Type.Name)
		}
		a.DataType = dt
	default:
		return Address{}, plcerr.Syntax(token, pos+1+len(fields[0]), "unexpected ':'")
	}

	if q, limit := a.Quantity(), a.Type.maxCount(); q > limit {
		return Address{}, plcerr.Syntax(token, len(body)+1, "count %d covers %d addresses, limit is %d", a.Count, q, limit)
	}
	if last := start + uint64(a.Quantity()) - 1; last > a.Type.maxAddress() {
		return Address{}, plcerr.Syntax(token, startPos, "address %d beyond end of %s table", last, a.Type.Name)
	}
	return a, nil
}

// MustParseAddress is ParseAddress for addresses known to be valid.
func MustParseAddress(token string) Address {
	a, err := ParseAddress(token)
	if err != nil {
		panic(err)
	}
	return a
}

// IsAddress reports whether token looks like a register address rather than
// some other token family. It does not validate the token.
func IsAddress(token string) bool {
	token = strings.TrimSpace(token)
	if strings.Contains(token, ":") {
		return true
	}
	head, _, _ := strings.Cut(token, "[")
	return isShortForm(head)
}

// splitCount separates an optional trailing "[count]".
func splitCount(token string) (string, int, error) {
	open := strings.IndexByte(token, '[')
	if open < 0 {
		if i := strings.IndexByte(token, ']'); i >= 0 {
			return "", 0, plcerr.Syntax(token, i, "unexpected ']'")
		}
		return token, 1, nil
	}
	if !strings.HasSuffix(token, "]") {
		return "", 0, plcerr.Syntax(token, len(token), "unterminated count, expected ']'")
	}
	inner := token[open+1 : len(token)-1]
	n, err := parseIndex(token, inner, open+1, "count")
	if err != nil {
		return "", 0, err
	}
	if n < 1 {
		return "", 0, plcerr.Syntax(token, open+1, "count must be at least 1")
	}
	if n > maxBitCount {
		return "", 0, plcerr.Syntax(token, open+1, "count %d exceeds %d", n, maxBitCount)
	}
	return token[:open], int(n), nil
}

// parseIndex parses a non-negative decimal field of token found at pos.
func parseIndex(token, text string, pos int, what string) (uint64, error) {
	if text == "" {
		return 0, plcerr.Syntax(token, pos, "missing %s", what)
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return 0, plcerr.Syntax(token, pos+i, "non-numeric %s %q", what, text)
		}
	}
	n, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		return 0, plcerr.Syntax(token, pos, "%s %q out of range", what, text)
	}
	return n, nil
}

// isShortForm reports whether s is a Modicon short address such as 4x00001.
func isShortForm(s string) bool {
	if len(s) < 3 || (s[1] != 'x' && s[1] != 'X') || s[0] < '0' || s[0] > '9' {
		return false
	}
	for i := 2; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
