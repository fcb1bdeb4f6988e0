// Package plc ties the protocol families together: one rule table covering
// Modbus and KNX, token resolution across both, and batched decoding on a
// shared worker pool.
package plc

import (
	"errors"
	"strings"

	"github.com/nerrad567/gray-logic-codec/internal/bridges/knx"
	"github.com/nerrad567/gray-logic-codec/internal/bridges/modbus"
	"github.com/nerrad567/gray-logic-codec/internal/codec"
	"github.com/nerrad567/gray-logic-codec/internal/codec/bitbuf"
	"github.com/nerrad567/gray-logic-codec/internal/codec/plcerr"
)

var defaultTable = codec.MustTable(modbus.Entries(), knx.Entries())

// DefaultTable returns the rule table holding every Modbus data type and
// every KNX format. The table is immutable and shared.
func DefaultTable() *codec.Table { return defaultTable }

// NewCodec returns a codec over DefaultTable.
func NewCodec() *codec.Codec { return codec.New(defaultTable) }

// Resolve parses an address token of either family using big-endian byte
// order for multi-register values.
func Resolve(token string) (codec.Descriptor, error) {
	return ResolveWithOrder(token, bitbuf.BigEndian)
}

// ResolveWithOrder parses an address token of either family.
//
// Tokens that contain ':' or use the Modicon short form ("4x00001") are
// Modbus register addresses and take order for multi-byte values. Any
// other token is a KNX datapoint type identifier, which is always
// big-endian.
//
// Parameters:
//   - token: "holding-register:3:REAL[4]", "4x00010", "9.001", "DPST-9-1", "Value_Temp", ...
//   - order: byte order applied to Modbus descriptors
//
// Returns:
//   - codec.Descriptor: ready to pass to Codec.Decode or Codec.Encode
//   - error: a *plcerr.SyntaxError or *plcerr.UnknownError
func ResolveWithOrder(token string, order bitbuf.ByteOrder) (codec.Descriptor, error) {
	if strings.TrimSpace(token) == "" {
		return codec.Descriptor{}, plcerr.Syntax(token, 0, "empty token")
	}
	if modbus.IsAddress(token) {
		a, err := modbus.ParseAddress(token)
		if err != nil {
			return codec.Descriptor{}, err
		}
		return a.Descriptor(order), nil
	}
	return knx.ParseDescriptor(token)
}

// ValidToken reports whether token resolves in either family.
func ValidToken(token string) bool {
	_, err := Resolve(token)
	return err == nil
}

// IsResolveError reports whether err came from token resolution rather than
// from decoding.
func IsResolveError(err error) bool {
	return errors.Is(err, codec.ErrInvalidAddressSyntax) ||
		errors.Is(err, codec.ErrUnknownDatapointType) ||
		errors.Is(err, codec.ErrUnknownRegisterType)
}
