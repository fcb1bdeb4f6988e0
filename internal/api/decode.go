package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nerrad567/gray-logic-codec/internal/bridges/knx"
	"github.com/nerrad567/gray-logic-codec/internal/codec"
	"github.com/nerrad567/gray-logic-codec/internal/codec/bitbuf"
	"github.com/nerrad567/gray-logic-codec/internal/codec/values"
	"github.com/nerrad567/gray-logic-codec/internal/plc"
)

// DescriptorView is the JSON form of a resolved token.
type DescriptorView struct {
	Family    string `json:"family"`
	Type      string `json:"type"`
	Format    string `json:"format"`
	Kind      string `json:"kind"`
	Width     uint16 `json:"width"`
	Count     int    `json:"count"`
	Start     uint32 `json:"start,omitempty"`
	BitOffset uint32 `json:"bit_offset,omitempty"`
	ByteOrder string `json:"byte_order"`
	Bytes     int    `json:"bytes"`
	Unit      string `json:"unit,omitempty"`
}

func newDescriptorView(d codec.Descriptor) DescriptorView {
	count := d.Count
	if count < 1 {
		count = 1
	}
	return DescriptorView{
		Family:    d.Family.String(),
		Type:      d.Type,
		Format:    d.Format,
		Kind:      d.Kind.String(),
		Width:     d.Width,
		Count:     count,
		Start:     d.Start,
		BitOffset: d.BitOffset,
		ByteOrder: d.ByteOrder.String(),
		Bytes:     d.TotalBytes(),
		Unit:      d.Unit,
	}
}

// TokenRequest names a token and optional layout overrides.
type TokenRequest struct {
	Token     string `json:"token"`
	ByteOrder string `json:"byte_order,omitempty"`
	BitOffset uint32 `json:"bit_offset,omitempty"`
}

// DecodeRequest is the body of POST /decode. Data is hex.
type DecodeRequest struct {
	TokenRequest
	Data string `json:"data"`
}

// DecodeResponse reports one decoded value.
type DecodeResponse struct {
	Status     codec.ResponseCode `json:"status"`
	Kind       string             `json:"kind"`
	Value      values.Value       `json:"value"`
	Descriptor DescriptorView     `json:"descriptor"`
}

// EncodeRequest is the body of POST /encode. Value is plain JSON, converted
// to the token's kind.
type EncodeRequest struct {
	TokenRequest
	Value json.RawMessage `json:"value"`
}

// EncodeResponse carries the encoded payload as hex.
type EncodeResponse struct {
	Data       string         `json:"data"`
	Descriptor DescriptorView `json:"descriptor"`
}

// BatchRequest is the body of POST /batch. Modbus fields use the server's
// byte order.
type BatchRequest struct {
	Fields []BatchField `json:"fields"`
}

// BatchField is one named decode in a batch. Data is hex.
type BatchField struct {
	Name  string `json:"name"`
	Token string `json:"token"`
	Data  string `json:"data"`
}

// BatchResult is the outcome of one field.
type BatchResult struct {
	Name   string             `json:"name"`
	Status codec.ResponseCode `json:"status"`
	Kind   string             `json:"kind,omitempty"`
	Value  *values.Value      `json:"value,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// BatchResponse lists results in request order.
type BatchResponse struct {
	ID     string        `json:"id"`
	OK     bool          `json:"ok"`
	Fields []BatchResult `json:"fields"`
}

// TypeView describes one entry of the rule table.
type TypeView struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Format string `json:"format"`
	Kind   string `json:"kind"`
	Unit   string `json:"unit,omitempty"`
}

// decodeJSON reads a JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
			return false
		}
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// parseHex decodes a hex payload. Whitespace and an optional 0x prefix are
// ignored.
func parseHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("data is not valid hex: %w", err)
	}
	return b, nil
}

// resolve parses a token with the request's overrides, falling back to the
// server's byte order.
func (s *Server) resolve(req TokenRequest) (codec.Descriptor, error) {
	order := s.order
	if req.ByteOrder != "" {
		o, err := bitbuf.ParseByteOrder(req.ByteOrder)
		if err != nil {
			return codec.Descriptor{}, err
		}
		order = o
	}
	desc, err := plc.ResolveWithOrder(req.Token, order)
	if err != nil {
		return codec.Descriptor{}, err
	}
	if req.BitOffset > 0 {
		desc = desc.WithBitOffset(req.BitOffset)
	}
	return desc, nil
}

// handleResolve parses a token and returns its descriptor.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	desc, err := s.resolve(req)
	if err != nil {
		s.writeResolveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDescriptorView(desc))
}

// handleDecode decodes one hex payload against a token.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req DecodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	data, err := parseHex(req.Data)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	desc, err := s.resolve(req.TokenRequest)
	if err != nil {
		s.writeResolveError(w, err)
		return
	}
	s.writeDecoded(w, data, desc)
}

// writeDecoded decodes data and writes a DecodeResponse or a codec error.
func (s *Server) writeDecoded(w http.ResponseWriter, data []byte, desc codec.Descriptor) {
	v, err := s.decoder.Codec().Decode(data, desc)
	if err != nil {
		writeCodecError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DecodeResponse{
		Status:     codec.StatusOK,
		Kind:       v.Kind().String(),
		Value:      v,
		Descriptor: newDescriptorView(desc),
	})
}

// handleEncode converts a JSON value to the token's kind and encodes it.
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	var req EncodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Value) == 0 {
		writeBadRequest(w, "value is required")
		return
	}
	desc, err := s.resolve(req.TokenRequest)
	if err != nil {
		s.writeResolveError(w, err)
		return
	}
	out, ok := s.encodeValue(w, req.Value, desc)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, EncodeResponse{
		Data:       hexString(out),
		Descriptor: newDescriptorView(desc),
	})
}

// encodeValue converts a raw JSON value to desc's kind and encodes it,
// writing a 400 or codec error on failure.
func (s *Server) encodeValue(w http.ResponseWriter, raw json.RawMessage, desc codec.Descriptor) ([]byte, bool) {
	var x any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&x); err != nil {
		writeBadRequest(w, "invalid value: "+err.Error())
		return nil, false
	}
	v, err := coerceValue(x, desc)
	if err != nil {
		writeCodecError(w, err)
		return nil, false
	}
	out, err := s.decoder.Codec().Encode(v, desc)
	if err != nil {
		writeCodecError(w, err)
		return nil, false
	}
	return out, true
}

func hexString(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

// coerceValue converts a JSON value to what desc encodes: a LIST of
// desc.Kind elements for arrays, a single desc.Kind value otherwise.
func coerceValue(x any, desc codec.Descriptor) (values.Value, error) {
	if !desc.IsArray() {
		return values.Coerce(x, desc.Kind)
	}
	items, ok := x.([]any)
	if !ok {
		return values.Coerce(x, values.KindList)
	}
	elems := make([]values.Value, len(items))
	for i, item := range items {
		v, err := values.Coerce(item, desc.Kind)
		if err != nil {
			return values.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		elems[i] = v
	}
	return values.List(elems...), nil
}

// handleBatch decodes many named fields on the shared worker pool.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Fields) == 0 {
		writeBadRequest(w, "fields must not be empty")
		return
	}

	fields := make([]plc.Field, len(req.Fields))
	for i, f := range req.Fields {
		data, err := parseHex(f.Data)
		if err != nil {
			writeBadRequest(w, fmt.Sprintf("field %q: %v", f.Name, err))
			return
		}
		fields[i] = plc.Field{Name: f.Name, Token: f.Token, Data: data}
	}

	resp, err := s.decoder.DecodeBatch(r.Context(), fields)
	switch {
	case errors.Is(err, plc.ErrBatchTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, err.Error())
		return
	case errors.Is(err, plc.ErrDuplicateField):
		writeBadRequest(w, err.Error())
		return
	case errors.Is(err, plc.ErrDecoderClosed):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
		return
	case err != nil && resp == nil:
		writeInternalError(w, "batch decode failed")
		return
	}

	out := BatchResponse{ID: resp.ID, OK: resp.OK(), Fields: make([]BatchResult, 0, resp.Len())}
	for _, name := range resp.Names() {
		res, _ := resp.Result(name)
		br := BatchResult{Name: name, Status: res.Code}
		if res.Err != nil {
			br.Error = res.Err.Error()
		} else {
			v := res.Value
			br.Kind = v.Kind().String()
			br.Value = &v
		}
		out.Fields = append(out.Fields, br)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleListTypes lists every KNX datapoint type and Modbus data type.
func (s *Server) handleListTypes(w http.ResponseWriter, _ *http.Request) {
	dpts := knx.DatapointTypes()
	knxTypes := make([]TypeView, 0, len(dpts))
	for _, t := range dpts {
		knxTypes = append(knxTypes, TypeView{
			ID:     t.ID(),
			Name:   t.Name,
			Format: t.Format,
			Kind:   t.Descriptor(t.ID()).Kind.String(),
			Unit:   t.Unit,
		})
	}

	table := s.decoder.Codec().Table()
	var modbusTypes []TypeView
	for _, key := range table.Keys() {
		if key.Family != codec.FamilyModbus {
			continue
		}
		rule, _ := table.Lookup(key)
		modbusTypes = append(modbusTypes, TypeView{ID: key.Format, Format: key.Format, Kind: rule.Kind.String()})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"knx":    knxTypes,
		"modbus": modbusTypes,
	})
}

// writeResolveError reports a token or byte order that did not resolve.
func (s *Server) writeResolveError(w http.ResponseWriter, err error) {
	if plc.IsResolveError(err) {
		writeCodecError(w, err)
		return
	}
	writeBadRequest(w, err.Error())
}
