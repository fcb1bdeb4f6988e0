package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-codec/internal/bridges/knx"
	"github.com/nerrad567/gray-logic-codec/internal/codec"
	"github.com/nerrad567/gray-logic-codec/internal/datapoint"
)

// DatapointDecodeRequest is the body of POST /datapoints/{name}/decode.
type DatapointDecodeRequest struct {
	Data string `json:"data"`
}

// DatapointEncodeRequest is the body of POST /datapoints/{name}/encode.
type DatapointEncodeRequest struct {
	Value json.RawMessage `json:"value"`
}

// DatapointEncodeResponse is an EncodeResponse plus, for KNX datapoints
// with a group address, the knxd EIB_GROUP_PACKET messages that write the
// value and read it back. Frames are hex.
type DatapointEncodeResponse struct {
	EncodeResponse
	GroupAddress *GroupAddressView `json:"group_address,omitempty"`
	WriteFrame   string            `json:"write_frame,omitempty"`
	ReadFrame    string            `json:"read_frame,omitempty"`
}

// GroupAddressView shows a group address in each notation clients use.
type GroupAddressView struct {
	Address    string `json:"address"`
	TwoLevel   string `json:"two_level"`
	URLEncoded string `json:"url_encoded"`
	Raw        uint16 `json:"raw"`
}

func newGroupAddressView(ga knx.GroupAddress) GroupAddressView {
	return GroupAddressView{
		Address:    ga.String(),
		TwoLevel:   ga.TwoLevel(),
		URLEncoded: ga.URLEncode(),
		Raw:        ga.ToUint16(),
	}
}

// ImportResponse reports an ETS import. Applied is nil for a dry run.
type ImportResponse struct {
	Format     string                 `json:"format"`
	Datapoints []datapoint.Datapoint  `json:"datapoints"`
	Skipped    []datapoint.ImportSkip `json:"skipped,omitempty"`
	Applied    *datapoint.ApplyResult `json:"applied,omitempty"`
}

// handleListDatapoints returns the catalog ordered by name.
func (s *Server) handleListDatapoints(w http.ResponseWriter, _ *http.Request) {
	list := s.registry.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"datapoints": list,
		"count":      len(list),
	})
}

// handleGetDatapoint returns one datapoint.
func (s *Server) handleGetDatapoint(w http.ResponseWriter, r *http.Request) {
	d, err := s.registry.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeDatapointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleCreateDatapoint adds a datapoint to the catalog.
func (s *Server) handleCreateDatapoint(w http.ResponseWriter, r *http.Request) {
	var d datapoint.Datapoint
	if !decodeJSON(w, r, &d) {
		return
	}
	d.Source = datapoint.SourceAPI
	if err := s.registry.Create(r.Context(), &d); err != nil {
		s.logCatalogError("create", d.Name, err)
		writeDatapointError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// handleUpdateDatapoint replaces a datapoint. The name comes from the path.
func (s *Server) handleUpdateDatapoint(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var d datapoint.Datapoint
	if !decodeJSON(w, r, &d) {
		return
	}
	d.Name = name
	d.Source = datapoint.SourceAPI
	if err := s.registry.Update(r.Context(), &d); err != nil {
		s.logCatalogError("update", name, err)
		writeDatapointError(w, err)
		return
	}
	updated, err := s.registry.Get(r.Context(), name)
	if err != nil {
		writeDatapointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteDatapoint removes a datapoint.
func (s *Server) handleDeleteDatapoint(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.registry.Delete(r.Context(), name); err != nil {
		s.logCatalogError("delete", name, err)
		writeDatapointError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDecodeDatapoint decodes a hex payload with a catalog datapoint's
// token.
func (s *Server) handleDecodeDatapoint(w http.ResponseWriter, r *http.Request) {
	d, err := s.registry.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeDatapointError(w, err)
		return
	}
	var req DatapointDecodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	data, err := parseHex(req.Data)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	desc, err := d.Descriptor(s.order)
	if err != nil {
		// Catalog entries are validated on write; a failure here means the
		// type table changed underneath the catalog.
		writeCodecError(w, err)
		return
	}
	s.writeDecoded(w, data, desc)
}

// handleEncodeDatapoint encodes a JSON value with a catalog datapoint's
// token. KNX datapoints bound to a group address also get the knxd frames
// a client sends on a GROUPCON socket.
func (s *Server) handleEncodeDatapoint(w http.ResponseWriter, r *http.Request) {
	d, err := s.registry.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeDatapointError(w, err)
		return
	}
	var req DatapointEncodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Value) == 0 {
		writeBadRequest(w, "value is required")
		return
	}
	desc, err := d.Descriptor(s.order)
	if err != nil {
		writeCodecError(w, err)
		return
	}
	out, ok := s.encodeValue(w, req.Value, desc)
	if !ok {
		return
	}

	resp := DatapointEncodeResponse{
		EncodeResponse: EncodeResponse{Data: hexString(out), Descriptor: newDescriptorView(desc)},
	}
	if ga, ok := d.ParsedGroupAddress(); ok && desc.Family == codec.FamilyKNX {
		view := newGroupAddressView(ga)
		resp.GroupAddress = &view
		write := knx.NewDatapointWrite(ga, out, desc.Width)
		resp.WriteFrame = hexString(knx.EncodeKNXDMessage(knx.EIBGroupPacket, write.Encode()))
		resp.ReadFrame = hexString(knx.EncodeKNXDMessage(knx.EIBGroupPacket, knx.NewReadTelegram(ga).Encode()))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetGroupAddress returns the datapoint bound to a group address.
// The address is URL-encoded in the path ("1%2F0%2F1"); 2-level addresses
// are accepted.
func (s *Server) handleGetGroupAddress(w http.ResponseWriter, r *http.Request) {
	ga, err := knx.ParseGroupAddressFromURL(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}
	d, err := s.registry.ByGroupAddress(ga)
	if err != nil {
		writeDatapointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"group_address": newGroupAddressView(ga),
		"datapoint":     d,
	})
}

// handleImportDatapoints reads an ETS export (.knxproj, group address XML
// or CSV) and upserts its datapoints.
//
// Request: multipart/form-data with a "file" field, or the file as the raw
// body with ?filename= naming it. ?dry_run=true parses without applying.
func (s *Server) handleImportDatapoints(w http.ResponseWriter, r *http.Request) {
	data, filename, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "file exceeds the import size limit")
			return
		}
		writeBadRequest(w, err.Error())
		return
	}

	imp, err := datapoint.ImportETS(data, filename)
	if err != nil {
		s.logger.Warn("ETS import rejected", "filename", filename, "error", err)
		writeDatapointError(w, err)
		return
	}

	resp := ImportResponse{Format: imp.Format, Datapoints: imp.Datapoints, Skipped: imp.Skipped}
	if r.URL.Query().Get("dry_run") == "true" {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	applied, err := s.registry.Apply(r.Context(), imp.Datapoints, datapoint.SourceETS)
	if err != nil {
		s.logger.Error("ETS import failed", "filename", filename, "error", err)
		writeInternalError(w, "applying import failed")
		return
	}
	resp.Applied = &applied
	writeJSON(w, http.StatusOK, resp)
}

// readUpload returns the uploaded file and its name.
func readUpload(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(datapoint.MaxImportSize); err == nil {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", errors.New("missing required 'file' field in form data")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", err
		}
		return data, header.Filename, nil
	} else if !errors.Is(err, http.ErrNotMultipart) {
		return nil, "", err
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty upload")
	}
	return data, r.URL.Query().Get("filename"), nil
}

// logCatalogError logs catalog write failures that are not client errors.
func (s *Server) logCatalogError(op, name string, err error) {
	if isCatalogClientError(err) {
		return
	}
	s.logger.Error("catalog "+op+" failed", "name", name, "error", err)
}
