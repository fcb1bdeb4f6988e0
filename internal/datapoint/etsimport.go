package datapoint

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/nerrad567/gray-logic-codec/internal/bridges/knx"
)

// Import limits and formats.
const (
	// MaxImportSize is the largest ETS export accepted (50MB).
	MaxImportSize = 50 * 1024 * 1024

	FormatKNXProj = "knxproj"
	FormatXML     = "xml"
	FormatCSV     = "csv"
)

// ImportSkip records a group address that did not become a datapoint.
type ImportSkip struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	Reason  string `json:"reason"`
}

// Import is the result of reading an ETS export.
type Import struct {
	Format     string       `json:"format"`
	Datapoints []Datapoint  `json:"datapoints"`
	Skipped    []ImportSkip `json:"skipped,omitempty"`
}

// etsAddress is one group address as found in an export, before resolution.
type etsAddress struct {
	address     string
	name        string
	dpt         string
	description string
}

// ImportETS reads group addresses from an ETS project (.knxproj), a group
// address XML export or a CSV export, and turns every address with a
// resolvable datapoint type into a Datapoint.
//
// The format is chosen by file extension, falling back to content sniffing.
// Addresses without a datapoint type, or with one outside the type table,
// are reported in Import.Skipped.
func ImportETS(data []byte, filename string) (*Import, error) {
	if len(data) > MaxImportSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidImport, len(data), MaxImportSize)
	}

	var (
		raw    []etsAddress
		format string
		err    error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); {
	case ext == ".knxproj" || (ext != ".xml" && ext != ".csv" && isZipFile(data)):
		format = FormatKNXProj
		raw, err = parseKNXProj(data)
	case ext == ".xml" || (ext != ".csv" && isXMLFile(data)):
		format = FormatXML
		raw, err = parseGroupAddressXML(data)
	case ext == ".csv":
		format = FormatCSV
		raw, err = parseGroupAddressCSV(data)
	default:
		return nil, fmt.Errorf("%w: unrecognised format %q", ErrInvalidImport, filename)
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no group addresses found", ErrInvalidImport)
	}

	imp := &Import{Format: format}
	names := make(map[string]bool, len(raw))
	for _, a := range raw {
		d, reason := resolveETSAddress(a)
		if reason != "" {
			imp.Skipped = append(imp.Skipped, ImportSkip{Address: a.address, Name: a.name, Reason: reason})
			continue
		}
		if names[d.Name] {
			d.Name = uniqueName(d.Name, d.GroupAddress, names)
		}
		names[d.Name] = true
		imp.Datapoints = append(imp.Datapoints, d)
	}
	return imp, nil
}

func resolveETSAddress(a etsAddress) (Datapoint, string) {
	ga, err := parseETSGroupAddress(a.address)
	if err != nil {
		return Datapoint{}, "invalid group address"
	}
	if a.dpt == "" {
		return Datapoint{}, "no datapoint type"
	}
	dt, err := knx.ParseDPT(firstDPT(a.dpt))
	if err != nil {
		return Datapoint{}, err.Error()
	}

	name := SanitiseName(a.name)
	if name == "" {
		name = gaName(ga)
	}
	return Datapoint{
		Name:         name,
		Token:        dt.ID(),
		Description:  truncate(a.description, maxDescriptionLength),
		GroupAddress: ga.String(),
	}, ""
}

// parseETSGroupAddress accepts 3-level, 2-level and the raw integer form
// used inside project files.
func parseETSGroupAddress(s string) (knx.GroupAddress, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "/") {
		n, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return knx.GroupAddress{}, fmt.Errorf("%w: %q", knx.ErrInvalidGroupAddress, s)
		}
		return knx.GroupAddressFromUint16(uint16(n)), nil
	}
	return knx.ParseGroupAddress(s)
}

// firstDPT picks the first identifier when ETS lists several
// ("DPST-1-1 DPST-1-2" or "DPST-1-1,DPST-1-2").
func firstDPT(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || unicode.IsSpace(r) })
	if len(fields) == 0 {
		return s
	}
	return fields[0]
}

func gaName(ga knx.GroupAddress) string {
	return fmt.Sprintf("ga_%d_%d_%d", ga.Main, ga.Middle, ga.Sub)
}

func uniqueName(name, groupAddress string, taken map[string]bool) string {
	suffix := "_" + strings.ReplaceAll(groupAddress, "/", "_")
	base := name
	if len(base)+len(suffix) > maxNameLength {
		base = base[:maxNameLength-len(suffix)]
	}
	candidate := base + suffix
	for i := 2; taken[candidate]; i++ {
		candidate = fmt.Sprintf("%s%s_%d", base, suffix, i)
	}
	return candidate
}

// ─── .knxproj ───────────────────────────────────────────────────────

// parseKNXProj reads a project archive. Group addresses come from an
// exported GroupAddresses.xml when present, otherwise from the project
// data file 0.xml.
func parseKNXProj(data []byte) ([]etsAddress, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt archive: %w", ErrInvalidImport, err)
	}

	var groupAddresses, project *zip.File
	for _, f := range reader.File {
		name := strings.ToLower(filepath.Base(f.Name))
		switch {
		case name == "groupaddresses.xml":
			groupAddresses = f
		case name == "0.xml" && project == nil:
			project = f
		case strings.HasSuffix(name, ".zip"):
			return nil, fmt.Errorf("%w: password protected projects are not supported", ErrInvalidImport)
		}
	}

	src := groupAddresses
	if src == nil {
		src = project
	}
	if src == nil {
		return nil, fmt.Errorf("%w: archive holds no group addresses", ErrInvalidImport)
	}
	content, err := readZipFile(src)
	if err != nil {
		return nil, err
	}
	return parseGroupAddressXML(content)
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxImportSize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	return data, nil
}

// ─── XML ────────────────────────────────────────────────────────────

// parseGroupAddressXML walks any ETS XML document and collects its
// GroupAddress elements. Enclosing GroupRange names form the fallback
// description, for example "Heating > Ground floor".
func parseGroupAddressXML(data []byte) ([]etsAddress, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		out    []etsAddress
		ranges []string
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidImport, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "GroupRange":
				ranges = append(ranges, attr(el, "Name"))
			case "GroupAddress":
				a := etsAddress{
					address:     attr(el, "Address"),
					name:        attr(el, "Name"),
					dpt:         attr(el, "DatapointType"),
					description: attr(el, "Description"),
				}
				if a.dpt == "" {
					a.dpt = attr(el, "DPTs")
				}
				if a.description == "" && len(ranges) > 0 {
					a.description = strings.Join(ranges, " > ")
				}
				if a.address != "" {
					out = append(out, a)
				}
			}
		case xml.EndElement:
			if el.Name.Local == "GroupRange" && len(ranges) > 0 {
				ranges = ranges[:len(ranges)-1]
			}
		}
	}
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

// ─── CSV ────────────────────────────────────────────────────────────

// parseGroupAddressCSV reads the ETS CSV export. ETS writes either ',' or
// ';' separated files; the separator is taken from the header line.
func parseGroupAddressCSV(data []byte) ([]etsAddress, error) {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	header, _, _ := bytes.Cut(data, []byte("\n"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = detectSeparator(header)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: no group addresses found", ErrInvalidImport)
	}

	cols := make(map[string]int, len(records[0]))
	for i, c := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(c))] = i
	}
	addrCol := findColumn(cols, "address", "group address", "groupaddress", "ga")
	if addrCol < 0 {
		return nil, fmt.Errorf("%w: no address column", ErrInvalidImport)
	}
	nameCol := findColumn(cols, "group name", "name", "sub")
	dptCol := findColumn(cols, "datapointtype", "datapoint type", "dpt")
	descCol := findColumn(cols, "description")

	var out []etsAddress
	for _, rec := range records[1:] {
		a := etsAddress{
			address:     column(rec, addrCol),
			name:        column(rec, nameCol),
			dpt:         column(rec, dptCol),
			description: column(rec, descCol),
		}
		// Main and middle group rows carry ranges such as "1/-/-".
		if a.address == "" || strings.Contains(a.address, "-") {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func detectSeparator(header []byte) rune {
	best, bestCount := ',', 0
	for _, sep := range []rune{',', ';', '\t'} {
		if n := bytes.Count(header, []byte(string(sep))); n > bestCount {
			best, bestCount = sep, n
		}
	}
	return best
}

func findColumn(cols map[string]int, names ...string) int {
	for _, name := range names {
		if i, ok := cols[name]; ok {
			return i
		}
	}
	return -1
}

func column(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func isZipFile(data []byte) bool {
	return len(data) >= 4 && data[0] == 'P' && data[1] == 'K'
}

func isXMLFile(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeftFunc(data, unicode.IsSpace), []byte("<"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
