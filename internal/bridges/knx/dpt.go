package knx

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-codec/internal/codec"
	"github.com/nerrad567/gray-logic-codec/internal/codec/plcerr"
)

// DatapointType is a KNX Datapoint Type: a main number selecting the bit
// layout (format) and a sub number selecting the semantics and unit.
type DatapointType struct {
	Main uint16
	Sub  uint16

	// Name is the symbolic name without the DPT_ prefix, e.g.
	// "Value_Electric_Current". Empty for a main type.
	Name string

	// Format names the bit layout, e.g. "F16" or "B1".
	Format string

	Unit string

	// Transform scales raw values, e.g. 0..255 to 0..100 % for 5.001.
	Transform codec.Transform

	// mainOnly marks a type resolved from a main number alone ("DPT-9").
	mainOnly bool
}

// Common DPT identifiers used in building automation.
const (
	DPTSwitch         = "1.001"
	DPTBool           = "1.002"
	DPTUpDown         = "1.008"
	DPTDimmingControl = "3.007"
	DPTBlindControl   = "3.008"
	DPTPercentage     = "5.001"
	DPTAngle          = "5.003"
	DPTPercentU8      = "5.004"
	DPTTemperature    = "9.001"
	DPTLux            = "9.004"
	DPTHumidity       = "9.007"
	DPTTimeOfDay      = "10.001"
	DPTDate           = "11.001"
	DPTActiveEnergy   = "13.010"
	DPTElectricCurr   = "14.019"
	DPTStringASCII    = "16.000"
	DPTSceneNumber    = "17.001"
	DPTSceneControl   = "18.001"
	DPTDateTime       = "19.001"
	DPTHVACMode       = "20.102"
	DPTColourRGB      = "232.600"
)

// Scaling for the 1-byte unsigned types that carry engineering values.
var transforms = map[uint16]map[uint16]codec.Transform{
	5: {
		1: codec.Linear{Num: 100, Den: 255}, // 0..255 → 0..100 %
		3: codec.Linear{Num: 360, Den: 255}, // 0..255 → 0..360 °
	},
}

var (
	bySubtype = map[uint32]DatapointType{}
	byName    = map[string]DatapointType{}
	byMain    = map[uint16]DatapointType{}
)

func init() {
	for _, r := range dptRows {
		t := DatapointType{Main: r.main, Sub: r.sub, Name: r.name, Format: r.format, Unit: r.unit}
		t.Transform = transforms[r.main][r.sub]
		bySubtype[subtypeKey(r.main, r.sub)] = t
		byName[strings.ToLower(r.name)] = t
		// A main type defaults to the format of its lowest subtype.
		if _, ok := byMain[r.main]; !ok {
			byMain[r.main] = DatapointType{Main: r.main, Format: r.format, mainOnly: true}
		}
	}
}

func subtypeKey(main, sub uint16) uint32 { return uint32(main)<<16 | uint32(sub) }

// ID returns the canonical identifier: "9.001", or "9" for a main type.
func (t DatapointType) ID() string {
	if t.mainOnly {
		return strconv.Itoa(int(t.Main))
	}
	return fmt.Sprintf("%d.%03d", t.Main, t.Sub)
}

// String returns the identifier and name, e.g. "14.019 Value_Electric_Current".
func (t DatapointType) String() string {
	if t.Name == "" {
		return "DPT-" + t.ID()
	}
	return t.ID() + " " + t.Name
}

// IsMainType reports whether t was resolved from a main number alone.
func (t DatapointType) IsMainType() bool { return t.mainOnly }

// Descriptor builds the codec descriptor for the type. token is recorded
// as the descriptor's source text.
func (t DatapointType) Descriptor(token string) codec.Descriptor {
	rule := formatRules[t.Format]
	d := codec.Descriptor{
		Family:    codec.FamilyKNX,
		Format:    t.Format,
		Type:      t.ID(),
		Token:     token,
		Kind:      rule.Kind,
		Width:     rule.Width,
		Count:     1,
		Transform: t.Transform,
		Unit:      t.Unit,
	}
	if t.Transform != nil {
		d.Kind = t.Transform.Kind()
	}
	return d
}

// LookupDPT finds a subtype by main and sub number.
func LookupDPT(main, sub uint16) (DatapointType, bool) {
	t, ok := bySubtype[subtypeKey(main, sub)]
	return t, ok
}

// DatapointTypes returns every known subtype ordered by main then sub.
func DatapointTypes() []DatapointType {
	out := make([]DatapointType, 0, len(bySubtype))
	for _, t := range bySubtype {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Main != out[j].Main {
			return out[i].Main < out[j].Main
		}
		return out[i].Sub < out[j].Sub
	})
	return out
}

// ParseDPT parses a datapoint type identifier.
//
// Accepts formats:
//   - "9.001", "9.1"           main.sub
//   - "DPT9.001", "DPT-9"      DPT prefix; a bare main uses the main type
//   - "DPST-9-1"               ETS export form
//   - "Value_Temp", "DPT_Value_Temp", "DPST_Value_Temp"  symbolic name
//
// Parameters:
//   - token: Identifier text
//
// Returns:
//   - DatapointType: Resolved type
//   - error: *plcerr.SyntaxError for malformed numeric identifiers,
//     *plcerr.UnknownError (ErrUnknownDatapointType) for well-formed
//     identifiers missing from the table
func ParseDPT(token string) (DatapointType, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return DatapointType{}, plcerr.Syntax(token, 0, "empty datapoint type")
	}
	upper := strings.ToUpper(s)

	switch {
	case strings.HasPrefix(upper, "DPST-"):
		return parseNumeric(token, s[5:], 5, "-", true)
	case strings.HasPrefix(upper, "DPT-"):
		return parseNumeric(token, s[4:], 4, "-", false)
	case strings.HasPrefix(upper, "DPT") && len(s) > 3 && isDigit(s[3]):
		return parseNumeric(token, s[3:], 3, ".", false)
	case isDigit(s[0]):
		return parseNumeric(token, s, 0, ".", false)
	}

	name := s
	for _, prefix := range []string{"DPST_", "DPT_"} {
		if strings.HasPrefix(upper, prefix) {
			name = s[len(prefix):]
			break
		}
	}
	t, ok := byName[strings.ToLower(name)]
	if !ok {
		return DatapointType{}, unknownDPT(token)
	}
	return t, nil
}

// MustParseDPT is ParseDPT for identifiers known to be valid.
func MustParseDPT(token string) DatapointType {
	t, err := ParseDPT(token)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseDescriptor resolves token to a codec descriptor.
func ParseDescriptor(token string) (codec.Descriptor, error) {
	t, err := ParseDPT(token)
	if err != nil {
		return codec.Descriptor{}, err
	}
	return t.Descriptor(token), nil
}

// parseNumeric parses "main<sep>sub" or "main" found at offset in token.
func parseNumeric(token, s string, offset int, sep string, subRequired bool) (DatapointType, error) {
	mainText, subText, hasSub := strings.Cut(s, sep)
	main, err := parseNumber(token, mainText, offset, "main number")
	if err != nil {
		return DatapointType{}, err
	}
	if !hasSub {
		if subRequired {
			return DatapointType{}, plcerr.Syntax(token, offset+len(s), "expected %q and sub number", sep)
		}
		t, ok := byMain[main]
		if !ok {
			return DatapointType{}, unknownDPT(token)
		}
		return t, nil
	}

	sub, err := parseNumber(token, subText, offset+len(mainText)+1, "sub number")
	if err != nil {
		return DatapointType{}, err
	}
	t, ok := LookupDPT(main, sub)
	if !ok {
		return DatapointType{}, unknownDPT(token)
	}
	return t, nil
}

func parseNumber(token, text string, pos int, what string) (uint16, error) {
	if text == "" {
		return 0, plcerr.Syntax(token, pos, "missing %s", what)
	}
	for i := 0; i < len(text); i++ {
		if !isDigit(text[i]) {
			return 0, plcerr.Syntax(token, pos+i, "non-numeric %s %q", what, text)
		}
	}
	n, err := strconv.ParseUint(text, 10, 16)
	if err != nil {
		return 0, plcerr.Syntax(token, pos, "%s %q out of range", what, text)
	}
	return uint16(n), nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func unknownDPT(token string) error {
	return &plcerr.UnknownError{Kind: plcerr.ErrUnknownDatapointType, Token: token}
}
