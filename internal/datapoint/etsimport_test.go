package datapoint

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"
)

const groupAddressXML = `<?xml version="1.0" encoding="utf-8"?>
<GroupAddress-Export xmlns="http://knx.org/xml/ga-export/01">
  <GroupRange Name="Heating" RangeStart="2048" RangeEnd="4095">
    <GroupRange Name="Ground floor" RangeStart="2048" RangeEnd="2303">
      <GroupAddress Name="Living Room Temp" Address="1/0/1" DPTs="DPST-9-1" />
      <GroupAddress Name="Living Room Valve" Address="1/0/2" DPTs="DPST-5-1" Description="Valve position" />
      <GroupAddress Name="Untyped" Address="1/0/3" />
      <GroupAddress Name="Living Room Temp" Address="1/0/4" DPTs="DPST-9-1" />
    </GroupRange>
  </GroupRange>
</GroupAddress-Export>`

const projectXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/21">
  <Project Id="P-0001">
    <Installations>
      <Installation Name="">
        <GroupAddresses>
          <GroupRanges>
            <GroupRange Id="P-0001-0_GR-1" RangeStart="1" RangeEnd="2047" Name="Lighting">
              <GroupAddress Id="P-0001-0_GA-1" Address="2305" Name="Hall Switch" DatapointType="DPST-1-1" />
              <GroupAddress Id="P-0001-0_GA-2" Address="2306" Name="Hall Energy" DatapointType="DPST-13-10 DPST-13-13" />
              <GroupAddress Id="P-0001-0_GA-3" Address="2307" Name="Mystery" DatapointType="DPST-99-1" />
            </GroupRange>
          </GroupRanges>
        </GroupAddresses>
      </Installation>
    </Installations>
  </Project>
</KNX>`

func buildKNXProj(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func byName(imp *Import) map[string]Datapoint {
	out := make(map[string]Datapoint, len(imp.Datapoints))
	for _, d := range imp.Datapoints {
		out[d.Name] = d
	}
	return out
}

// ─── Formats ────────────────────────────────────────────────────────

func TestImportETS_GroupAddressXML(t *testing.T) {
	imp, err := ImportETS([]byte(groupAddressXML), "export.xml")
	if err != nil {
		t.Fatalf("ImportETS() error = %v", err)
	}
	if imp.Format != FormatXML {
		t.Errorf("Format = %q, want %q", imp.Format, FormatXML)
	}

	got := byName(imp)
	temp, ok := got["Living_Room_Temp"]
	if !ok {
		t.Fatalf("Living_Room_Temp missing from %+v", imp.Datapoints)
	}
	if temp.Token != "9.001" || temp.GroupAddress != "1/0/1" {
		t.Errorf("temp = %+v", temp)
	}
	if temp.Description != "Heating > Ground floor" {
		t.Errorf("Description = %q, want range path", temp.Description)
	}

	if valve := got["Living_Room_Valve"]; valve.Token != "5.001" || valve.Description != "Valve position" {
		t.Errorf("valve = %+v", valve)
	}
	if dup, ok := got["Living_Room_Temp_1_0_4"]; !ok || dup.GroupAddress != "1/0/4" {
		t.Errorf("duplicate name not disambiguated: %+v", imp.Datapoints)
	}

	if len(imp.Skipped) != 1 || imp.Skipped[0].Address != "1/0/3" || imp.Skipped[0].Reason != "no datapoint type" {
		t.Errorf("Skipped = %+v", imp.Skipped)
	}
}

func TestImportETS_KNXProj(t *testing.T) {
	data := buildKNXProj(t, map[string]string{
		"knx_master.xml":     "<KNX/>",
		"P-0001/0.xml":       projectXML,
		"P-0001/Project.xml": `<KNX><Project Id="P-0001"/></KNX>`,
	})

	imp, err := ImportETS(data, "house.knxproj")
	if err != nil {
		t.Fatalf("ImportETS() error = %v", err)
	}
	if imp.Format != FormatKNXProj {
		t.Errorf("Format = %q", imp.Format)
	}

	got := byName(imp)
	// 2305 = 1/1/1 in 3-level notation.
	if sw := got["Hall_Switch"]; sw.Token != "1.001" || sw.GroupAddress != "1/1/1" {
		t.Errorf("Hall_Switch = %+v", sw)
	}
	if energy := got["Hall_Energy"]; energy.Token != "13.010" {
		t.Errorf("Hall_Energy token = %q, want first listed DPT 13.010", energy.Token)
	}
	if len(imp.Skipped) != 1 || imp.Skipped[0].Name != "Mystery" {
		t.Errorf("Skipped = %+v", imp.Skipped)
	}
}

func TestImportETS_KNXProjSniffedWithoutExtension(t *testing.T) {
	data := buildKNXProj(t, map[string]string{"P-0001/0.xml": projectXML})
	imp, err := ImportETS(data, "upload")
	if err != nil {
		t.Fatalf("ImportETS() error = %v", err)
	}
	if imp.Format != FormatKNXProj {
		t.Errorf("Format = %q, want knxproj", imp.Format)
	}
}

func TestImportETS_CSV(t *testing.T) {
	csvData := "\xEF\xBB\xBF\"Group name\";\"Address\";\"Central\";\"Unfiltered\";\"Description\";\"DatapointType\";\"Security\"\n" +
		"\"Heating\";\"1/-/-\";\"\";\"\";\"\";\"\";\"Auto\"\n" +
		"\"Outdoor Temp\";\"1/0/10\";\"\";\"\";\"North wall\";\"DPST-9-1\";\"Auto\"\n" +
		"\"Wind Alarm\";\"1/0/11\";\"\";\"\";\"\";\"DPST-1-5\";\"Auto\"\n"

	imp, err := ImportETS([]byte(csvData), "export.csv")
	if err != nil {
		t.Fatalf("ImportETS() error = %v", err)
	}
	if len(imp.Datapoints) != 2 {
		t.Fatalf("Datapoints = %+v, want 2", imp.Datapoints)
	}
	got := byName(imp)
	if d := got["Outdoor_Temp"]; d.Token != "9.001" || d.GroupAddress != "1/0/10" || d.Description != "North wall" {
		t.Errorf("Outdoor_Temp = %+v", d)
	}
	if d := got["Wind_Alarm"]; d.Token != "1.005" {
		t.Errorf("Wind_Alarm = %+v", d)
	}
}

// ─── Rejections ─────────────────────────────────────────────────────

func TestImportETS_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		filename string
	}{
		{"unknown format", []byte("hello"), "notes.txt"},
		{"corrupt archive", []byte("PK\x03\x04garbage"), "x.knxproj"},
		{"empty archive", buildKNXProj(t, map[string]string{"readme.txt": "x"}), "x.knxproj"},
		{"protected project", buildKNXProj(t, map[string]string{"P-0001.zip": "x"}), "x.knxproj"},
		{"malformed xml", []byte("<GroupAddress-Export><GroupRange>"), "x.xml"},
		{"no addresses", []byte("<root/>"), "x.xml"},
		{"csv without address column", []byte("name;dpt\nA;9.001\n"), "x.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ImportETS(tt.data, tt.filename); !errors.Is(err, ErrInvalidImport) {
				t.Errorf("ImportETS() error = %v, want ErrInvalidImport", err)
			}
		})
	}
}

func TestImportETS_AppliedThroughRegistry(t *testing.T) {
	imp, err := ImportETS([]byte(groupAddressXML), "export.xml")
	if err != nil {
		t.Fatalf("ImportETS() error = %v", err)
	}

	r := newTestRegistry(t)
	res, err := r.Apply(context.Background(), imp.Datapoints, SourceETS)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if res.Created != len(imp.Datapoints) || len(res.Skipped) != 0 {
		t.Errorf("Apply() = %+v", res)
	}
	d, err := r.Get(context.Background(), "Living_Room_Valve")
	if err != nil || d.Source != SourceETS {
		t.Errorf("Get() = %+v, %v", d, err)
	}
}
