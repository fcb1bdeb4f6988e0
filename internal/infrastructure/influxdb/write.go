package influxdb

import (
	"encoding/hex"
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-codec/internal/codec"
	"github.com/nerrad567/gray-logic-codec/internal/codec/values"
)

// Measurement names.
const (
	measurementDatapoint   = "datapoint"
	measurementDecodeError = "decode_error"
)

// WriteValue records a decoded value under the "datapoint" measurement,
// tagged with the datapoint name, family and type. The write is
// non-blocking. Null values, and values with no numeric or text member,
// are not written.
//
// Example line:
//
//	datapoint,family=knx,name=flow_temp,type=9.001 value=21.5
func (c *Client) WriteValue(name string, desc codec.Descriptor, v values.Value, at time.Time) {
	if !c.IsConnected() {
		return
	}
	if p := valuePoint(name, desc, v, at); p != nil {
		c.points.Add(1)
		c.writeAPI.WritePoint(p)
	}
}

// WriteDecodeError counts a failed decode under "decode_error", tagged
// with the response code.
func (c *Client) WriteDecodeError(name string, desc codec.Descriptor, code string, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.points.Add(1)
	c.writeAPI.WritePoint(write.NewPoint(
		measurementDecodeError,
		pointTags(name, desc, map[string]string{"code": code}),
		map[string]any{"count": int64(1)},
		at,
	))
}

func valuePoint(name string, desc codec.Descriptor, v values.Value, at time.Time) *write.Point {
	fields := make(map[string]any)
	appendFields(fields, "value", v)
	if len(fields) == 0 {
		return nil
	}
	return write.NewPoint(measurementDatapoint, pointTags(name, desc, nil), fields, at)
}

func pointTags(name string, desc codec.Descriptor, extra map[string]string) map[string]string {
	tags := map[string]string{
		"name":   name,
		"family": desc.Family.String(),
		"type":   desc.Type,
	}
	for k, v := range extra {
		tags[k] = v
	}
	return tags
}

// appendFields flattens v into InfluxDB fields. Lists become key_0, key_1;
// struct members become key.member, except at the top level where the
// member name is used on its own.
func appendFields(fields map[string]any, key string, v values.Value) {
	switch k := v.Kind(); {
	case k == values.KindNull:
	case k.IsFloat():
		f, _ := v.AsFloat64() //nolint:errcheck // kind checked
		fields[key] = f
	case k == values.KindBool, k.IsInteger():
		fields[key] = v.Native()
	case k == values.KindString:
		s, _ := v.AsString() //nolint:errcheck // kind checked
		fields[key] = s
	case k == values.KindDateTime:
		t, _ := v.AsTime() //nolint:errcheck // kind checked
		fields[key] = t.UTC().Format(time.RFC3339Nano)
	case k == values.KindRaw:
		b, _ := v.AsBytes() //nolint:errcheck // kind checked
		fields[key] = hex.EncodeToString(b)
	case k == values.KindList:
		elems, _ := v.AsList() //nolint:errcheck // kind checked
		for i, e := range elems {
			appendFields(fields, key+"_"+strconv.Itoa(i), e)
		}
	case k == values.KindStruct:
		members, _ := v.AsStruct() //nolint:errcheck // kind checked
		for _, m := range members {
			sub := m.Name
			if key != "value" {
				sub = key + "." + m.Name
			}
			appendFields(fields, sub, m.Value)
		}
	}
}
