package mqtt

import "strings"

// DefaultTopicPrefix is the root of every topic when none is configured.
const DefaultTopicPrefix = "plccodec"

// Topic categories under the prefix.
const (
	categoryRaw    = "raw"
	categoryValue  = "value"
	categoryCBOR   = "cbor"
	categoryError  = "error"
	categoryKNXD   = "knxd"
	categoryStatus = "status"
)

// Topics builds the codec service topic tree:
//
//	{prefix}/raw/{datapoint}    raw bytes in (hex or binary)
//	{prefix}/value/{datapoint}  decoded value, JSON, retained
//	{prefix}/cbor/{datapoint}   decoded value, CBOR, retained
//	{prefix}/error/{datapoint}  decode failure, JSON
//	{prefix}/knxd               knxd-framed group packets in
//	{prefix}/status             service online/offline, retained
type Topics struct {
	Prefix string
}

// NewTopics returns a builder rooted at prefix, falling back to
// DefaultTopicPrefix. A trailing slash is dropped.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{Prefix: prefix}
}

func (t Topics) join(parts ...string) string {
	return t.Prefix + "/" + strings.Join(parts, "/")
}

// Raw returns the inbound topic for a datapoint's raw bytes.
//
// Example: plccodec/raw/flow_temp
func (t Topics) Raw(datapoint string) string {
	return t.join(categoryRaw, datapoint)
}

// Value returns the topic carrying a datapoint's decoded JSON value.
func (t Topics) Value(datapoint string) string {
	return t.join(categoryValue, datapoint)
}

// CBOR returns the topic carrying a datapoint's decoded CBOR value.
func (t Topics) CBOR(datapoint string) string {
	return t.join(categoryCBOR, datapoint)
}

// Error returns the topic carrying a datapoint's last decode failure.
func (t Topics) Error(datapoint string) string {
	return t.join(categoryError, datapoint)
}

// KNXD returns the inbound topic for knxd group packets.
func (t Topics) KNXD() string {
	return t.join(categoryKNXD)
}

// Status returns the service status topic used for the LWT.
func (t Topics) Status() string {
	return t.join(categoryStatus)
}

// AllRaw returns a pattern matching every datapoint's raw topic.
//
// Pattern: plccodec/raw/+
func (t Topics) AllRaw() string {
	return t.join(categoryRaw, "+")
}

// RawDatapoint extracts the datapoint name from a raw topic. It reports
// false for topics outside {prefix}/raw/ or with extra levels.
func (t Topics) RawDatapoint(topic string) (string, bool) {
	name, ok := strings.CutPrefix(topic, t.join(categoryRaw)+"/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}
