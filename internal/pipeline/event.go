package pipeline

import (
	"time"

	"github.com/nerrad567/gray-logic-codec/internal/codec"
	"github.com/nerrad567/gray-logic-codec/internal/codec/values"
)

// Event is the outcome of decoding one frame. It is the JSON body of the
// value and error topics and the websocket payload.
type Event struct {
	Datapoint string             `json:"datapoint" cbor:"datapoint"`
	Token     string             `json:"token" cbor:"token"`
	Code      codec.ResponseCode `json:"code" cbor:"code"`
	Kind      string             `json:"kind,omitempty" cbor:"kind,omitempty"`
	Value     *values.Value      `json:"value,omitempty" cbor:"value,omitempty"`
	Unit      string             `json:"unit,omitempty" cbor:"unit,omitempty"`
	Error     string             `json:"error,omitempty" cbor:"error,omitempty"`
	Source    string             `json:"source" cbor:"source"`
	Timestamp time.Time          `json:"timestamp" cbor:"timestamp"`
}

// OK reports whether the frame decoded.
func (e Event) OK() bool {
	return e.Code == codec.StatusOK
}

// Event sources.
const (
	SourceRaw  = "raw"
	SourceKNXD = "knxd"
)

// Websocket channels events are broadcast on.
const (
	ChannelValues = "values"
	ChannelErrors = "errors"
)
