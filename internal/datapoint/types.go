package datapoint

import (
	"time"

	"github.com/nerrad567/gray-logic-codec/internal/bridges/knx"
	"github.com/nerrad567/gray-logic-codec/internal/codec"
	"github.com/nerrad567/gray-logic-codec/internal/codec/bitbuf"
	"github.com/nerrad567/gray-logic-codec/internal/plc"
)

// Source records where a datapoint definition came from.
type Source string

// Datapoint sources.
const (
	SourceAPI  Source = "api"
	SourceSeed Source = "seed"
	SourceETS  Source = "ets"
)

// Datapoint names one decodable value.
type Datapoint struct {
	// Name is the catalog key. It appears in MQTT topics and URLs.
	Name string `json:"name" yaml:"name"`

	// Token is the address token, for example "holding-register:1:REAL"
	// or "9.001".
	Token string `json:"token" yaml:"token"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// GroupAddress is the KNX group address ("1/2/3") telegrams for this
	// datapoint arrive on. Empty for Modbus datapoints.
	GroupAddress string `json:"group_address,omitempty" yaml:"group_address,omitempty"`

	// UnitID is the Modbus unit identifier. Zero for KNX datapoints.
	UnitID uint8 `json:"unit_id,omitempty" yaml:"unit_id,omitempty"`

	Source Source `json:"source,omitempty" yaml:"-"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Descriptor resolves the datapoint's token. order applies to Modbus
// multi-register values only.
func (d *Datapoint) Descriptor(order bitbuf.ByteOrder) (codec.Descriptor, error) {
	return plc.ResolveWithOrder(d.Token, order)
}

// ParsedGroupAddress returns the parsed group address, or false if the
// datapoint has none.
func (d *Datapoint) ParsedGroupAddress() (knx.GroupAddress, bool) {
	if d.GroupAddress == "" {
		return knx.GroupAddress{}, false
	}
	ga, err := knx.ParseGroupAddress(d.GroupAddress)
	if err != nil {
		return knx.GroupAddress{}, false
	}
	return ga, true
}

// Clone returns a copy of d.
func (d *Datapoint) Clone() *Datapoint {
	c := *d
	return &c
}
