package knx

import (
	"errors"

	"github.com/nerrad567/gray-logic-codec/internal/codec"
)

// Domain errors for the KNX package.
var (
	// ErrInvalidGroupAddress is returned when a group address string
	// cannot be parsed.
	ErrInvalidGroupAddress = errors.New("knx: invalid group address")

	// ErrInvalidTelegram is returned when a received telegram is malformed.
	ErrInvalidTelegram = errors.New("knx: invalid telegram")

	// ErrNoPayload is returned when a telegram carries no value, as for
	// group read requests.
	ErrNoPayload = errors.New("knx: telegram has no payload")

	// ErrConnectionFailed is returned when the knxd socket cannot be
	// dialled or the group connection is refused.
	ErrConnectionFailed = errors.New("knx: knxd connection failed")

	// ErrNotConnected is returned by HealthCheck while the monitor is
	// between connections.
	ErrNotConnected = errors.New("knx: not connected to knxd")

	// ErrProtocolDesync is returned when a knxd frame cannot be framed,
	// which forces a reconnect.
	ErrProtocolDesync = errors.New("knx: knxd stream out of sync")

	// ErrUnknownDatapointType is returned for identifiers missing from the
	// datapoint type table.
	ErrUnknownDatapointType = codec.ErrUnknownDatapointType
)
