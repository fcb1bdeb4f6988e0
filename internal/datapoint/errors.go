package datapoint

import "errors"

// Domain errors for the datapoint package.
var (
	// ErrNotFound is returned when a datapoint name does not exist.
	ErrNotFound = errors.New("datapoint: not found")

	// ErrExists is returned when creating a datapoint whose name is taken.
	ErrExists = errors.New("datapoint: already exists")

	// ErrInvalidName is returned for empty, oversized or malformed names.
	ErrInvalidName = errors.New("datapoint: invalid name")

	// ErrInvalidToken is returned when a token does not resolve.
	ErrInvalidToken = errors.New("datapoint: invalid token")

	// ErrInvalidGroupAddress is returned for malformed group addresses, or a
	// group address on a non-KNX datapoint.
	ErrInvalidGroupAddress = errors.New("datapoint: invalid group address")

	// ErrInvalidUnitID is returned for Modbus unit identifiers outside 0..247.
	ErrInvalidUnitID = errors.New("datapoint: invalid unit id")

	// ErrGroupAddressInUse is returned when two datapoints claim the same
	// group address.
	ErrGroupAddressInUse = errors.New("datapoint: group address in use")

	// ErrInvalidImport is returned when an import file cannot be read.
	ErrInvalidImport = errors.New("datapoint: invalid import file")
)
