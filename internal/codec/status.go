package codec

import "errors"

// ResponseCode is the per-field outcome reported alongside a decoded value.
type ResponseCode string

// Response codes.
const (
	StatusOK              ResponseCode = "OK"
	StatusInvalidAddress  ResponseCode = "INVALID_ADDRESS"
	StatusNotFound        ResponseCode = "NOT_FOUND"
	StatusInvalidData     ResponseCode = "INVALID_DATA"
	StatusInvalidDatatype ResponseCode = "INVALID_DATATYPE"
	StatusInternalError   ResponseCode = "INTERNAL_ERROR"
)

// StatusOf maps an error from parsing, decoding or encoding to the response
// code a caller branches on. A nil error is StatusOK.
func StatusOf(err error) ResponseCode {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrInvalidAddressSyntax):
		return StatusInvalidAddress
	case errors.Is(err, ErrUnknownDatapointType), errors.Is(err, ErrUnknownRegisterType):
		return StatusNotFound
	case errors.Is(err, ErrBufferUnderflow), errors.Is(err, ErrValueOutOfRange):
		return StatusInvalidData
	case errors.Is(err, ErrValueKindMismatch):
		return StatusInvalidDatatype
	default:
		return StatusInternalError
	}
}
