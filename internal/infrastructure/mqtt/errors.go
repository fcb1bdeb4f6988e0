package mqtt

import "errors"

// Broker errors. Failures wrap one of these with the broker's reason.
var (
	// ErrNotConnected is returned while the broker link is down. Paho keeps
	// reconnecting in the background; callers may retry.
	ErrNotConnected = errors.New("mqtt: not connected to broker")

	// ErrConnectionFailed is returned by Connect when the first connection
	// is refused or times out.
	ErrConnectionFailed = errors.New("mqtt: broker connection failed")

	// ErrPublishFailed covers oversize payloads, timeouts and broker errors.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed covers nil handlers, timeouts and broker errors.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed covers timeouts and broker errors on unsubscribe.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS is returned for a QoS level other than 0, 1 or 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned for an empty topic.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)
