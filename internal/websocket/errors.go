package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrClientClosed    = errors.New("client connection is closed")
	ErrInvalidMessage  = errors.New("invalid message format")
)

// ClientError is an intent failure reported back to the originating
// connection. Code is a stable machine-readable identifier.
type ClientError struct {
	Code      string
	Retryable bool
	Err       error
}

func (e *ClientError) Error() string {
	return e.Err.Error()
}

func (e *ClientError) Unwrap() error {
	return e.Err
}
