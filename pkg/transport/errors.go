package transport

import "errors"

// Transport errors.
var (
	// ErrClosed is returned when an operation is attempted on a closed transport.
	ErrClosed = errors.New("transport: closed")

	// ErrNoConn is returned when no connection is configured.
	ErrNoConn = errors.New("transport: no connection configured")

	// ErrNoEngine is returned when a device has no signing engine.
	ErrNoEngine = errors.New("transport: no signing engine configured")

	// ErrAlreadyStarted is returned when Start is called on an already running transport.
	ErrAlreadyStarted = errors.New("transport: already started")

	// ErrSendFailed is returned when sending a message fails.
	ErrSendFailed = errors.New("transport: send failed")

	// ErrUnexpectedReply is returned when a reply does not answer the request.
	ErrUnexpectedReply = errors.New("transport: reply does not match request")
)
