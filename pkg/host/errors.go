package host

import "errors"

// Host errors.
var (
	// ErrNoDevice is returned by NewSigner without a device.
	ErrNoDevice = errors.New("host: no device configured")

	// ErrUnexpectedResponse is returned when the device answers with another
	// response type or accepts an unexpected next step.
	ErrUnexpectedResponse = errors.New("host: unexpected device response")

	// ErrInvalidTransaction is returned for an unusable transaction description.
	ErrInvalidTransaction = errors.New("host: invalid transaction")

	// ErrVerification is returned when a signed transaction does not verify.
	ErrVerification = errors.New("host: verification failed")
)
