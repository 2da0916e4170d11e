package signing

import (
	"errors"
	"fmt"

	"github.com/backkem/xmrsign/pkg/message"
)

// Signing errors. Every error returned by Engine.Step is a *StepError
// wrapping one of these.
var (
	// ErrProtocolOrder is returned for a request that is not accepted in the
	// current state.
	ErrProtocolOrder = errors.New("signing: request out of order")

	// ErrBounds is returned when an index or count exceeds its declared bound,
	// or a permutation is not a bijection.
	ErrBounds = errors.New("signing: index out of bounds")

	// ErrAuthentication is returned when an offloaded item fails its HMAC or
	// AEAD check.
	ErrAuthentication = errors.New("signing: authentication failed")

	// ErrBalance is returned when the fee, amount or mask sums do not balance.
	ErrBalance = errors.New("signing: balance check failed")

	// ErrPrefixMismatch is returned when the prefix hash differs from the
	// expected one declared at Init.
	ErrPrefixMismatch = errors.New("signing: transaction prefix hash mismatch")

	// ErrStateMachine is returned when a hash accumulator is used out of order.
	ErrStateMachine = errors.New("signing: hash accumulator out of order")

	// ErrCryptoAssertion is returned when a recomputed key, commitment or
	// proof does not match the claimed value.
	ErrCryptoAssertion = errors.New("signing: crypto assertion failed")

	// ErrBatchPolicy is returned when a range proof arrives at the wrong time.
	ErrBatchPolicy = fmt.Errorf("%w: range proof batching policy", ErrProtocolOrder)

	// ErrAborted is returned for any request after a fatal error.
	ErrAborted = fmt.Errorf("%w: transaction aborted", ErrProtocolOrder)

	// ErrUserAbort is returned when the user refuses the transaction.
	ErrUserAbort = errors.New("signing: rejected by user")

	// ErrInvalidRequest is returned for malformed request fields.
	ErrInvalidRequest = errors.New("signing: invalid request")

	// ErrInvalidConfig is returned by NewEngine for an unusable configuration.
	ErrInvalidConfig = errors.New("signing: invalid configuration")
)

// StepError reports the step at which a transaction failed.
type StepError struct {
	Kind message.Kind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("signing: %s: %v", e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// StatusOf maps an engine error to a wire status.
func StatusOf(err error) message.Status {
	switch {
	case err == nil:
		return message.StatusOK
	case errors.Is(err, ErrBatchPolicy):
		return message.StatusBatchPolicy
	case errors.Is(err, ErrProtocolOrder):
		return message.StatusProtocolOrder
	case errors.Is(err, ErrBounds):
		return message.StatusBounds
	case errors.Is(err, ErrAuthentication):
		return message.StatusAuthentication
	case errors.Is(err, ErrBalance):
		return message.StatusBalance
	case errors.Is(err, ErrPrefixMismatch):
		return message.StatusPrefixMismatch
	case errors.Is(err, ErrStateMachine):
		return message.StatusStateMachine
	case errors.Is(err, ErrCryptoAssertion):
		return message.StatusCryptoAssertion
	case errors.Is(err, ErrUserAbort):
		return message.StatusUserAbort
	case errors.Is(err, ErrInvalidRequest):
		return message.StatusInvalid
	default:
		return message.StatusInternal
	}
}

// ErrorOf is the inverse of StatusOf, used by hosts to surface a remote
// failure as a local sentinel.
func ErrorOf(status message.Status) error {
	switch status {
	case message.StatusOK:
		return nil
	case message.StatusBatchPolicy:
		return ErrBatchPolicy
	case message.StatusProtocolOrder:
		return ErrProtocolOrder
	case message.StatusBounds:
		return ErrBounds
	case message.StatusAuthentication:
		return ErrAuthentication
	case message.StatusBalance:
		return ErrBalance
	case message.StatusPrefixMismatch:
		return ErrPrefixMismatch
	case message.StatusStateMachine:
		return ErrStateMachine
	case message.StatusCryptoAssertion:
		return ErrCryptoAssertion
	case message.StatusUserAbort:
		return ErrUserAbort
	case message.StatusInvalid:
		return ErrInvalidRequest
	default:
		return errors.New("signing: internal device error")
	}
}

// errf wraps a sentinel with a formatted detail.
func errf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// hashErr wraps a hasher failure.
func hashErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStateMachine, err)
}
