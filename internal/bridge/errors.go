package bridge

import (
	"errors"
	"fmt"

	"github.com/mbridge/mbridge/internal/engine"
)

// BridgeError represents an error surfaced by the dispatch bridge.
//
// Bridge errors fall into four groups:
//   - Encoding: malformed packed strings, oversized tokens, unbuildable
//     references. Rejected before any engine call is attempted.
//   - Engine: nonzero status from the call channel, propagated verbatim
//     as {code, message}.
//   - Capacity: input or output exceeding a buffer ceiling. Fatal to the
//     call, never to the shared gate.
//   - Interrupt: a trapped interrupt, completed normally with a
//     distinguishing status.
type BridgeError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description. For engine errors this is
	// the engine-supplied message text.
	Message string

	// Op names the operation that failed.
	Op string

	// Status carries the engine status code for engine and interrupt
	// errors; zero otherwise.
	Status engine.Status
}

// ErrorCode categorizes bridge errors.
type ErrorCode string

const (
	// ErrCodeEncoding indicates the request could not be encoded for the
	// engine. The engine was never called.
	ErrCodeEncoding ErrorCode = "ENCODING"

	// ErrCodeCapacity indicates an input or output exceeded a buffer
	// ceiling.
	ErrCodeCapacity ErrorCode = "CAPACITY_EXCEEDED"

	// ErrCodeEngine indicates a nonzero engine status.
	ErrCodeEngine ErrorCode = "ENGINE"

	// ErrCodeInterrupt indicates the call was interrupted and trapped on
	// the engine side.
	ErrCodeInterrupt ErrorCode = "INTERRUPT"

	// ErrCodeClosed indicates the bridge was shut down before or during
	// the call.
	ErrCodeClosed ErrorCode = "CLOSED"
)

// Error implements the error interface.
func (e *BridgeError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (op=%s, status=%d)", e.Code, e.Message, e.Op, e.Status)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsEncodingError reports whether err is an encoding rejection.
// Uses errors.As to handle wrapped errors.
func IsEncodingError(err error) bool {
	var be *BridgeError
	return errors.As(err, &be) && be.Code == ErrCodeEncoding
}

// IsEngineError reports whether err carries a nonzero engine status.
func IsEngineError(err error) bool {
	var be *BridgeError
	return errors.As(err, &be) && be.Code == ErrCodeEngine
}

// IsCapacityError reports whether err is a buffer-ceiling violation.
func IsCapacityError(err error) bool {
	var be *BridgeError
	return errors.As(err, &be) && be.Code == ErrCodeCapacity
}

// IsInterrupt reports whether err is a trapped interrupt completion.
func IsInterrupt(err error) bool {
	var be *BridgeError
	return errors.As(err, &be) && be.Code == ErrCodeInterrupt
}

// NewEncodingError creates a pre-dispatch encoding rejection.
func NewEncodingError(op, message string) *BridgeError {
	return &BridgeError{Code: ErrCodeEncoding, Op: op, Message: message}
}

// NewCapacityError creates a buffer-ceiling violation for the given
// direction ("input" or "output").
func NewCapacityError(op, direction string, size, limit int) *BridgeError {
	return &BridgeError{
		Code:    ErrCodeCapacity,
		Op:      op,
		Message: fmt.Sprintf("%s of %d bytes exceeds %d byte ceiling", direction, size, limit),
	}
}

// NewEngineError wraps a nonzero engine status verbatim.
func NewEngineError(op string, status engine.Status, message string) *BridgeError {
	code := ErrCodeEngine
	if status == engine.StatusInterrupt {
		code = ErrCodeInterrupt
	}
	return &BridgeError{Code: code, Op: op, Status: status, Message: message}
}
