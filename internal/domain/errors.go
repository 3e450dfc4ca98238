package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrWSDisconnect = errors.New("websocket disconnected")
)

// OrderErrorKind classifies the ways an order leg can fail.
type OrderErrorKind string

const (
	// OrderErrSubmitRejected: the transport refused the submission outright.
	OrderErrSubmitRejected OrderErrorKind = "submit_rejected"
	// OrderErrConfirmRejected: a confirmation event arrived carrying an error.
	OrderErrConfirmRejected OrderErrorKind = "confirm_rejected"
	// OrderErrConfirmTimeout: no confirmation arrived inside the wait window.
	// The leg's true state (filled or not) is unknown to the executor.
	OrderErrConfirmTimeout OrderErrorKind = "confirm_timeout"
)

// OrderError is the only error the executor surfaces. Code and Side identify
// the failed leg. OutcomeUnknown is set only for confirmation timeouts: an
// in-flight submission cannot be cancelled, so a timed-out wait leaves the
// leg unreconciled rather than cleanly rejected.
type OrderError struct {
	Kind           OrderErrorKind
	Code           string
	Side           Side
	Reason         string
	OutcomeUnknown bool
	Err            error
}

func (e *OrderError) Error() string {
	msg := fmt.Sprintf("order %s %s: %s", e.Side, e.Code, e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OrderError) Unwrap() error { return e.Err }

// NewSubmitError builds an OrderError for a rejected submission.
func NewSubmitError(code string, side Side, err error) *OrderError {
	return &OrderError{Kind: OrderErrSubmitRejected, Code: code, Side: side, Err: err}
}

// NewConfirmError builds an OrderError for a confirmation event that carried
// an error indicator.
func NewConfirmError(code string, side Side, reason string) *OrderError {
	return &OrderError{Kind: OrderErrConfirmRejected, Code: code, Side: side, Reason: reason}
}

// NewConfirmTimeout builds an OrderError for a confirmation wait that expired
// with no matching event.
func NewConfirmTimeout(code string, side Side) *OrderError {
	return &OrderError{
		Kind:           OrderErrConfirmTimeout,
		Code:           code,
		Side:           side,
		Reason:         "no confirmation",
		OutcomeUnknown: true,
	}
}
