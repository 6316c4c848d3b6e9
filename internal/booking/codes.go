// Package booking implements the reservation lifecycle and
// seat-inventory consistency engine: admission, the token-based
// confirmation handshake, expiration sweeps, cancellation, attendee
// materialization and the administrative capacity guard. Components
// are stateless; all coordination happens through the store
// interfaces in stores.go.
package booking

import (
	"errors"

	"github.com/stagedoor/theatre-ticket-reservation/internal/repository"
)

// Code identifies a business-rule rejection. Handlers map codes to
// HTTP statuses; the codes themselves are stable across the API.
type Code string

const (
	CodeInvalidInput      Code = "invalid_input"
	CodeNotFound          Code = "not_found"
	CodeNotOpen           Code = "not_open"
	CodeDuplicateSchedule Code = "duplicate_schedule"
	CodeCapReached        Code = "cap_reached"
	CodeSeatShortage      Code = "seat_shortage"
	CodeExpiredLink       Code = "expired_link"
	CodeBadToken          Code = "bad_token"
	CodeAlreadyCancelled  Code = "already_cancelled"
	CodeFrozen            Code = "frozen"
	CodeInternal          Code = "internal"
)

// Error is a typed business outcome. Expected rejections travel as
// *Error values; only storage and collaborator failures pass through
// untyped and are reported to the alerting sink.
type Error struct {
	Code    Code
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string { return string(e.Code) + ": " + e.Message }

// E builds a typed business error.
func E(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the business code from an error. Untyped errors
// report CodeInternal.
func CodeOf(err error) Code {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeInternal
}

// notFoundOr maps the repository not-found sentinels to a typed
// not-found rejection with the given message; any other error passes
// through untouched as a storage failure.
func notFoundOr(err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrPerformanceNotFound),
		errors.Is(err, repository.ErrScheduleNotFound),
		errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrAttendeeNotFound):
		return E(CodeNotFound, msg)
	}
	return err
}

// seatOr maps a failed seat grab to its typed rejection.
func seatOr(err error) error {
	if errors.Is(err, repository.ErrSeatShortage) {
		return E(CodeSeatShortage, "not enough seats remaining")
	}
	return notFoundOr(err, "schedule not found")
}
