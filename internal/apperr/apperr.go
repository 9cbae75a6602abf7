package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindPrecondition Kind = "precondition"
	KindInvalid      Kind = "invalid"
)

// Error codes returned to API clients.
const (
	CodeBookingNotFound     = "BOOKING_NOT_FOUND"
	CodeRoomNotFound        = "ROOM_NOT_FOUND"
	CodeCategoryNotFound    = "CATEGORY_NOT_FOUND"
	CodeGuestNotFound       = "GUEST_NOT_FOUND"
	CodeTaskNotFound        = "TASK_NOT_FOUND"
	CodeReservationNotFound = "RESERVATION_NOT_FOUND"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeSubscriptionMissing = "SUBSCRIPTION_NOT_FOUND"

	CodeDuplicateReference  = "DUPLICATE_REFERENCE"
	CodeReferenceExhausted  = "REFERENCE_EXHAUSTED"
	CodeDuplicateRoomNumber = "DUPLICATE_ROOM_NUMBER"
	CodeDuplicateEmail      = "DUPLICATE_EMAIL"
	CodeDuplicate           = "DUPLICATE"
	CodeStaleWrite          = "STALE_WRITE"
	CodeRoomUnavailable     = "ROOM_UNAVAILABLE"
	CodeNoAvailability      = "NO_AVAILABILITY"
	CodeStatusUnchanged     = "STATUS_UNCHANGED"
	CodeAlreadyProcessed    = "ALREADY_PROCESSED"

	CodeInvalidDateRange   = "INVALID_DATE_RANGE"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeRoomNotClean       = "ROOM_NOT_CLEAN"
	CodeDoorCodeRequired   = "DOOR_CODE_REQUIRED"
	CodeStatusNotEligible  = "BOOKING_STATUS_NOT_ELIGIBLE"
	CodePaymentRequired    = "PAYMENT_REQUIRED"
	CodeUserNotStaff       = "USER_NOT_STAFF"
	CodeNoEmployeeIdentity = "NO_EMPLOYEE_IDENTITY"
	CodeRoomNotInBooking   = "ROOM_NOT_IN_BOOKING"
	CodeInsufficientRooms  = "INSUFFICIENT_ROOMS"
	CodeCategoryMismatch   = "CATEGORY_MISMATCH"
	CodeReservationClosed  = "RESERVATION_CLOSED"

	CodeInvalidInput = "INVALID_INPUT"
)

// Error is an application error with a stable code and a client-safe message.
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap attaches an underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// AsRetryable marks the error as safe to retry by the caller.
func (e *Error) AsRetryable() *Error {
	e.Retryable = true
	return e
}

func newError(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(code, format string, args ...any) *Error {
	return newError(KindNotFound, code, format, args...)
}

func Conflict(code, format string, args ...any) *Error {
	return newError(KindConflict, code, format, args...)
}

func Precondition(code, format string, args ...any) *Error {
	return newError(KindPrecondition, code, format, args...)
}

func Invalid(code, format string, args ...any) *Error {
	return newError(KindInvalid, code, format, args...)
}

// KindOf returns the kind of err, or "" for errors that are not application errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf returns the code of err, or "" for errors that are not application errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsRetryable reports whether err is an application error marked as retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// HTTPStatus maps err to the status code returned by the API.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindPrecondition:
		return http.StatusUnprocessableEntity
	case KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
