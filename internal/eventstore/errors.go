package eventstore

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes lookup errors.
type ErrorCode string

const (
	// CodeInvalidWindow indicates the computed window has start after end.
	CodeInvalidWindow ErrorCode = "INVALID_WINDOW"

	// CodeInvalidQuery indicates caller-supplied conditions or filter keys
	// that no store could execute.
	CodeInvalidQuery ErrorCode = "INVALID_QUERY"

	// CodeQueryFailed indicates the store reported an error or returned a
	// row that breaks the Querier contract.
	CodeQueryFailed ErrorCode = "QUERY_FAILED"
)

// Sentinels for errors.Is matching against *Error codes.
var (
	ErrInvalidWindow = errors.New("invalid window")
	ErrInvalidQuery  = errors.New("invalid query")
	ErrQueryFailed   = errors.New("query failed")
)

// Error is returned by lookups that could not produce an answer.
// An absent reference or an empty result is never an Error.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Referrer names the lookup that failed.
	Referrer string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Referrer != "" {
		msg += fmt.Sprintf(" (referrer=%s)", e.Referrer)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels by code.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidWindow:
		return e.Code == CodeInvalidWindow
	case ErrInvalidQuery:
		return e.Code == CodeInvalidQuery
	case ErrQueryFailed:
		return e.Code == CodeQueryFailed
	}
	return false
}

// IsInvalidWindow returns true if the error is an invalid window error.
// Uses errors.As to handle wrapped errors.
func IsInvalidWindow(err error) bool {
	return hasCode(err, CodeInvalidWindow)
}

// IsInvalidQuery returns true if the error is an invalid query error.
func IsInvalidQuery(err error) bool {
	return hasCode(err, CodeInvalidQuery)
}

// IsQueryFailed returns true if the error is a store failure.
func IsQueryFailed(err error) bool {
	return hasCode(err, CodeQueryFailed)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func newInvalidWindowError(referrer, message string) *Error {
	return &Error{
		Code:     CodeInvalidWindow,
		Message:  message,
		Referrer: referrer,
	}
}

func newInvalidQueryError(referrer string, err error) *Error {
	return &Error{
		Code:     CodeInvalidQuery,
		Message:  "query rejected before dispatch",
		Referrer: referrer,
		Err:      err,
	}
}

func newQueryFailedError(referrer, message string, err error) *Error {
	return &Error{
		Code:     CodeQueryFailed,
		Message:  message,
		Referrer: referrer,
		Err:      err,
	}
}
