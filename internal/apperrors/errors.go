package apperrors

import "fmt"

// Kind classifies an expected, recoverable failure. Every kind maps to
// a stable user-presentable message; internal detail never leaks past
// the API boundary.
type Kind string

const (
	// KindUnauthorized means the caller is not authenticated at all;
	// KindForbidden means they are, but lack the role or ownership.
	KindUnauthorized     Kind = "UNAUTHORIZED"
	KindForbidden        Kind = "FORBIDDEN"
	KindNotFound         Kind = "NOT_FOUND"
	KindInvalidState     Kind = "INVALID_STATE"
	KindValidation       Kind = "VALIDATION_ERROR"
	KindEventFull        Kind = "EVENT_FULL"
	KindWindowClosed     Kind = "WINDOW_CLOSED"
	KindDuplicateRequest Kind = "DUPLICATE_REQUEST"
	KindInternal         Kind = "INTERNAL"
)

// Error is a typed domain failure carrying its taxonomy kind and a
// message safe to show to the end user.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches two taxonomy errors by kind alone, so callers can compare
// against a bare kind sentinel without caring about the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf extracts the taxonomy kind from an error chain, returning
// KindInternal for anything that is not a domain failure.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return KindInternal
		}
		err = u.Unwrap()
	}
	return KindInternal
}

// IsKind reports whether err carries the given taxonomy kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: "authentication required"}
}

func Forbidden(msg string) *Error {
	if msg == "" {
		msg = "you are not allowed to perform this action"
	}
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func InvalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func EventFull() *Error {
	return &Error{Kind: KindEventFull, Message: "this event has reached its maximum number of attendees"}
}

func WindowClosed(msg string) *Error {
	return &Error{Kind: KindWindowClosed, Message: msg}
}

func DuplicateRequest() *Error {
	return &Error{Kind: KindDuplicateRequest, Message: "a pending request for this event already exists for your facility"}
}

// Internal wraps an unexpected failure. The user-facing message is
// deliberately generic.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "an unexpected error occurred", cause: cause}
}
