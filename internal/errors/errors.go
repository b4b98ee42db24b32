package errors

import "fmt"

// Kind is the machine-readable classification surfaced to callers.
type Kind string

const (
	KindSelfReference Kind = "self_reference"
	KindUnknownUser   Kind = "unknown_user"
	KindNotMatched    Kind = "not_matched"
	KindNotFound      Kind = "not_found"
	KindInvalid       Kind = "invalid_argument"
	KindInternal      Kind = "internal"
)

// Error is a domain error with a stable kind. Services return these for
// rejected operations; the HTTP layer maps them via Map.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// SelfReference rejects an actor targeting themselves.
func SelfReference() *Error {
	return &Error{Kind: KindSelfReference, Message: "cannot interact with yourself"}
}

// UnknownUser rejects an id that does not resolve to an existing user.
func UnknownUser(id uint64) *Error {
	return &Error{Kind: KindUnknownUser, Message: fmt.Sprintf("user %d not found", id)}
}

// NotMatched rejects a chat or presence operation between unmatched users.
func NotMatched() *Error {
	return &Error{Kind: KindNotMatched, Message: "users are not matched"}
}

// NotFound reports a missing record.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// InvalidArgument reports bad input validation.
func InvalidArgument(msg string) *Error {
	return &Error{Kind: KindInvalid, Message: msg}
}
