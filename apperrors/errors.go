package apperrors

import "fmt"

// Kind classifies an error so the transport layer can map it to an HTTP
// status in one place instead of re-deciding codes in every handler.
type Kind int

const (
	KindValidation Kind = iota
	KindForbidden
	KindInvalidTransition
	KindConflict
	KindNotFound
	KindAlreadyCompleted
	KindInternal
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newf(KindForbidden, format, args...)
}

func InvalidTransition(format string, args ...interface{}) *Error {
	return newf(KindInvalidTransition, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newf(KindConflict, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

func AlreadyCompleted(format string, args ...interface{}) *Error {
	return newf(KindAlreadyCompleted, format, args...)
}

func Internal(format string, args ...interface{}) *Error {
	return newf(KindInternal, format, args...)
}

// KindOf returns the kind of an error produced by this package, or
// KindInternal for anything else (raw DB errors and the like never leak
// their text to the client).
func KindOf(err error) Kind {
	if appErr, ok := err.(*Error); ok {
		return appErr.Kind
	}
	return KindInternal
}
