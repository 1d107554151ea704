package factory

import (
	"errors"
	"fmt"
)

// Code categorizes factory errors.
type Code string

const (
	// CodeUnauthorized indicates the caller may not perform the operation.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeFactoryPaused indicates creation was attempted while paused.
	CodeFactoryPaused Code = "FACTORY_PAUSED"

	// CodeFactoryStopped indicates the operation is closed for a stopped factory.
	CodeFactoryStopped Code = "FACTORY_STOPPED"

	// CodeInvalidArgument indicates a malformed request.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// CodeInvalidTransition indicates a forbidden status change.
	CodeInvalidTransition Code = "INVALID_TRANSITION"

	// CodeDuplicateAddress indicates a child reported an address already in
	// the registry. Always fatal.
	CodeDuplicateAddress Code = "DUPLICATE_ADDRESS"

	// CodeNotFound indicates a lookup missed.
	CodeNotFound Code = "NOT_FOUND"

	// CodeUnknownCorrelation indicates an outcome for a token that has no
	// pending instantiation.
	CodeUnknownCorrelation Code = "UNKNOWN_CORRELATION"

	// CodeMalformedChildReply indicates the child's registration payload
	// was missing or invalid.
	CodeMalformedChildReply Code = "MALFORMED_CHILD_REPLY"

	// CodeChildInstantiationFailed indicates the environment reported that
	// the child could not be instantiated.
	CodeChildInstantiationFailed Code = "CHILD_INSTANTIATION_FAILED"
)

// Error is returned by every factory operation.
//
// Errors compare equal under errors.Is when their codes match, so callers
// can test against the sentinels below:
//
//	if errors.Is(err, factory.ErrFactoryPaused) { ... }
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Token is the correlation token for reply errors, 0 otherwise.
	Token uint64

	// Fatal marks integrity violations that must abort the unit of work.
	Fatal bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Token != 0 {
		return fmt.Sprintf("%s: %s (token=%d)", e.Code, e.Message, e.Token)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrUnauthorized             = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrFactoryPaused            = &Error{Code: CodeFactoryPaused, Message: "factory is paused"}
	ErrFactoryStopped           = &Error{Code: CodeFactoryStopped, Message: "factory is stopped"}
	ErrInvalidArgument          = &Error{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrInvalidTransition        = &Error{Code: CodeInvalidTransition, Message: "invalid status transition"}
	ErrDuplicateAddress         = &Error{Code: CodeDuplicateAddress, Message: "duplicate address", Fatal: true}
	ErrNotFound                 = &Error{Code: CodeNotFound, Message: "not found"}
	ErrUnknownCorrelation       = &Error{Code: CodeUnknownCorrelation, Message: "unknown correlation token"}
	ErrMalformedChildReply      = &Error{Code: CodeMalformedChildReply, Message: "malformed child reply"}
	ErrChildInstantiationFailed = &Error{Code: CodeChildInstantiationFailed, Message: "child instantiation failed"}
)

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// IsFatal reports whether err is an integrity violation that must abort
// the enclosing unit of work rather than be reported and skipped.
func IsFatal(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Fatal
	}
	return false
}
