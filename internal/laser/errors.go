package laser

import (
	"errors"
	"fmt"
)

// Kind classifies a session failure.
type Kind int

const (
	// KindCommunication is a transport write or read failure.
	KindCommunication Kind = iota + 1
	// KindBadResponse is a reply the driver could not interpret.
	KindBadResponse
	// KindInvalidArgumentType is an argument of the wrong kind.
	KindInvalidArgumentType
	// KindInvalidArgumentValue is an argument of the right kind with a
	// disallowed value.
	KindInvalidArgumentValue
	// KindConnectionOpen means the transport could not be opened.
	KindConnectionOpen
)

func (k Kind) String() string {
	switch k {
	case KindCommunication:
		return "communication"
	case KindBadResponse:
		return "bad response"
	case KindInvalidArgumentType:
		return "invalid argument type"
	case KindInvalidArgumentValue:
		return "invalid argument value"
	case KindConnectionOpen:
		return "connection open"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is returned by every Session operation that fails. Cause names the
// offending argument or operation, e.g. "Wavelength" or "Last command".
type Error struct {
	Kind  Kind
	Cause string
	Err   error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindCommunication:
		msg = fmt.Sprintf("communication with equipment failed during '%s'", e.Cause)
	case KindBadResponse:
		msg = fmt.Sprintf("response to '%s' can't be interpreted", e.Cause)
	case KindInvalidArgumentType:
		msg = fmt.Sprintf("wrong argument type for '%s'", e.Cause)
	case KindInvalidArgumentValue:
		msg = fmt.Sprintf("wrong argument value for '%s'", e.Cause)
	case KindConnectionOpen:
		msg = fmt.Sprintf("cannot open connection to tunable laser on '%s'", e.Cause)
	default:
		msg = fmt.Sprintf("laser error %d for '%s'", int(e.Kind), e.Cause)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same Kind. A target with an empty Cause
// matches any cause, so the Err* sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Cause == "" || t.Cause == e.Cause)
}

var (
	ErrCommunication        = &Error{Kind: KindCommunication}
	ErrBadResponse          = &Error{Kind: KindBadResponse}
	ErrInvalidArgumentType  = &Error{Kind: KindInvalidArgumentType}
	ErrInvalidArgumentValue = &Error{Kind: KindInvalidArgumentValue}
	ErrConnectionOpen       = &Error{Kind: KindConnectionOpen}
)

// ErrClosed is wrapped by a communication error when an operation reaches a
// session that has already been closed.
var ErrClosed = errors.New("laser session closed")

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return 0
}

func newError(kind Kind, cause string, err error) *Error {
	return &Error{Kind: kind, Cause: cause, Err: err}
}
