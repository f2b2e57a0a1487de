package upstream

import (
	"errors"
	"fmt"
)

// Kind classifies a sync failure by where it occurred.
type Kind string

const (
	// KindTransport covers DNS, connection, and timeout failures.
	KindTransport Kind = "transport"
	// KindProtocol covers responses the client could not interpret.
	KindProtocol Kind = "protocol"
	// KindApplication covers errors reported by the upstream service itself.
	KindApplication Kind = "application"
)

// Error is the single failure type returned by upstream clients. Every
// transport, protocol, and application fault is normalized into one of
// these; nothing escapes the client as an untyped error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// AsError extracts an *Error from err, if present.
func AsError(err error) (*Error, bool) {
	var ue *Error
	ok := errors.As(err, &ue)
	return ue, ok
}
