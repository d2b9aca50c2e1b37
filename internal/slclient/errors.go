package slclient

import (
	"errors"
	"fmt"
	"time"
)

// ErrDisconnected is returned by read operations when the server closed
// the connection before any byte of the requested read arrived, or the
// connection failed with an error other than a timeout. A close after only
// part of a frame read arrived is reported as slproto.ErrFrameTooShort.
var ErrDisconnected = errors.New("slclient: disconnected")

// TimeoutError reports that an operation exceeded its configured deadline.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("slclient: timeout after %s", e.Timeout)
}

// InvalidStateError reports a method called while the client was not in
// one of the states it requires.
type InvalidStateError struct {
	Expected string
	Actual   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("slclient: invalid state: expected %s, actual %s", e.Expected, e.Actual)
}

// ServerError wraps an ERROR response line sent by the server in reply to
// a command.
type ServerError struct {
	Command string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("slclient: server error on %s: %s", e.Command, e.Message)
}

// UnexpectedResponseError reports a response line that did not match what
// the calling method required.
type UnexpectedResponseError struct {
	Detail string
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("slclient: unexpected response: %s", e.Detail)
}
