package common

import (
	"errors"
	"fmt"
	"io/fs"
	"net"

	"github.com/ValentinKolb/mocker/lib/format"
	"github.com/ValentinKolb/mocker/lib/store"
)

// --------------------------------------------------------------------------
// Error Kinds
// --------------------------------------------------------------------------

// ErrorKind classifies errors by where they come from
type ErrorKind int

const (
	KindIO      ErrorKind = iota // reading or writing files and connections
	KindSync                     // locking
	KindParse                    // malformed messages, bodies or files
	KindAPI                      // errors with a response status
	KindUnknown                  // everything else
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "i/o"
	case KindSync:
		return "sync"
	case KindParse:
		return "parse"
	case KindAPI:
		return "api"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Error Type
// --------------------------------------------------------------------------

// Error is the error type passed up to the connection boundary, where it is
// converted into a response. Status is only meaningful for KindAPI.
type Error struct {
	Kind   ErrorKind
	Status int
	Msg    string
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Cause != nil {
		s += ". Caused by: " + e.Cause.Error()
	}
	return s
}

// Unwrap returns the cause of the error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewAPIError creates an error that is answered with the given status.
// msg becomes the response body, it may be empty.
func NewAPIError(status int, msg string) *Error {
	return &Error{Kind: KindAPI, Status: status, Msg: msg}
}

// NewAPIErrorf is like NewAPIError with a formatted message
func NewAPIErrorf(status int, format string, args ...any) *Error {
	return NewAPIError(status, fmt.Sprintf(format, args...))
}

// NewParseError creates a parse error
func NewParseError(msg string, cause error) *Error {
	return &Error{Kind: KindParse, Msg: msg, Cause: cause}
}

// NewIOError creates an i/o error
func NewIOError(msg string, cause error) *Error {
	return &Error{Kind: KindIO, Msg: msg, Cause: cause}
}

// Wrap creates an error of the given kind with cause
func Wrap(kind ErrorKind, cause error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Classify converts an arbitrary error into an *Error. Errors that already
// are an *Error (anywhere in the chain) are returned as is.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		switch storeErr.Code {
		case store.RetCConflict:
			return &Error{Kind: KindAPI, Status: 409, Msg: storeErr.Msg, Cause: err}
		case store.RetCNotFound:
			return &Error{Kind: KindAPI, Status: 404, Msg: storeErr.Msg, Cause: err}
		case store.RetCInvalidOperation:
			return &Error{Kind: KindAPI, Status: 400, Msg: storeErr.Msg, Cause: err}
		case store.RetCUnsupportedOperation:
			return &Error{Kind: KindAPI, Status: 501, Msg: storeErr.Msg, Cause: err}
		case store.RetCIOError:
			return Wrap(KindIO, storeErr.Err, storeErr.Msg)
		case store.RetCCodecError:
			return Wrap(KindParse, storeErr.Err, storeErr.Msg)
		default:
			return Wrap(KindUnknown, err, "")
		}
	}

	var decodeErr *format.DecodeError
	var unsupportedErr *format.UnsupportedError
	var pathErr *fs.PathError
	var netErr net.Error
	switch {
	case errors.As(err, &decodeErr), errors.As(err, &unsupportedErr):
		return Wrap(KindParse, err, "")
	case errors.As(err, &pathErr), errors.As(err, &netErr):
		return Wrap(KindIO, err, "")
	default:
		return Wrap(KindUnknown, err, "")
	}
}
