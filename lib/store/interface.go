package store

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/mocker/lib/format"
	"github.com/ValentinKolb/mocker/lib/value"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the interface for a collection of records backed by a file.
// A store holds no data until Load is called, and changes only reach the
// file on Save. Identifier matching is loose: a record matches an identifier
// if the textual renderings of both are equal (see value.LooseEqual).
//
// Implementations are not safe for concurrent use. Callers serialize the
// whole Load → mutate → Save sequence, e.g. with a lockmgr.ILockManager keyed
// by Path().
type IStore interface {
	// Path returns the absolute path of the backing file
	Path() string
	// Identifier returns the name of the identifier field
	Identifier() string
	// Format returns the format the backing file is written in
	Format() format.IFormat

	// Load replaces the in-memory records with the content of the backing file.
	// A missing file loads as an empty collection.
	Load() (err error)
	// Save overwrites the backing file with the in-memory records
	Save() (err error)

	// Records returns the records in insertion order
	Records() []value.Map
	// Find returns the first record whose identifier loosely equals id
	Find(id value.Value) (rec value.Map, found bool)
	// Contains reports whether a record with a loosely equal identifier exists
	Contains(id value.Value) bool
	// Create appends rec and returns its identifier (Null if rec has none).
	// A record with a loosely equal identifier causes a RetCConflict error,
	// records without identifier are never checked for uniqueness.
	Create(rec value.Map) (id value.Value, err error)
	// Remove deletes the first record whose identifier loosely equals id
	Remove(id value.Value) (removed bool)
}

// IDOf returns the value of the identifier field of rec. The field name is
// matched case-insensitively, an exact match wins. Null is returned if rec
// has no such field.
func IDOf(rec value.Map, field string) value.Value {
	if v, ok := rec[field]; ok {
		return v
	}
	for _, k := range rec.Keys() {
		if strings.EqualFold(k, field) {
			return rec[k]
		}
	}
	return value.Null{}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode),
// an error message and optionally the underlying error.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
	Err  error   // The underlying error, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("StoreError (code %s): %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// WrapError creates a new Error with the given code and message wrapping err
func WrapError(code RetCode, msg string, err error) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
		Err:  err,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by the store.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCConflict                            // 4: A record with the same identifier exists.
	RetCNotFound                            // 5: No record matches the identifier.
	RetCIOError                             // 6: The backing file could not be read or written.
	RetCCodecError                          // 7: The backing file could not be decoded or the records not encoded.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCConflict:
		return "Conflict"
	case RetCNotFound:
		return "NotFound"
	case RetCIOError:
		return "IOError"
	case RetCCodecError:
		return "CodecError"
	default:
		return "Unknown"
	}
}
