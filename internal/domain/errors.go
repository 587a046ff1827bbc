package domain

import (
	"errors"   // Standard errors helpers
	"fmt"      // String formatting
	"net/http" // HTTP status codes
)

// Kind classifies an error for callers and for the HTTP boundary
type Kind string

// Error kinds surfaced by the access core
const (
	KindValidation        Kind = "validation"         // Malformed or unknown identifiers
	KindNotFound          Kind = "not_found"          // Referenced entity does not exist
	KindUnauthorized      Kind = "unauthorized"       // Caller identity missing or invalid
	KindInsufficientFunds Kind = "insufficient_funds" // Balance lower than the requested debit
	KindConflict          Kind = "conflict"           // Optimistic token mismatch, retry the whole call
	KindTransient         Kind = "transient"          // Storage timeout or lost connection
	KindInvariant         Kind = "invariant_violation"
)

// Sentinels usable with errors.Is against any *Error of the same kind
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrTransient         = &Error{Kind: KindTransient}
	ErrInvariant         = &Error{Kind: KindInvariant}
)

// KindMetadata describes how a kind is surfaced
type KindMetadata struct {
	HTTPStatus int  // Status used by the HTTP layer
	Retryable  bool // Whether the caller may retry the whole call
}

var metadataByKind = map[Kind]KindMetadata{
	KindValidation:        {HTTPStatus: http.StatusBadRequest},
	KindNotFound:          {HTTPStatus: http.StatusNotFound},
	KindUnauthorized:      {HTTPStatus: http.StatusUnauthorized},
	KindInsufficientFunds: {HTTPStatus: http.StatusPaymentRequired},
	KindConflict:          {HTTPStatus: http.StatusInternalServerError, Retryable: true},
	KindTransient:         {HTTPStatus: http.StatusInternalServerError, Retryable: true},
	KindInvariant:         {HTTPStatus: http.StatusInternalServerError},
}

// MetadataFor returns the metadata for a kind, defaulting to transient
func MetadataFor(kind Kind) KindMetadata {
	if meta, ok := metadataByKind[kind]; ok {
		return meta
	}
	return metadataByKind[KindTransient]
}

// Error is the typed error of the access core
type Error struct {
	Kind Kind   // Classification
	Op   string // Operation that failed, e.g. "store.debit"
	Msg  string // Human readable detail
	Err  error  // Wrapped cause
}

// E builds a new *Error
func E(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap builds a new *Error around a cause
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Msg != "" {
		msg = msg + ": " + e.Msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so sentinels compare equal to any error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the kind of err; unclassified errors are transient
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}
