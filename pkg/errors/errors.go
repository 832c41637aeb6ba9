package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind represents the stage of the collection pipeline that failed
type Kind string

const (
	KindFetch   Kind = "fetch"
	KindDecode  Kind = "decode"
	KindHash    Kind = "hash"
	KindWrite   Kind = "write"
	KindAdapter Kind = "adapter"
	KindUnknown Kind = "unknown"
)

// Error represents a recoverable pipeline error with enough context to diagnose it
type Error struct {
	Kind Kind
	Op   string // short description of the failing step, e.g. "GET", "decode", "rename"
	URL  string // image or API URL involved, if any
	Code int    // HTTP status code, 0 when not applicable
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Kind)
	if e.Op != "" {
		msg += " (" + e.Op + ")"
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" status %d", e.Code)
	}
	if e.URL != "" {
		msg += " " + e.URL
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FetchError reports a network or HTTP failure while retrieving an image
func FetchError(op, url string, code int, err error) *Error {
	return &Error{Kind: KindFetch, Op: op, URL: url, Code: code, Err: err}
}

// DecodeError reports bytes that could not be decoded as an image
func DecodeError(url string, err error) *Error {
	return &Error{Kind: KindDecode, Op: "decode", URL: url, Err: err}
}

// HashError reports a fingerprinting failure
func HashError(err error) *Error {
	return &Error{Kind: KindHash, Op: "average hash", Err: err}
}

// WriteError reports a filesystem failure while saving an image or its metadata row
func WriteError(op, path string, err error) *Error {
	return &Error{Kind: KindWrite, Op: op, URL: path, Err: err}
}

// AdapterError reports a search or authentication failure at the source adapter level
func AdapterError(op, url string, code int, err error) *Error {
	return &Error{Kind: KindAdapter, Op: op, URL: url, Code: code, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsFetch reports whether err is a fetch error
func IsFetch(err error) bool { return KindOf(err) == KindFetch }

// IsDecode reports whether err is a decode error
func IsDecode(err error) bool { return KindOf(err) == KindDecode }

// IsHash reports whether err is a hash error
func IsHash(err error) bool { return KindOf(err) == KindHash }

// IsWrite reports whether err is a write error
func IsWrite(err error) bool { return KindOf(err) == KindWrite }

// IsAdapter reports whether err is an adapter error
func IsAdapter(err error) bool { return KindOf(err) == KindAdapter }

// IsAuthStatusCode checks if an HTTP status code indicates rejected credentials
func IsAuthStatusCode(statusCode int) bool {
	switch statusCode {
	case 401, 403:
		return true
	default:
		return false
	}
}
