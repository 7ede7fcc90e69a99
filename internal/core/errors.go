package core

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindEmptyInput Kind = "EMPTY_INPUT"
	KindRequest    Kind = "REQUEST_FAILURE"
	KindParse      Kind = "PARSE_FAILURE"
	KindExhausted  Kind = "RETRY_EXHAUSTED"
	KindPosting    Kind = "POSTING_FAILURE"
)

var (
	ErrEmptyInput         = errors.New("empty input")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrNoContent          = errors.New("no content in response")
)

// Error wraps an underlying error with its classification.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Classify wraps err with kind. A nil err stays nil.
func Classify(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the classification of err. Unclassified errors count as
// request failures since they come from the transport layer.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, ErrEmptyInput) {
		return KindEmptyInput
	}
	return KindRequest
}
