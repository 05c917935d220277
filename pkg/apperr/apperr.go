// Package apperr defines the failure kinds shared by the reading pipeline.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide whether to degrade or propagate.
type Kind string

const (
	FetchFailed         Kind = "fetch_failed"
	ExtractionFailed    Kind = "extraction_failed"
	UnsupportedLanguage Kind = "unsupported_language"
	LLMInvocationFailed Kind = "llm_invocation_failed"
	NotFound            Kind = "not_found"
)

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Newf builds an Error whose cause is formatted like fmt.Errorf, so %w is honoured.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
