// Package errors defines the typed error taxonomy for the analysis pipeline
// and its mapping onto HTTP status codes. Classification is by error kind;
// the legacy message-substring rules survive only as a fallback for errors
// that reach the boundary untyped.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind identifies the failure class of a pipeline error
type Kind string

const (
	// KindInvalidInput is a bad or missing request field
	KindInvalidInput Kind = "invalid_input"
	// KindConfiguration is a missing or invalid credential
	KindConfiguration Kind = "configuration"
	// KindResolution means the resolver found no matching company
	KindResolution Kind = "resolution"
	// KindNoSources means no news source yielded any article
	KindNoSources Kind = "no_sources"
	// KindSchema is malformed structured-extraction output
	KindSchema Kind = "schema_violation"
	// KindUpstream is any other completion-service failure
	KindUpstream Kind = "upstream"
	// KindInternal is an unclassified internal failure
	KindInternal Kind = "internal"
)

// PipelineError is an error with a classified kind. The message is surfaced
// verbatim to the caller, so constructors must preserve the legacy phrases
// that downstream clients match on.
type PipelineError struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	return e.Message
}

// Unwrap returns the wrapped cause
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to an HTTP status code
func (e *PipelineError) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidInput, KindConfiguration, KindResolution, KindNoSources:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// New creates a PipelineError with the given kind and message
func New(kind Kind, message string) *PipelineError {
	return &PipelineError{Kind: kind, Message: message}
}

// Newf creates a PipelineError with a formatted message
func Newf(kind Kind, format string, args ...any) *PipelineError {
	return &PipelineError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a PipelineError around a cause, keeping the cause's message
func Wrap(kind Kind, err error) *PipelineError {
	if err == nil {
		return nil
	}
	return &PipelineError{Kind: kind, Message: err.Error(), Err: err}
}

// WrapMsg creates a PipelineError around a cause with its own message
func WrapMsg(kind Kind, message string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Err: err}
}

// ErrNoSources is the distinguished error for a run where every configured
// news source failed or returned nothing. The phrase is part of the API
// contract with existing clients.
var ErrNoSources = New(KindNoSources, "Could not retrieve news from any source. Please try again later.")

// ErrInvalidStock is returned for a missing or non-string stock field
var ErrInvalidStock = New(KindInvalidInput, "Missing or invalid 'stock' field")

// StatusFor returns the HTTP status for any error. Typed errors are mapped by
// kind; untyped errors fall back to the legacy substring rules before
// defaulting to 500.
func StatusFor(err error) int {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.HTTPStatus()
	}
	return legacyStatus(err.Error())
}

// legacyStatus reproduces the historical message-substring classification for
// errors that arrive without a kind.
func legacyStatus(message string) int {
	if strings.Contains(message, "Company not found") ||
		strings.Contains(message, "GEMINI_API_KEY") ||
		strings.Contains(message, "MINO_API_KEY") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// KindOf returns the kind of an error, or KindInternal for untyped errors
func KindOf(err error) Kind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}
