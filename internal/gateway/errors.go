package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirfaxe-ai/aok-training-backend/internal/resilience"
)

// Kind identifies which gateway produced an error.
type Kind string

const (
	KindCompletion    Kind = "completion"
	KindTranscription Kind = "transcription"
	KindSpeech        Kind = "speech"
)

// Code is the stable, machine-readable classification of a gateway failure.
type Code string

const (
	// CodeProviderError: the provider call failed (transport, HTTP status,
	// timeout, malformed response).
	CodeProviderError Code = "provider_error"

	// CodeEmptyResponse: the provider answered but returned nothing usable.
	CodeEmptyResponse Code = "empty_response"

	// CodeUnavailable: the circuit breaker rejected the call without trying.
	CodeUnavailable Code = "unavailable"

	// CodeCanceled: the caller went away before the provider answered.
	CodeCanceled Code = "canceled"

	// CodeNotConfigured: no provider is wired for this gateway.
	CodeNotConfigured Code = "not_configured"
)

// errEmpty marks a provider answer without usable content.
var errEmpty = errors.New("empty response")

// errNotConfigured is the cause of every [CodeNotConfigured] error.
var errNotConfigured = errors.New("provider not configured")

// GatewayError is returned by every gateway operation on failure. Message is
// safe for logs; the wrapped Err carries the provider detail.
type GatewayError struct {
	Kind    Kind
	Code    Code
	Message string
	Err     error
}

// Error implements error.
func (e *GatewayError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("gateway %s: %s: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("gateway %s: %s: %s: %v", e.Kind, e.Code, e.Message, e.Err)
}

// Unwrap returns the underlying cause.
func (e *GatewayError) Unwrap() error { return e.Err }

// CodeOf returns the [Code] of err if it is (or wraps) a *GatewayError, and
// the empty string otherwise.
func CodeOf(err error) Code {
	var gerr *GatewayError
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return ""
}

// classify maps a raw failure from a provider call to a *GatewayError.
func classify(kind Kind, err error) *GatewayError {
	var gerr *GatewayError
	if errors.As(err, &gerr) {
		return gerr
	}

	code, msg := CodeProviderError, "provider call failed"
	switch {
	case errors.Is(err, errNotConfigured):
		code, msg = CodeNotConfigured, "no provider configured"
	case errors.Is(err, resilience.ErrCircuitOpen):
		code, msg = CodeUnavailable, "provider temporarily unavailable"
	case errors.Is(err, errEmpty):
		code, msg = CodeEmptyResponse, "provider returned an empty response"
	case errors.Is(err, context.Canceled):
		code, msg = CodeCanceled, "request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		msg = "provider call timed out"
	}
	return &GatewayError{Kind: kind, Code: code, Message: msg, Err: err}
}
