package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures raised while serving a tool call.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation_error"
	KindNotFound      ErrorKind = "not_found"
	KindTimeout       ErrorKind = "timeout"
	KindNetwork       ErrorKind = "network_error"
	KindUpstream      ErrorKind = "upstream_error"
	KindMalformed     ErrorKind = "malformed_response"
	KindConfiguration ErrorKind = "configuration_error"
	KindInternal      ErrorKind = "internal_error"
)

// CatalogError is the typed failure returned by the catalog client, the
// response shaper and the dispatch table.
type CatalogError struct {
	Kind       ErrorKind
	StatusCode int // upstream HTTP status, only set for KindUpstream
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CatalogError) Unwrap() error {
	return e.Err
}

// Is matches another *CatalogError of the same kind, so sentinel-style checks
// such as errors.Is(err, &CatalogError{Kind: KindNotFound}) work.
func (e *CatalogError) Is(target error) bool {
	t, ok := target.(*CatalogError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.StatusCode == 0 || t.StatusCode == e.StatusCode)
}

// NewValidationError reports bad or missing caller parameters.
func NewValidationError(format string, args ...interface{}) *CatalogError {
	return &CatalogError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError reports that a lookup yielded nothing.
func NewNotFoundError(format string, args ...interface{}) *CatalogError {
	return &CatalogError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewTimeoutError reports an upstream call that exceeded its deadline.
func NewTimeoutError(message string, err error) *CatalogError {
	return &CatalogError{Kind: KindTimeout, Message: message, Err: err}
}

// NewNetworkError reports a transport-level failure.
func NewNetworkError(message string, err error) *CatalogError {
	return &CatalogError{Kind: KindNetwork, Message: message, Err: err}
}

// NewUpstreamError reports a non-2xx upstream response.
func NewUpstreamError(statusCode int, message string) *CatalogError {
	return &CatalogError{Kind: KindUpstream, StatusCode: statusCode, Message: message}
}

// NewMalformedResponseError reports an unparsable or structurally unexpected payload.
func NewMalformedResponseError(message string, err error) *CatalogError {
	return &CatalogError{Kind: KindMalformed, Message: message, Err: err}
}

// NewConfigurationError reports invalid startup configuration.
func NewConfigurationError(message string, err error) *CatalogError {
	return &CatalogError{Kind: KindConfiguration, Message: message, Err: err}
}

// KindOf returns the kind of the first CatalogError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var catalogErr *CatalogError
	if errors.As(err, &catalogErr) {
		return catalogErr.Kind
	}
	return KindInternal
}

// StatusCodeOf returns the upstream status carried by err, or 0.
func StatusCodeOf(err error) int {
	var catalogErr *CatalogError
	if errors.As(err, &catalogErr) {
		return catalogErr.StatusCode
	}
	return 0
}
