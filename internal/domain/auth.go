package domain

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIKeyParam is the query parameter RAWG reads the API key from.
const APIKeyParam = "key"

// NewAPIKeyClient returns an HTTP client that attaches apiKey to every request
// and gives up after timeout. The key is validated at startup, so an empty key
// here is a programming error.
func NewAPIKeyClient(apiKey string, timeout time.Duration, base http.RoundTripper) (*http.Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, NewConfigurationError("RAWG API key is required", nil)
	}
	if base == nil {
		base = http.DefaultTransport
	}

	return &http.Client{
		Transport: &apiKeyTransport{base: base, apiKey: apiKey},
		Timeout:   timeout,
	}, nil
}

// apiKeyTransport is an http.RoundTripper that adds the API key query parameter.
type apiKeyTransport struct {
	base   http.RoundTripper
	apiKey string
}

// RoundTrip implements http.RoundTripper by appending the key to the query.
func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	clonedReq := req.Clone(req.Context())

	clonedReq.URL.RawQuery = appendKey(req.URL.RawQuery, t.apiKey)

	return t.base.RoundTrip(clonedReq)
}

// appendKey keeps the caller's parameter order and puts the key last.
func appendKey(rawQuery, apiKey string) string {
	keyParam := fmt.Sprintf("%s=%s", APIKeyParam, url.QueryEscape(apiKey))
	if rawQuery == "" {
		return keyParam
	}
	return rawQuery + "&" + keyParam
}

// RedactAPIKey removes every occurrence of apiKey from s. Transport errors
// embed the full request URL, key included.
func RedactAPIKey(s, apiKey string) string {
	if apiKey == "" {
		return s
	}
	s = strings.ReplaceAll(s, apiKey, "REDACTED")
	return strings.ReplaceAll(s, url.QueryEscape(apiKey), "REDACTED")
}
