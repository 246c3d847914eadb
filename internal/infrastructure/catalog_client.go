package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"rawg-mcp-server/internal/domain"
)

const (
	// maxResponseBytes bounds how much of an upstream body is read.
	maxResponseBytes = 10 << 20
	// maxErrorBodyChars bounds the body excerpt carried by an upstream error.
	maxErrorBodyChars = 200
)

// CatalogClient handles RAWG API interactions.
// Every call goes through the shared rate limiter, carries the API key via
// the authenticated http.Client, and is bounded by that client's timeout.
type CatalogClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *RateLimiter
	logger     *zap.Logger
	metrics    domain.Metrics
}

// CatalogClientOptions configures a CatalogClient.
type CatalogClientOptions struct {
	BaseURL    string
	APIKey     string // only used for redaction; the http.Client attaches it
	HTTPClient *http.Client
	Limiter    *RateLimiter
	Logger     *zap.Logger
	Metrics    domain.Metrics
}

// NewCatalogClient creates a new RAWG API client.
// The HTTPClient should come from domain.NewAPIKeyClient.
func NewCatalogClient(opts CatalogClientOptions) *CatalogClient {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = domain.NopMetrics{}
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(time.Second, nil)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &CatalogClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger.Named("catalog"),
		metrics:    metrics,
	}
}

// BaseURL returns the configured API root.
func (c *CatalogClient) BaseURL() string {
	return c.baseURL
}

// Fetch issues one GET for query and returns the raw payload.
// Failures are *domain.CatalogError values of kind timeout, network_error or
// upstream_error.
func (c *CatalogClient) Fetch(ctx context.Context, query domain.CatalogQuery) (*domain.CatalogResponse, error) {
	start := time.Now()
	resp, err := c.fetch(ctx, query)

	outcome := domain.OutcomeSuccess
	if err != nil {
		outcome = string(domain.KindOf(err))
	}
	elapsed := time.Since(start)
	c.metrics.ObserveUpstream(query.Operation, outcome, elapsed)

	c.logger.Debug("catalog request",
		zap.String("operation", query.Operation),
		zap.String("path", query.Path),
		zap.String("outcome", outcome),
		zap.Duration("duration", elapsed),
	)
	return resp, err
}

func (c *CatalogClient) fetch(ctx context.Context, query domain.CatalogQuery) (*domain.CatalogResponse, error) {
	waited, err := c.limiter.Wait(ctx)
	c.metrics.ObserveRateLimitWait(waited)
	if err != nil {
		return nil, c.transportError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(query), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := domain.RedactAPIKey(upstreamMessage(resp.StatusCode, body), c.apiKey)
		return nil, domain.NewUpstreamError(resp.StatusCode, message)
	}

	return &domain.CatalogResponse{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// endpoint joins the API root, the query path and the encoded parameters.
func (c *CatalogClient) endpoint(query domain.CatalogQuery) string {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(query.Path, "/"))
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	return endpoint
}

// transportError classifies a failure that produced no HTTP response.
// The error text of a *url.Error includes the full URL, so it is redacted.
func (c *CatalogClient) transportError(err error) error {
	cause := errors.New(domain.RedactAPIKey(err.Error(), c.apiKey))

	if isTimeout(err) {
		return domain.NewTimeoutError("RAWG API request timed out", cause)
	}
	if errors.Is(err, context.Canceled) {
		return domain.NewNetworkError("RAWG API request cancelled", cause)
	}
	return domain.NewNetworkError("failed to reach RAWG API", cause)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// upstreamMessage extracts a human-readable reason from an error body.
// RAWG answers errors with {"detail": "..."}; other services use "error" or
// "message".
func upstreamMessage(statusCode int, body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			if s, ok := payload[key].(string); ok && s != "" {
				return s
			}
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(statusCode)
	}
	if runes := []rune(text); len(runes) > maxErrorBodyChars {
		return string(runes[:maxErrorBodyChars]) + "..."
	}
	return text
}

var _ domain.CatalogFetcher = (*CatalogClient)(nil)
