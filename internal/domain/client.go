package domain

import (
	"context"
	"net/url"
	"strings"
)

// CatalogFetcher issues read-only lookups against the RAWG catalog API.
// Implementations enforce the global rate limit and the per-request timeout
// and translate failures into *CatalogError values.
type CatalogFetcher interface {
	Fetch(ctx context.Context, query CatalogQuery) (*CatalogResponse, error)
}

// QueryParam is a single query-string entry.
type QueryParam struct {
	Key   string
	Value string
}

// CatalogQuery describes one upstream GET. Params keep insertion order so the
// query string is deterministic for a given tool request.
type CatalogQuery struct {
	Operation string // metrics/log label, e.g. "search" or "details"
	Path      string // relative to the API root, e.g. "games/3328/stores"
	Params    []QueryParam
}

// With returns a copy of q with one more parameter appended.
func (q CatalogQuery) With(key, value string) CatalogQuery {
	params := make([]QueryParam, 0, len(q.Params)+1)
	params = append(params, q.Params...)
	q.Params = append(params, QueryParam{Key: key, Value: value})
	return q
}

// Get returns the first value for key.
func (q CatalogQuery) Get(key string) (string, bool) {
	for _, p := range q.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Encode renders the parameters as a query string in insertion order.
func (q CatalogQuery) Encode() string {
	var b strings.Builder
	for i, p := range q.Params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// CatalogResponse is the raw upstream payload of a successful call.
type CatalogResponse struct {
	StatusCode int
	Body       []byte
}
