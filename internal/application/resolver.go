package application

import (
	"context"
	"strconv"

	"rawg-mcp-server/internal/domain"
)

// GameResolver turns a human-readable game name into a RAWG game id with a
// single precise search limited to one result.
//
// When several games match, the first search result wins; callers are never
// asked to disambiguate.
type GameResolver struct {
	fetcher domain.CatalogFetcher
	shaper  *domain.Shaper
}

// NewGameResolver creates a GameResolver.
func NewGameResolver(fetcher domain.CatalogFetcher, shaper *domain.Shaper) *GameResolver {
	return &GameResolver{
		fetcher: fetcher,
		shaper:  shaper,
	}
}

// Resolve returns the first match for name. Zero matches is a not_found
// error; a failed search returns the search's own error.
func (r *GameResolver) Resolve(ctx context.Context, name string) (domain.GameRef, error) {
	query := domain.CatalogQuery{Operation: "resolve", Path: "games"}.
		With("search", name).
		With("page_size", strconv.Itoa(1)).
		With("search_precise", "true")

	resp, err := r.fetcher.Fetch(ctx, query)
	if err != nil {
		return domain.GameRef{}, err
	}

	ref, ok, err := r.shaper.FirstMatch(resp)
	if err != nil {
		return domain.GameRef{}, err
	}
	if !ok {
		return domain.GameRef{}, domain.NewNotFoundError("Game '%s' not found", name)
	}
	return ref, nil
}
