package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"rawg-mcp-server/internal/domain"
)

// fakeFetcher records every query and answers with respond.
type fakeFetcher struct {
	mu      sync.Mutex
	queries []domain.CatalogQuery
	respond func(query domain.CatalogQuery) (*domain.CatalogResponse, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context, query domain.CatalogQuery) (*domain.CatalogResponse, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	respond := f.respond
	f.mu.Unlock()

	if respond == nil {
		return jsonResponse(`{"count":0,"results":[]}`), nil
	}
	return respond(query)
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeFetcher) Queries() []domain.CatalogQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CatalogQuery(nil), f.queries...)
}

func jsonResponse(body string) *domain.CatalogResponse {
	return &domain.CatalogResponse{StatusCode: 200, Body: []byte(body)}
}

// gameRecord renders a RAWG list entry.
func gameRecord(id int, name string) map[string]interface{} {
	return map[string]interface{}{
		"id":               id,
		"name":             name,
		"released":         "2017-02-24",
		"rating":           4.4,
		"metacritic":       87,
		"background_image": fmt.Sprintf("https://media.rawg.io/%d.jpg", id),
		"genres":           []interface{}{map[string]interface{}{"name": "Action"}},
		"platforms": []interface{}{
			map[string]interface{}{"platform": map[string]interface{}{"name": "PC"}},
		},
		"tags": []interface{}{map[string]interface{}{"name": "Singleplayer"}},
	}
}

// listPayload renders a paginated RAWG payload with the given records.
func listPayload(records ...map[string]interface{}) string {
	results := make([]interface{}, 0, len(records))
	for _, record := range records {
		results = append(results, record)
	}
	data, err := json.Marshal(map[string]interface{}{
		"count":   len(records),
		"results": results,
	})
	if err != nil {
		panic(err)
	}
	return string(data)
}

// resolvingFetcher answers the name resolution search with one match and
// every other query with other.
func resolvingFetcher(id int, name string, other func(query domain.CatalogQuery) (*domain.CatalogResponse, error)) *fakeFetcher {
	return &fakeFetcher{
		respond: func(query domain.CatalogQuery) (*domain.CatalogResponse, error) {
			if query.Operation == "resolve" {
				return jsonResponse(listPayload(gameRecord(id, name))), nil
			}
			return other(query)
		},
	}
}

const detailsPayload = `{
	"id": 3328,
	"name": "The Witcher 3: Wild Hunt",
	"description_raw": "The third game in a series.",
	"released": "2015-05-18",
	"rating": 4.66,
	"metacritic": 92,
	"playtime": 46,
	"developers": [{"name": "CD PROJEKT RED"}],
	"publishers": [{"name": "CD PROJEKT RED"}],
	"genres": [{"name": "Action"}, {"name": "RPG"}],
	"platforms": [{"platform": {"name": "PC"}}, {"platform": {"name": "PlayStation 4"}}],
	"esrb_rating": {"name": "Mature"},
	"website": "https://thewitcher.com/en/witcher3",
	"background_image": "https://media.rawg.io/witcher3.jpg",
	"unknown_field": true
}`

const storesPayload = `{
	"count": 3,
	"results": [
		{"id": 1, "game_id": 3328, "store_id": 1, "url": "https://store.steampowered.com/app/292030/"},
		{"id": 2, "game_id": 3328, "store_id": 5, "url": "https://www.gog.com/game/the_witcher_3_wild_hunt"},
		{"id": 3, "game_id": 3328, "store_id": 42, "url": "https://example.com/store", "store": {"id": 42, "name": "Example Store"}}
	]
}`

func hasParam(query domain.CatalogQuery, key, want string) bool {
	got, ok := query.Get(key)
	return ok && got == want
}
