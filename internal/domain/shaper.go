package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ShapeKind selects the field list applied to an upstream payload.
type ShapeKind string

const (
	ShapeGameList    ShapeKind = "game_list"
	ShapeGameDetails ShapeKind = "game_details"
	ShapeStores      ShapeKind = "stores"
	ShapeDLCs        ShapeKind = "dlcs"
)

const (
	maxTags             = 5
	maxDescriptionRunes = 500
	noDescription       = "No description"
	notRated            = "Not Rated"
	descriptionEllipsis = "..."
	resultsField        = "results"
	unlimited           = 0
)

// knownStores maps RAWG store ids to display names. The per-game stores
// endpoint only returns store_id, not the nested store object.
var knownStores = map[int]string{
	1:  "Steam",
	2:  "Xbox Store",
	3:  "PlayStation Store",
	4:  "App Store",
	5:  "GOG",
	6:  "Nintendo Store",
	7:  "Xbox 360 Store",
	8:  "Google Play",
	9:  "itch.io",
	11: "Epic Games",
}

// Shaper extracts the stable subset of fields each tool advertises from raw
// upstream JSON. Unknown upstream fields are dropped; absent expected fields
// are filled with explicit empty values.
type Shaper struct{}

// NewShaper creates a Shaper.
func NewShaper() *Shaper {
	return &Shaper{}
}

// Shape applies kind to resp. limit caps list kinds; zero means no cap.
func (s *Shaper) Shape(resp *CatalogResponse, kind ShapeKind, limit int) (interface{}, error) {
	switch kind {
	case ShapeGameList:
		return s.GameList(resp, limit)
	case ShapeGameDetails:
		return s.GameDetails(resp)
	case ShapeStores:
		return s.Stores(resp)
	case ShapeDLCs:
		return s.DLCs(resp, limit)
	default:
		return nil, fmt.Errorf("unknown shape kind: %s", kind)
	}
}

// GameList shapes a paginated games payload into summaries, in upstream order.
func (s *Shaper) GameList(resp *CatalogResponse, limit int) ([]GameSummary, error) {
	records, err := decodeResults(resp)
	if err != nil {
		return nil, err
	}

	games := make([]GameSummary, 0, len(records))
	for _, record := range capRecords(records, limit) {
		games = append(games, summaryFrom(record))
	}
	return games, nil
}

// GameDetails shapes a single-game payload.
func (s *Shaper) GameDetails(resp *CatalogResponse) (*GameDetails, error) {
	record, err := decodeObject(resp)
	if err != nil {
		return nil, err
	}

	details := &GameDetails{
		ID:              intField(record, "id"),
		Name:            stringField(record, "name"),
		Description:     truncateDescription(stringField(record, "description_raw")),
		Released:        optionalString(record, "released"),
		Rating:          optionalFloat(record, "rating"),
		Metacritic:      optionalInt(record, "metacritic"),
		Playtime:        intField(record, "playtime"),
		Developers:      namesOf(record, "developers"),
		Publishers:      namesOf(record, "publishers"),
		Genres:          namesOf(record, "genres"),
		Platforms:       platformNames(record),
		ESRBRating:      notRated,
		Website:         stringField(record, "website"),
		BackgroundImage: optionalString(record, "background_image"),
	}
	if esrb, ok := record["esrb_rating"].(map[string]interface{}); ok {
		if name := stringField(esrb, "name"); name != "" {
			details.ESRBRating = name
		}
	}
	return details, nil
}

// Stores shapes the per-game stores payload.
func (s *Shaper) Stores(resp *CatalogResponse) ([]StoreLink, error) {
	records, err := decodeResults(resp)
	if err != nil {
		return nil, err
	}

	stores := make([]StoreLink, 0, len(records))
	for _, record := range records {
		link := StoreLink{
			URL:     stringField(record, "url"),
			StoreID: intField(record, "store_id"),
		}
		if nested, ok := record["store"].(map[string]interface{}); ok {
			link.StoreName = stringField(nested, "name")
			if link.StoreID == 0 {
				link.StoreID = intField(nested, "id")
			}
		}
		if link.StoreName == "" {
			link.StoreName = knownStores[link.StoreID]
		}
		stores = append(stores, link)
	}
	return stores, nil
}

// DLCs shapes the per-game additions payload.
func (s *Shaper) DLCs(resp *CatalogResponse, limit int) ([]DLC, error) {
	records, err := decodeResults(resp)
	if err != nil {
		return nil, err
	}

	dlcs := make([]DLC, 0, len(records))
	for _, record := range capRecords(records, limit) {
		dlcs = append(dlcs, DLC{
			ID:       intField(record, "id"),
			Name:     stringField(record, "name"),
			Released: optionalString(record, "released"),
		})
	}
	return dlcs, nil
}

// FirstMatch returns the first search result. ok is false when the search
// matched nothing.
func (s *Shaper) FirstMatch(resp *CatalogResponse) (ref GameRef, ok bool, err error) {
	records, err := decodeResults(resp)
	if err != nil {
		return GameRef{}, false, err
	}
	if len(records) == 0 {
		return GameRef{}, false, nil
	}

	first := records[0]
	ref = GameRef{ID: intField(first, "id"), Name: stringField(first, "name")}
	if ref.ID == 0 {
		return GameRef{}, false, NewMalformedResponseError("search result has no id", nil)
	}
	return ref, true, nil
}

func summaryFrom(record map[string]interface{}) GameSummary {
	tags := namesOf(record, "tags")
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return GameSummary{
		ID:              intField(record, "id"),
		Name:            stringField(record, "name"),
		Released:        optionalString(record, "released"),
		Rating:          optionalFloat(record, "rating"),
		Metacritic:      optionalInt(record, "metacritic"),
		Genres:          namesOf(record, "genres"),
		Platforms:       platformNames(record),
		Tags:            tags,
		BackgroundImage: optionalString(record, "background_image"),
	}
}

func decodePayload(resp *CatalogResponse) (interface{}, error) {
	if resp == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, NewMalformedResponseError("empty response body", nil)
	}
	var payload interface{}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, NewMalformedResponseError("response is not valid JSON", err)
	}
	return payload, nil
}

func decodeObject(resp *CatalogResponse) (map[string]interface{}, error) {
	payload, err := decodePayload(resp)
	if err != nil {
		return nil, err
	}
	object, ok := payload.(map[string]interface{})
	if !ok {
		return nil, NewMalformedResponseError("expected a JSON object at the top level", nil)
	}
	return object, nil
}

// decodeResults returns the objects of the top-level "results" list.
// Non-object entries are skipped.
func decodeResults(resp *CatalogResponse) ([]map[string]interface{}, error) {
	object, err := decodeObject(resp)
	if err != nil {
		return nil, err
	}
	raw, ok := object[resultsField].([]interface{})
	if !ok {
		return nil, NewMalformedResponseError("expected a results list", nil)
	}

	records := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if record, ok := item.(map[string]interface{}); ok {
			records = append(records, record)
		}
	}
	return records, nil
}

func capRecords(records []map[string]interface{}, limit int) []map[string]interface{} {
	if limit > unlimited && len(records) > limit {
		return records[:limit]
	}
	return records
}

func stringField(record map[string]interface{}, key string) string {
	s, _ := record[key].(string)
	return s
}

func optionalString(record map[string]interface{}, key string) *string {
	s, ok := record[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func intField(record map[string]interface{}, key string) int {
	f, _ := record[key].(float64)
	return int(f)
}

func optionalInt(record map[string]interface{}, key string) *int {
	f, ok := record[key].(float64)
	if !ok {
		return nil
	}
	i := int(f)
	return &i
}

func optionalFloat(record map[string]interface{}, key string) *float64 {
	f, ok := record[key].(float64)
	if !ok {
		return nil
	}
	return &f
}

// namesOf collects the "name" field of each object in record[key].
func namesOf(record map[string]interface{}, key string) []string {
	items, _ := record[key].([]interface{})
	names := make([]string, 0, len(items))
	for _, item := range items {
		if object, ok := item.(map[string]interface{}); ok {
			if name := stringField(object, "name"); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// platformNames reads platforms[].platform.name.
func platformNames(record map[string]interface{}) []string {
	items, _ := record["platforms"].([]interface{})
	names := make([]string, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		platform, ok := entry["platform"].(map[string]interface{})
		if !ok {
			continue
		}
		if name := stringField(platform, "name"); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func truncateDescription(description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return noDescription
	}
	if utf8.RuneCountInString(description) <= maxDescriptionRunes {
		return description
	}
	runes := []rune(description)
	return string(runes[:maxDescriptionRunes]) + descriptionEllipsis
}
