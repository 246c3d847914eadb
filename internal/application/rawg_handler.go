package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"rawg-mcp-server/internal/domain"
)

// Tool name constants for RAWG operations
const (
	ToolRAWGSearch      = "rawg_search"
	ToolRAWGPopular     = "rawg_popular"
	ToolRAWGByGenre     = "rawg_by_genre"
	ToolRAWGByPlatform  = "rawg_by_platform"
	ToolRAWGGameDetails = "rawg_game_details"
	ToolRAWGGameStores  = "rawg_game_stores"
	ToolRAWGGameDLCs    = "rawg_game_dlcs"
)

// Default page sizes per tool.
const (
	defaultSearchPageSize = 5
	defaultListPageSize   = 10
	defaultDLCPageSize    = 10
)

// RAWGHandler implements ToolHandler for the RAWG catalog.
// Each tool validates its arguments, optionally resolves a game name, issues
// one catalog query and shapes the payload into the tool's result type.
type RAWGHandler struct {
	fetcher   domain.CatalogFetcher
	shaper    *domain.Shaper
	resolver  *GameResolver
	validator *argumentValidator
}

// NewRAWGHandler creates a new RAWGHandler instance.
func NewRAWGHandler(fetcher domain.CatalogFetcher, shaper *domain.Shaper) (*RAWGHandler, error) {
	h := &RAWGHandler{
		fetcher:  fetcher,
		shaper:   shaper,
		resolver: NewGameResolver(fetcher, shaper),
	}

	validator, err := newArgumentValidator(h.ListTools())
	if err != nil {
		return nil, err
	}
	h.validator = validator

	return h, nil
}

// ToolName returns the identifier for this handler.
func (h *RAWGHandler) ToolName() string {
	return "rawg"
}

// ListTools returns available tools for RAWG operations.
func (h *RAWGHandler) ListTools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        ToolRAWGSearch,
			Description: "Search for games by name in the RAWG database",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"query":     stringProperty("Name of the game to search"),
				"page_size": pageSizeProperty("Number of results to return", defaultSearchPageSize),
			}, "query"),
		},
		{
			Name:        ToolRAWGPopular,
			Description: "Retrieve a list of popular games",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"page_size": pageSizeProperty("Number of games to retrieve", defaultListPageSize),
			}),
		},
		{
			Name:        ToolRAWGByGenre,
			Description: "Search games filtered by a specific genre",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"genre":     stringProperty("Game genre (e.g., action, rpg, strategy, shooter)"),
				"page_size": pageSizeProperty("Number of games to return", defaultListPageSize),
			}, "genre"),
		},
		{
			Name:        ToolRAWGByPlatform,
			Description: "Search games filtered by a specific platform",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"platform":  stringProperty("Platform name (e.g., pc, playstation-5, xbox-series-x, nintendo-switch)"),
				"page_size": pageSizeProperty("Number of games to return", defaultListPageSize),
			}, "platform"),
		},
		{
			Name:        ToolRAWGGameDetails,
			Description: "Get detailed information about a specific game",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"game_name": stringProperty("Exact name of the game"),
			}, "game_name"),
		},
		{
			Name:        ToolRAWGGameStores,
			Description: "Retrieve stores where a specific game can be purchased",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"game_name": stringProperty("Name of the game"),
			}, "game_name"),
		},
		{
			Name:        ToolRAWGGameDLCs,
			Description: "Retrieve DLCs or expansions for a specific game",
			InputSchema: objectSchema(map[string]*jsonschema.Schema{
				"game_name": stringProperty("Base game name"),
				"page_size": pageSizeProperty("Number of DLCs to return", defaultDLCPageSize),
			}, "game_name"),
		},
	}
}

// Handle processes a tool request and routes it to the appropriate method.
func (h *RAWGHandler) Handle(ctx context.Context, req *domain.ToolRequest) (interface{}, error) {
	args := req.Arguments
	if args == nil {
		args = map[string]interface{}{}
	}

	if err := h.validator.Validate(req.Name, args); err != nil {
		return nil, err
	}

	switch req.Name {
	case ToolRAWGSearch:
		return h.search(ctx, args)
	case ToolRAWGPopular:
		return h.popular(ctx, args)
	case ToolRAWGByGenre:
		return h.byGenre(ctx, args)
	case ToolRAWGByPlatform:
		return h.byPlatform(ctx, args)
	case ToolRAWGGameDetails:
		return h.gameDetails(ctx, args)
	case ToolRAWGGameStores:
		return h.gameStores(ctx, args)
	case ToolRAWGGameDLCs:
		return h.gameDLCs(ctx, args)
	default:
		return nil, &domain.Error{
			Code:    domain.MethodNotFound,
			Message: "Tool not found",
			Data:    fmt.Sprintf("unknown tool: %s", req.Name),
		}
	}
}

// fetchGameList runs query and shapes the result list, capped at pageSize.
func (h *RAWGHandler) fetchGameList(ctx context.Context, query domain.CatalogQuery, pageSize int) ([]domain.GameSummary, error) {
	resp, err := h.fetcher.Fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	return h.shaper.GameList(resp, pageSize)
}

func (h *RAWGHandler) search(ctx context.Context, args map[string]interface{}) (*domain.SearchResult, error) {
	query, err := getStringParam(args, "query", true)
	if err != nil {
		return nil, err
	}
	pageSize, err := getPageSizeParam(args, defaultSearchPageSize)
	if err != nil {
		return nil, err
	}

	catalogQuery := domain.CatalogQuery{Operation: "search", Path: "games"}.
		With("search", query).
		With("page_size", strconv.Itoa(pageSize)).
		With("search_precise", "true")

	games, err := h.fetchGameList(ctx, catalogQuery, pageSize)
	if err != nil {
		return nil, err
	}

	return &domain.SearchResult{
		Success: true,
		Message: fmt.Sprintf("Found %d games for '%s'", len(games), query),
		Query:   query,
		Count:   len(games),
		Games:   games,
	}, nil
}

func (h *RAWGHandler) popular(ctx context.Context, args map[string]interface{}) (*domain.PopularResult, error) {
	pageSize, err := getPageSizeParam(args, defaultListPageSize)
	if err != nil {
		return nil, err
	}

	catalogQuery := domain.CatalogQuery{Operation: "popular", Path: "games"}.
		With("ordering", "-added").
		With("page_size", strconv.Itoa(pageSize))

	games, err := h.fetchGameList(ctx, catalogQuery, pageSize)
	if err != nil {
		return nil, err
	}

	return &domain.PopularResult{
		Success: true,
		Message: fmt.Sprintf("Fetched %d popular games", len(games)),
		Count:   len(games),
		Games:   games,
	}, nil
}

func (h *RAWGHandler) byGenre(ctx context.Context, args map[string]interface{}) (*domain.GenreResult, error) {
	genre, err := getStringParam(args, "genre", true)
	if err != nil {
		return nil, err
	}
	pageSize, err := getPageSizeParam(args, defaultListPageSize)
	if err != nil {
		return nil, err
	}

	catalogQuery := domain.CatalogQuery{Operation: "by_genre", Path: "games"}.
		With("genres", strings.ToLower(genre)).
		With("page_size", strconv.Itoa(pageSize)).
		With("ordering", "-rating")

	games, err := h.fetchGameList(ctx, catalogQuery, pageSize)
	if err != nil {
		return nil, err
	}

	return &domain.GenreResult{
		Success: true,
		Message: fmt.Sprintf("Found %d games in genre '%s'", len(games), genre),
		Genre:   genre,
		Count:   len(games),
		Games:   games,
	}, nil
}

func (h *RAWGHandler) byPlatform(ctx context.Context, args map[string]interface{}) (*domain.PlatformResult, error) {
	platform, err := getStringParam(args, "platform", true)
	if err != nil {
		return nil, err
	}
	pageSize, err := getPageSizeParam(args, defaultListPageSize)
	if err != nil {
		return nil, err
	}

	catalogQuery := domain.CatalogQuery{Operation: "by_platform", Path: "games"}.
		With("platforms", strings.ToLower(platform)).
		With("page_size", strconv.Itoa(pageSize)).
		With("ordering", "-rating")

	games, err := h.fetchGameList(ctx, catalogQuery, pageSize)
	if err != nil {
		return nil, err
	}

	return &domain.PlatformResult{
		Success:  true,
		Message:  fmt.Sprintf("Found %d games for platform '%s'", len(games), platform),
		Platform: platform,
		Count:    len(games),
		Games:    games,
	}, nil
}

func (h *RAWGHandler) gameDetails(ctx context.Context, args map[string]interface{}) (*domain.GameDetailsResult, error) {
	gameName, err := getStringParam(args, "game_name", true)
	if err != nil {
		return nil, err
	}

	ref, err := h.resolver.Resolve(ctx, gameName)
	if err != nil {
		return nil, err
	}

	resp, err := h.fetcher.Fetch(ctx, domain.CatalogQuery{
		Operation: "details",
		Path:      fmt.Sprintf("games/%d", ref.ID),
	})
	if err != nil {
		return nil, err
	}

	details, err := h.shaper.GameDetails(resp)
	if err != nil {
		return nil, err
	}

	return &domain.GameDetailsResult{
		Success: true,
		Message: fmt.Sprintf("Details fetched for '%s'", gameName),
		Game:    *details,
	}, nil
}

func (h *RAWGHandler) gameStores(ctx context.Context, args map[string]interface{}) (*domain.GameStoresResult, error) {
	gameName, err := getStringParam(args, "game_name", true)
	if err != nil {
		return nil, err
	}

	ref, err := h.resolver.Resolve(ctx, gameName)
	if err != nil {
		return nil, err
	}

	resp, err := h.fetcher.Fetch(ctx, domain.CatalogQuery{
		Operation: "stores",
		Path:      fmt.Sprintf("games/%d/stores", ref.ID),
	})
	if err != nil {
		return nil, err
	}

	stores, err := h.shaper.Stores(resp)
	if err != nil {
		return nil, err
	}

	return &domain.GameStoresResult{
		Success:  true,
		Message:  fmt.Sprintf("Found %d stores for '%s'", len(stores), gameName),
		GameName: gameName,
		Count:    len(stores),
		Stores:   stores,
	}, nil
}

func (h *RAWGHandler) gameDLCs(ctx context.Context, args map[string]interface{}) (*domain.GameDLCsResult, error) {
	gameName, err := getStringParam(args, "game_name", true)
	if err != nil {
		return nil, err
	}
	pageSize, err := getPageSizeParam(args, defaultDLCPageSize)
	if err != nil {
		return nil, err
	}

	ref, err := h.resolver.Resolve(ctx, gameName)
	if err != nil {
		return nil, err
	}

	resp, err := h.fetcher.Fetch(ctx, domain.CatalogQuery{
		Operation: "dlcs",
		Path:      fmt.Sprintf("games/%d/additions", ref.ID),
	}.With("page_size", strconv.Itoa(pageSize)))
	if err != nil {
		return nil, err
	}

	dlcs, err := h.shaper.DLCs(resp, pageSize)
	if err != nil {
		return nil, err
	}

	return &domain.GameDLCsResult{
		Success:  true,
		Message:  fmt.Sprintf("Found %d DLCs for '%s'", len(dlcs), gameName),
		GameName: gameName,
		Count:    len(dlcs),
		DLCs:     dlcs,
	}, nil
}

var _ domain.ToolHandler = (*RAWGHandler)(nil)
