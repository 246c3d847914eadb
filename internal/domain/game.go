package domain

// GameSummary is the list-shaped view of a game. Nullable upstream scalars are
// pointers so an absent value serializes as null instead of disappearing.
type GameSummary struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Released        *string  `json:"released"`
	Rating          *float64 `json:"rating"`
	Metacritic      *int     `json:"metacritic"`
	Genres          []string `json:"genres"`
	Platforms       []string `json:"platforms"`
	Tags            []string `json:"tags"`
	BackgroundImage *string  `json:"background_image"`
}

// GameDetails is the detail-shaped view of a single game.
type GameDetails struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Released        *string  `json:"released"`
	Rating          *float64 `json:"rating"`
	Metacritic      *int     `json:"metacritic"`
	Playtime        int      `json:"playtime"`
	Developers      []string `json:"developers"`
	Publishers      []string `json:"publishers"`
	Genres          []string `json:"genres"`
	Platforms       []string `json:"platforms"`
	ESRBRating      string   `json:"esrb_rating"`
	Website         string   `json:"website"`
	BackgroundImage *string  `json:"background_image"`
}

// StoreLink is a store offering a game.
type StoreLink struct {
	StoreName string `json:"store_name"`
	URL       string `json:"url"`
	StoreID   int    `json:"store_id"`
}

// DLC is an addition (DLC or expansion) of a base game.
type DLC struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Released *string `json:"released"`
}

// GameRef identifies a game resolved from a human-readable name.
type GameRef struct {
	ID   int
	Name string
}

// SearchResult is returned by rawg_search.
type SearchResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Query   string        `json:"query"`
	Count   int           `json:"count"`
	Games   []GameSummary `json:"games"`
}

// PopularResult is returned by rawg_popular.
type PopularResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Count   int           `json:"count"`
	Games   []GameSummary `json:"games"`
}

// GenreResult is returned by rawg_by_genre.
type GenreResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Genre   string        `json:"genre"`
	Count   int           `json:"count"`
	Games   []GameSummary `json:"games"`
}

// PlatformResult is returned by rawg_by_platform.
type PlatformResult struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	Platform string        `json:"platform"`
	Count    int           `json:"count"`
	Games    []GameSummary `json:"games"`
}

// GameDetailsResult is returned by rawg_game_details.
type GameDetailsResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Game    GameDetails `json:"game"`
}

// GameStoresResult is returned by rawg_game_stores.
type GameStoresResult struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message"`
	GameName string      `json:"game_name"`
	Count    int         `json:"count"`
	Stores   []StoreLink `json:"stores"`
}

// GameDLCsResult is returned by rawg_game_dlcs.
type GameDLCsResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	GameName string `json:"game_name"`
	Count    int    `json:"count"`
	DLCs     []DLC  `json:"dlcs"`
}
