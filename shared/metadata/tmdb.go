package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cinema-agent/internal/models"
	"cinema-agent/shared/config"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

// Upstream is the raw metadata provider. Implementations do no caching.
type Upstream interface {
	SearchMovie(ctx context.Context, title string) ([]models.MovieSummary, error)
	MovieDetails(ctx context.Context, id int) (*models.Movie, error)
	MovieCredits(ctx context.Context, id int) (*models.Credits, error)
	WatchProviders(ctx context.Context, id int) (models.WatchProviders, error)
	Discover(ctx context.Context, query models.DiscoverQuery) (*models.DiscoverPage, error)
	Providers(ctx context.Context, region string) ([]models.Provider, error)
}

// TMDB talks to the TMDB v3 REST API with an api_key credential
type TMDB struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

func NewTMDB(cfg config.TMDBConfig, log zerolog.Logger) (*TMDB, error) {
	if cfg.APIKey == "" {
		return nil, &config.ConfigError{Field: "TMDB API key", Hint: "set TMDB_API_KEY"}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &TMDB{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}, nil
}

// Response shapes are checked against their validate tags before use
var validate = validator.New()

type searchResponse struct {
	Results *[]models.MovieSummary `json:"results" validate:"required"`
}

type movieResponse struct {
	ID          int            `json:"id" validate:"required,gt=0"`
	Title       string         `json:"title" validate:"required"`
	Overview    string         `json:"overview"`
	ReleaseDate string         `json:"release_date"`
	Genres      []models.Genre `json:"genres"`
}

type creditsResponse struct {
	ID   int                  `json:"id"`
	Cast *[]models.CastMember `json:"cast" validate:"required"`
	Crew *[]models.CrewMember `json:"crew" validate:"required"`
}

type watchProvidersResponse struct {
	ID      int                   `json:"id"`
	Results models.WatchProviders `json:"results" validate:"required"`
}

type discoverResponse struct {
	Page         int                    `json:"page"`
	TotalPages   int                    `json:"total_pages"`
	TotalResults int                    `json:"total_results"`
	Results      *[]models.MovieSummary `json:"results" validate:"required"`
}

type providersResponse struct {
	Results *[]models.Provider `json:"results" validate:"required"`
}

// SearchMovie returns every match for title in relevance order
func (t *TMDB) SearchMovie(ctx context.Context, title string) ([]models.MovieSummary, error) {
	var resp searchResponse
	params := url.Values{"query": {title}}
	if err := t.get(ctx, "search movie", "/search/movie", params, &resp); err != nil {
		return nil, err
	}
	return *resp.Results, nil
}

func (t *TMDB) MovieDetails(ctx context.Context, id int) (*models.Movie, error) {
	var resp movieResponse
	if err := t.get(ctx, "movie details", "/movie/"+strconv.Itoa(id), nil, &resp); err != nil {
		return nil, err
	}
	return &models.Movie{
		ID:          resp.ID,
		Title:       resp.Title,
		Overview:    resp.Overview,
		ReleaseDate: resp.ReleaseDate,
		Genres:      resp.Genres,
	}, nil
}

func (t *TMDB) MovieCredits(ctx context.Context, id int) (*models.Credits, error) {
	var resp creditsResponse
	if err := t.get(ctx, "movie credits", "/movie/"+strconv.Itoa(id)+"/credits", nil, &resp); err != nil {
		return nil, err
	}
	return &models.Credits{ID: id, Cast: *resp.Cast, Crew: *resp.Crew}, nil
}

// WatchProviders returns the offers of every region that lists the movie
func (t *TMDB) WatchProviders(ctx context.Context, id int) (models.WatchProviders, error) {
	var resp watchProvidersResponse
	if err := t.get(ctx, "watch providers", "/movie/"+strconv.Itoa(id)+"/watch/providers", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (t *TMDB) Discover(ctx context.Context, query models.DiscoverQuery) (*models.DiscoverPage, error) {
	params := url.Values{}
	if query.SortBy != "" {
		params.Set("sort_by", query.SortBy)
	}
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}
	if query.WithGenres != "" {
		params.Set("with_genres", query.WithGenres)
	}

	var resp discoverResponse
	if err := t.get(ctx, "discover", "/discover/movie", params, &resp); err != nil {
		return nil, err
	}
	return &models.DiscoverPage{
		Page:         resp.Page,
		TotalPages:   resp.TotalPages,
		TotalResults: resp.TotalResults,
		Results:      *resp.Results,
	}, nil
}

// Providers lists the streaming services known in region
func (t *TMDB) Providers(ctx context.Context, region string) ([]models.Provider, error) {
	var resp providersResponse
	params := url.Values{"watch_region": {strings.ToUpper(region)}}
	if err := t.get(ctx, "providers", "/watch/providers/movie", params, &resp); err != nil {
		return nil, err
	}
	return *resp.Results, nil
}

func (t *TMDB) get(ctx context.Context, op, path string, params url.Values, dest any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", t.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return &ExternalServiceError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	t.log.Debug().Str("op", op).Str("path", path).Msg("tmdb request")

	resp, err := t.client.Do(req)
	if err != nil {
		return &ExternalServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &ExternalServiceError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &ExternalServiceError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if err := validate.Struct(dest); err != nil {
		return &ExternalServiceError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return nil
}
