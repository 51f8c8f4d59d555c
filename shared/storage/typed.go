package storage

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cinema-agent/internal/models"

	"github.com/goccy/go-json"
)

// SaveMovie upserts a movie detail record keyed by provider id
func (c *Cache) SaveMovie(ctx context.Context, movie *models.Movie) error {
	key := strconv.Itoa(movie.ID)
	genres, err := json.Marshal(movie.Genres)
	if err != nil {
		return &CacheError{Op: "encode movie", Key: key, Err: err}
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO movies (id, title, overview, release_date, genres, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  title = excluded.title,
		  overview = excluded.overview,
		  release_date = excluded.release_date,
		  genres = excluded.genres,
		  cached_at = excluded.cached_at
	`, movie.ID, movie.Title, movie.Overview, movie.ReleaseDate, string(genres), c.now().UnixMilli())
	if err != nil {
		return &CacheError{Op: "save movie", Key: key, Err: err}
	}
	return nil
}

// GetMovie returns the cached detail record for id, or false on a miss
func (c *Cache) GetMovie(ctx context.Context, id int, ttl time.Duration) (*models.Movie, bool, error) {
	key := strconv.Itoa(id)

	var (
		m          models.Movie
		overview   sql.NullString
		release    sql.NullString
		genresJSON string
		cachedAt   int64
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT id, title, overview, release_date, genres, cached_at
		FROM movies
		WHERE id = ?
	`, id).Scan(&m.ID, &m.Title, &overview, &release, &genresJSON, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &CacheError{Op: "get movie", Key: key, Err: err}
	}

	if c.expired(cachedAt, ttl) {
		return nil, false, c.evict(ctx, "movies", "id", id)
	}

	m.Overview = overview.String
	m.ReleaseDate = release.String
	if err := json.Unmarshal([]byte(genresJSON), &m.Genres); err != nil {
		return nil, false, &CacheError{Op: "decode movie", Key: key, Err: err}
	}
	return &m, true, nil
}

// SaveCredits upserts the credits of a movie keyed by provider id
func (c *Cache) SaveCredits(ctx context.Context, movieID int, credits *models.Credits) error {
	key := strconv.Itoa(movieID)
	cast, err := json.Marshal(credits.Cast)
	if err != nil {
		return &CacheError{Op: "encode credits", Key: key, Err: err}
	}
	crew, err := json.Marshal(credits.Crew)
	if err != nil {
		return &CacheError{Op: "encode credits", Key: key, Err: err}
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO movie_credits (movie_id, "cast", crew, cached_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(movie_id) DO UPDATE SET
		  "cast" = excluded."cast",
		  crew = excluded.crew,
		  cached_at = excluded.cached_at
	`, movieID, string(cast), string(crew), c.now().UnixMilli())
	if err != nil {
		return &CacheError{Op: "save credits", Key: key, Err: err}
	}
	return nil
}

func (c *Cache) GetCredits(ctx context.Context, movieID int, ttl time.Duration) (*models.Credits, bool, error) {
	key := strconv.Itoa(movieID)

	var (
		castJSON string
		crewJSON string
		cachedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT "cast", crew, cached_at FROM movie_credits WHERE movie_id = ?`, movieID,
	).Scan(&castJSON, &crewJSON, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &CacheError{Op: "get credits", Key: key, Err: err}
	}

	if c.expired(cachedAt, ttl) {
		return nil, false, c.evict(ctx, "movie_credits", "movie_id", movieID)
	}

	credits := &models.Credits{ID: movieID}
	if err := json.Unmarshal([]byte(castJSON), &credits.Cast); err != nil {
		return nil, false, &CacheError{Op: "decode credits", Key: key, Err: err}
	}
	if err := json.Unmarshal([]byte(crewJSON), &credits.Crew); err != nil {
		return nil, false, &CacheError{Op: "decode credits", Key: key, Err: err}
	}
	return credits, true, nil
}

// SaveDiscover upserts a discover result page under the canonical signature of query
func (c *Cache) SaveDiscover(ctx context.Context, query models.DiscoverQuery, page *models.DiscoverPage) error {
	key := DiscoverKey(query)
	results, err := json.Marshal(page)
	if err != nil {
		return &CacheError{Op: "encode discover", Key: key, Err: err}
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO discover_cache (query_params, results, cached_at)
		VALUES (?, ?, ?)
		ON CONFLICT(query_params) DO UPDATE SET
		  results = excluded.results,
		  cached_at = excluded.cached_at
	`, key, string(results), c.now().UnixMilli())
	if err != nil {
		return &CacheError{Op: "save discover", Key: key, Err: err}
	}
	return nil
}

func (c *Cache) GetDiscover(ctx context.Context, query models.DiscoverQuery, ttl time.Duration) (*models.DiscoverPage, bool, error) {
	key := DiscoverKey(query)

	var (
		results  string
		cachedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT results, cached_at FROM discover_cache WHERE query_params = ?`, key,
	).Scan(&results, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &CacheError{Op: "get discover", Key: key, Err: err}
	}

	if c.expired(cachedAt, ttl) {
		return nil, false, c.evict(ctx, "discover_cache", "query_params", key)
	}

	var page models.DiscoverPage
	if err := json.Unmarshal([]byte(results), &page); err != nil {
		return nil, false, &CacheError{Op: "decode discover", Key: key, Err: err}
	}
	return &page, true, nil
}

// QuerySignature encodes the non-empty params sorted by name, so logically
// identical queries map to the same key whatever order they were built in.
func QuerySignature(params map[string]string) string {
	values := url.Values{}
	for name, value := range params {
		if value = strings.TrimSpace(value); value != "" {
			values.Set(name, value)
		}
	}
	return values.Encode()
}

// DiscoverKey is the canonical cache key of a discover query
func DiscoverKey(query models.DiscoverQuery) string {
	params := map[string]string{
		"sort_by":     query.SortBy,
		"with_genres": query.WithGenres,
	}
	if query.Page > 0 {
		params["page"] = strconv.Itoa(query.Page)
	}
	return QuerySignature(params)
}
