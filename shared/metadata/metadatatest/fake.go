// Package metadatatest provides an in-memory metadata.Upstream for tests.
package metadatatest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"cinema-agent/internal/models"
	"cinema-agent/shared/metadata"
)

// Upstream serves canned data and counts every call by operation.
// Unknown searches return no results, unknown watch providers an empty map,
// unknown discover pages an empty page and unknown details a 404.
type Upstream struct {
	mu sync.Mutex

	Searches map[string][]models.MovieSummary
	Movies   map[int]*models.Movie
	Credits  map[int]*models.Credits
	Watch    map[int]models.WatchProviders
	Pages    map[int]*models.DiscoverPage
	Catalogs map[string][]models.Provider

	failures map[string]error
	calls    map[string]int
}

var _ metadata.Upstream = (*Upstream)(nil)

func New() *Upstream {
	return &Upstream{
		Searches: make(map[string][]models.MovieSummary),
		Movies:   make(map[int]*models.Movie),
		Credits:  make(map[int]*models.Credits),
		Watch:    make(map[int]models.WatchProviders),
		Pages:    make(map[int]*models.DiscoverPage),
		Catalogs: make(map[string][]models.Provider),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// AddMovie registers a movie as the first search result for its title,
// with its details and credits
func (u *Upstream) AddMovie(movie *models.Movie, credits *models.Credits) models.MovieSummary {
	summary := Summary(movie)

	u.mu.Lock()
	defer u.mu.Unlock()
	key := strings.ToLower(movie.Title)
	u.Searches[key] = append([]models.MovieSummary{summary}, u.Searches[key]...)
	u.Movies[movie.ID] = movie
	if credits != nil {
		u.Credits[movie.ID] = credits
	}
	return summary
}

// SetFlatrate lists the given flatrate providers for a movie in region
func (u *Upstream) SetFlatrate(movieID int, region, link string, providers ...string) {
	offers := models.RegionOffers{Link: link}
	for i, name := range providers {
		offers.Flatrate = append(offers.Flatrate, models.Provider{ID: i + 1, Name: name})
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Watch[movieID] == nil {
		u.Watch[movieID] = models.WatchProviders{}
	}
	u.Watch[movieID][strings.ToUpper(region)] = offers
}

func (u *Upstream) SetPage(number int, results ...models.MovieSummary) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Pages[number] = &models.DiscoverPage{Page: number, TotalPages: 500, Results: results}
}

// Fail makes op fail for arg. Ops: search, details, credits, watch, discover, providers.
func (u *Upstream) Fail(op string, arg any, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failures[failureKey(op, arg)] = err
}

// Calls returns how many times op was invoked
func (u *Upstream) Calls(op string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[op]
}

func (u *Upstream) SearchMovie(ctx context.Context, title string) ([]models.MovieSummary, error) {
	key := strings.ToLower(title)
	if err := u.record(ctx, "search", key); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.Searches[key], nil
}

func (u *Upstream) MovieDetails(ctx context.Context, id int) (*models.Movie, error) {
	if err := u.record(ctx, "details", id); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	movie, ok := u.Movies[id]
	if !ok {
		return nil, NotFound("movie details")
	}
	copied := *movie
	return &copied, nil
}

func (u *Upstream) MovieCredits(ctx context.Context, id int) (*models.Credits, error) {
	if err := u.record(ctx, "credits", id); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	credits, ok := u.Credits[id]
	if !ok {
		return &models.Credits{ID: id, Cast: []models.CastMember{}, Crew: []models.CrewMember{}}, nil
	}
	copied := *credits
	return &copied, nil
}

func (u *Upstream) WatchProviders(ctx context.Context, id int) (models.WatchProviders, error) {
	if err := u.record(ctx, "watch", id); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	providers := models.WatchProviders{}
	for region, offers := range u.Watch[id] {
		providers[region] = offers
	}
	return providers, nil
}

func (u *Upstream) Discover(ctx context.Context, query models.DiscoverQuery) (*models.DiscoverPage, error) {
	if err := u.record(ctx, "discover", query.Page); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	page, ok := u.Pages[query.Page]
	if !ok {
		return &models.DiscoverPage{Page: query.Page, Results: []models.MovieSummary{}}, nil
	}
	copied := *page
	return &copied, nil
}

func (u *Upstream) Providers(ctx context.Context, region string) ([]models.Provider, error) {
	region = strings.ToUpper(region)
	if err := u.record(ctx, "providers", region); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.Catalogs[region], nil
}

func (u *Upstream) record(ctx context.Context, op string, arg any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls[op]++
	if err, ok := u.failures[failureKey(op, arg)]; ok {
		return err
	}
	return nil
}

func failureKey(op string, arg any) string {
	if s, ok := arg.(string); ok {
		arg = strings.ToLower(s)
	}
	return fmt.Sprintf("%s:%v", op, arg)
}

// Summary is the search/discover shape of a detail record
func Summary(movie *models.Movie) models.MovieSummary {
	return models.MovieSummary{
		ID:          movie.ID,
		Title:       movie.Title,
		Overview:    movie.Overview,
		ReleaseDate: movie.ReleaseDate,
		GenreIDs:    movie.GenreIDs(),
	}
}

// NotFound is the error a real upstream returns for an unknown id
func NotFound(op string) error {
	return &metadata.ExternalServiceError{Op: op, StatusCode: http.StatusNotFound, Err: errors.New("resource not found")}
}

// Unavailable is a transient upstream failure
func Unavailable(op string) error {
	return &metadata.ExternalServiceError{Op: op, StatusCode: http.StatusServiceUnavailable, Err: errors.New("service unavailable")}
}
