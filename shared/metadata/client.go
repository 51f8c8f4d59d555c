// Package metadata resolves titles, details, credits and streaming offers
// through a cache-first client in front of the TMDB API.
package metadata

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"cinema-agent/internal/models"
	"cinema-agent/shared/config"
	"cinema-agent/shared/storage"

	"github.com/rs/zerolog"
)

// TTLs bounds the age of each cached shape. Zero means the record never expires.
type TTLs struct {
	Details         time.Duration
	Discover        time.Duration
	WatchProviders  time.Duration
	ProviderCatalog time.Duration
}

func DefaultTTLs() TTLs {
	return TTLs{
		Discover:        24 * time.Hour,
		WatchProviders:  12 * time.Hour,
		ProviderCatalog: 7 * 24 * time.Hour,
	}
}

func TTLsFromConfig(cfg config.CacheConfig) TTLs {
	return TTLs{
		Details:         cfg.DetailsTTL,
		Discover:        cfg.DiscoverTTL,
		WatchProviders:  cfg.WatchProvidersTTL,
		ProviderCatalog: cfg.ProviderCatalogTTL,
	}
}

// Client serves every lookup except search from the cache first and writes
// through on a miss. Search always goes upstream.
type Client struct {
	upstream Upstream
	cache    *storage.Cache
	ttl      TTLs
	log      zerolog.Logger
}

type Option func(*Client)

func WithTTLs(ttl TTLs) Option {
	return func(c *Client) {
		c.ttl = ttl
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

func NewClient(upstream Upstream, cache *storage.Cache, opts ...Option) *Client {
	c := &Client{
		upstream: upstream,
		cache:    cache,
		ttl:      DefaultTTLs(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WatchProvidersKey(movieID int) string {
	return "watch-providers:" + strconv.Itoa(movieID)
}

func ProviderCatalogKey(region string) string {
	return "providers:" + strings.ToUpper(strings.TrimSpace(region))
}

// SearchMovie returns the first match for title, or nil when there is none.
// Release year is not used to disambiguate.
func (c *Client) SearchMovie(ctx context.Context, title string) (*models.MovieSummary, error) {
	results, err := c.upstream.SearchMovie(ctx, title)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	first := results[0]
	return &first, nil
}

func (c *Client) MovieDetails(ctx context.Context, id int) (*models.Movie, error) {
	movie, ok, err := c.cache.GetMovie(ctx, id, c.ttl.Details)
	if err != nil {
		return nil, err
	}
	if ok {
		c.log.Debug().Int("movie_id", id).Msg("details cache hit")
		return movie, nil
	}

	movie, err = c.upstream.MovieDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SaveMovie(ctx, movie); err != nil {
		return nil, err
	}
	return movie, nil
}

func (c *Client) MovieCredits(ctx context.Context, id int) (*models.Credits, error) {
	credits, ok, err := c.cache.GetCredits(ctx, id, c.ttl.Details)
	if err != nil {
		return nil, err
	}
	if ok {
		c.log.Debug().Int("movie_id", id).Msg("credits cache hit")
		return credits, nil
	}

	credits, err = c.upstream.MovieCredits(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SaveCredits(ctx, id, credits); err != nil {
		return nil, err
	}
	return credits, nil
}

func (c *Client) WatchProviders(ctx context.Context, id int) (models.WatchProviders, error) {
	key := WatchProvidersKey(id)
	cached, ok, err := storage.GetJSON[models.WatchProviders](ctx, c.cache, key, c.ttl.WatchProviders)
	if err != nil {
		return nil, err
	}
	if ok {
		return cached, nil
	}

	providers, err := c.upstream.WatchProviders(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// RefreshWatchProviders skips the cached offers, fetches them upstream and
// stores the result for later cached reads
func (c *Client) RefreshWatchProviders(ctx context.Context, id int) (models.WatchProviders, error) {
	providers, err := c.upstream.WatchProviders(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, WatchProvidersKey(id), providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// RegionOffers returns the offers of one region; ok is false when the movie
// is not offered there at all
func (c *Client) RegionOffers(ctx context.Context, id int, region string) (models.RegionOffers, bool, error) {
	providers, err := c.WatchProviders(ctx, id)
	if err != nil {
		return models.RegionOffers{}, false, err
	}
	offers, ok := providers[strings.ToUpper(region)]
	return offers, ok, nil
}

func (c *Client) Discover(ctx context.Context, query models.DiscoverQuery) (*models.DiscoverPage, error) {
	page, ok, err := c.cache.GetDiscover(ctx, query, c.ttl.Discover)
	if err != nil {
		return nil, err
	}
	if ok {
		c.log.Debug().Str("query", storage.DiscoverKey(query)).Msg("discover cache hit")
		return page, nil
	}

	page, err = c.upstream.Discover(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SaveDiscover(ctx, query, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Client) Providers(ctx context.Context, region string) ([]models.Provider, error) {
	key := ProviderCatalogKey(region)
	cached, ok, err := storage.GetJSON[[]models.Provider](ctx, c.cache, key, c.ttl.ProviderCatalog)
	if err != nil {
		return nil, err
	}
	if ok {
		return cached, nil
	}

	providers, err := c.upstream.Providers(ctx, region)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// ProviderNames returns the distinct provider names of region sorted alphabetically
func (c *Client) ProviderNames(ctx context.Context, region string) ([]string, error) {
	providers, err := c.Providers(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("list providers for %s: %w", region, err)
	}

	seen := make(map[string]bool, len(providers))
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		key := strings.ToLower(p.Name)
		if p.Name == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, p.Name)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names, nil
}
