// Package letterboxd scrapes the film titles of public Letterboxd lists.
package letterboxd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cinema-agent/internal/models"
	"cinema-agent/shared/batch"
	"cinema-agent/shared/storage"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

const (
	DefaultTTL = time.Hour

	posterSelector = ".poster-container .film-poster img"
	nextSelector   = "a.next"
	maxPages       = 50
	userAgent      = "cinema-agent/1.0 (+https://letterboxd.com)"
)

// Scraper reads list pages over HTTP and caches the collected titles per list URL
type Scraper struct {
	client *http.Client
	cache  *storage.Cache
	ttl    time.Duration
	log    zerolog.Logger
}

func NewScraper(cache *storage.Cache, ttl time.Duration, log zerolog.Logger) *Scraper {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Scraper{
		client: &http.Client{Timeout: 30 * time.Second},
		cache:  cache,
		ttl:    ttl,
		log:    log,
	}
}

func cacheKey(listURL string) string {
	return "letterboxd-list:" + listURL
}

// Titles returns every film title of the list, following pagination links
func (s *Scraper) Titles(ctx context.Context, listURL string) ([]string, error) {
	cached, ok, err := storage.GetJSON[[]string](ctx, s.cache, cacheKey(listURL), s.ttl)
	if err != nil {
		return nil, err
	}
	if ok {
		return cached, nil
	}

	titles := []string{}
	visited := make(map[string]bool)
	pageURL := listURL
	for page := 1; pageURL != "" && page <= maxPages; page++ {
		if visited[pageURL] {
			break
		}
		visited[pageURL] = true

		doc, err := s.fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		doc.Find(posterSelector).Each(func(_ int, img *goquery.Selection) {
			if title, ok := img.Attr("alt"); ok && strings.TrimSpace(title) != "" {
				titles = append(titles, strings.TrimSpace(title))
			}
		})

		pageURL, err = nextPage(doc, pageURL)
		if err != nil {
			return nil, err
		}
	}

	s.log.Info().Str("list", listURL).Int("titles", len(titles)).Msg("scraped list")

	if err := s.cache.Set(ctx, cacheKey(listURL), titles); err != nil {
		return nil, err
	}
	return titles, nil
}

// Collect merges the titles of several lists, skipping lists that fail.
// A cache failure aborts.
func (s *Scraper) Collect(ctx context.Context, lists []models.SavedListEntry) ([]string, *batch.Batch, error) {
	result := batch.New("saved lists")
	var titles []string
	for _, list := range lists {
		listTitles, err := s.Titles(ctx, list.URL)
		if storage.IsCacheError(err) {
			return nil, result, err
		}
		if err != nil {
			s.log.Warn().Err(err).Str("list", list.Label).Msg("skipping list")
			result.Fail(list.Label, err)
			continue
		}
		result.Succeed(list.Label)
		titles = append(titles, listTitles...)
	}
	return titles, result, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create list request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch list page %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list page %s returned status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse list page %s: %w", pageURL, err)
	}
	return doc, nil
}

func nextPage(doc *goquery.Document, current string) (string, error) {
	href, ok := doc.Find(nextSelector).First().Attr("href")
	if !ok || href == "" {
		return "", nil
	}
	base, err := url.Parse(current)
	if err != nil {
		return "", fmt.Errorf("parse page url %s: %w", current, err)
	}
	next, err := base.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse next link %s: %w", href, err)
	}
	return next.String(), nil
}
