package movierecommender

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"cinema-agent/internal/models"

	"github.com/rs/zerolog"
)

const (
	DefaultRandomAttempts = 20
	DefaultRandomMaxPage  = 20

	excerptLength  = 150
	reasonListSize = 3
	fallbackReason = "A popular pick outside your usual taste, worth a try."
)

// RandomPicker samples one candidate from a random discover page and explains it
type RandomPicker struct {
	meta     Metadata
	attempts int
	maxPage  int
	rng      *rand.Rand
	log      zerolog.Logger
}

func NewRandomPicker(meta Metadata, attempts, maxPage int, rng *rand.Rand, log zerolog.Logger) *RandomPicker {
	if attempts <= 0 {
		attempts = DefaultRandomAttempts
	}
	if maxPage <= 0 {
		maxPage = DefaultRandomMaxPage
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>17|1))
	}
	return &RandomPicker{meta: meta, attempts: attempts, maxPage: maxPage, rng: rng, log: log}
}

// Pick retries until a page yields a not-excluded candidate that can be
// described. Running out of attempts is a negative result, not an error.
func (p *RandomPicker) Pick(ctx context.Context, profile *models.TasteProfile, excluded map[string]bool) (*models.RandomPick, error) {
	for attempt := 1; attempt <= p.attempts; attempt++ {
		page := p.rng.IntN(p.maxPage) + 1
		resp, err := p.meta.Discover(ctx, models.DiscoverQuery{SortBy: popularitySort, Page: page})
		if err != nil {
			if fatal(err) {
				return nil, err
			}
			p.log.Warn().Err(err).Int("page", page).Int("attempt", attempt).Msg("random page failed")
			continue
		}

		pool := Exclude(resp.Results, excluded)
		if len(pool) == 0 {
			continue
		}
		choice := pool[p.rng.IntN(len(pool))].Summary

		movie, credits, err := describe(ctx, p.meta, choice.ID)
		if err != nil {
			if fatal(err) {
				return nil, err
			}
			p.log.Warn().Err(err).Str("title", choice.Title).Int("attempt", attempt).Msg("random pick could not be described")
			continue
		}

		return &models.RandomPick{
			Found:    true,
			Movie:    choice,
			Reasons:  Reasons(profile, movie, credits),
			Attempts: attempt,
		}, nil
	}

	return &models.RandomPick{Found: false, Attempts: p.attempts}, nil
}

// Reasons explains a movie against the profile. Each reason appears only when
// its overlap is non-empty; with no overlap a single fallback is returned.
func Reasons(profile *models.TasteProfile, movie *models.Movie, credits *models.Credits) []string {
	if profile == nil {
		profile = models.NewTasteProfile()
	}
	features := ExtractFeatures(movie, credits)
	var reasons []string

	if genres := models.Overlap(profile.Genres, features.Genres); len(genres) > 0 {
		reasons = append(reasons, "It's a "+joinNames(genres)+" movie, genres you rate highly.")
	}
	if actors := models.Overlap(profile.Actors, features.TopCast); len(actors) > 0 {
		reasons = append(reasons, "It stars "+joinNames(actors)+", who appear in movies you loved.")
	}
	if directors := models.Overlap(profile.Directors, features.Directors); len(directors) > 0 {
		reasons = append(reasons, "It's directed by "+joinNames(directors)+".")
	}
	if keywords := models.Overlap(profile.Keywords, features.Keywords); len(keywords) > 0 && movie != nil {
		reasons = append(reasons, fmt.Sprintf("The story sounds like your kind of thing: %q", Excerpt(movie.Overview, excerptLength)))
	}

	if len(reasons) == 0 {
		return []string{fallbackReason}
	}
	return reasons
}

// Excerpt truncates text to at most n runes, marking the cut with an ellipsis
func Excerpt(text string, n int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n])) + "..."
}

func joinNames(names []string) string {
	if len(names) > reasonListSize {
		names = names[:reasonListSize]
	}
	return strings.Join(names, ", ")
}
