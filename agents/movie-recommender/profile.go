package movierecommender

import (
	"context"
	"fmt"

	"cinema-agent/internal/models"
	"cinema-agent/shared/batch"
	"cinema-agent/shared/pacer"

	"github.com/rs/zerolog"
)

// ProfileBuilder turns highly-rated entries into attribute frequencies
type ProfileBuilder struct {
	meta  Metadata
	pacer *pacer.Pacer
	log   zerolog.Logger
}

func NewProfileBuilder(meta Metadata, p *pacer.Pacer, log zerolog.Logger) *ProfileBuilder {
	return &ProfileBuilder{meta: meta, pacer: p, log: log}
}

// Build resolves every entry by title search, first result wins, and counts
// its attributes. Entries that fail are recorded in the batch and skipped.
// The caller filters entries by rating.
func (b *ProfileBuilder) Build(ctx context.Context, entries []models.RatingEntry) (*models.TasteProfile, *batch.Batch, error) {
	profile := models.NewTasteProfile()
	result := batch.New("taste profile")

	for _, entry := range entries {
		if err := b.pacer.Wait(ctx); err != nil {
			return nil, result, err
		}

		features, err := b.resolve(ctx, entry.Title)
		if err != nil {
			if fatal(err) {
				return nil, result, err
			}
			b.log.Warn().Err(err).Str("title", entry.Title).Msg("skipping rated movie")
			result.Fail(entry.Title, err)
			continue
		}

		profile.Add(features)
		result.Succeed(entry.Title)
	}

	b.log.Info().
		Int("movies", profile.Movies).
		Int("genres", len(profile.Genres)).
		Int("actors", len(profile.Actors)).
		Int("keywords", len(profile.Keywords)).
		Msg("taste profile built")

	return profile, result, nil
}

func (b *ProfileBuilder) resolve(ctx context.Context, title string) (models.MovieFeatures, error) {
	match, err := b.meta.SearchMovie(ctx, title)
	if err != nil {
		return models.MovieFeatures{}, fmt.Errorf("search %q: %w", title, err)
	}
	if match == nil {
		return models.MovieFeatures{}, ErrNoMatch
	}

	movie, credits, err := describe(ctx, b.meta, match.ID)
	if err != nil {
		return models.MovieFeatures{}, fmt.Errorf("describe %q: %w", title, err)
	}
	return ExtractFeatures(movie, credits), nil
}
