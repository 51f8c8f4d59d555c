package movierecommender

import (
	"context"
	"errors"

	"cinema-agent/internal/models"
	"cinema-agent/shared/storage"
)

// Metadata is the part of metadata.Client the engine depends on
type Metadata interface {
	SearchMovie(ctx context.Context, title string) (*models.MovieSummary, error)
	MovieDetails(ctx context.Context, id int) (*models.Movie, error)
	MovieCredits(ctx context.Context, id int) (*models.Credits, error)
	WatchProviders(ctx context.Context, id int) (models.WatchProviders, error)
	Discover(ctx context.Context, query models.DiscoverQuery) (*models.DiscoverPage, error)
}

// ErrNoMatch is recorded for a title the provider search could not resolve
var ErrNoMatch = errors.New("no search match")

const popularitySort = "popularity.desc"

// fatal errors abort a batch instead of being recorded against one item
func fatal(err error) bool {
	return storage.IsCacheError(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// describe fetches details and credits of one movie
func describe(ctx context.Context, meta Metadata, id int) (*models.Movie, *models.Credits, error) {
	movie, err := meta.MovieDetails(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	credits, err := meta.MovieCredits(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return movie, credits, nil
}
