package movierecommender

import (
	"context"
	"errors"
	"testing"

	"cinema-agent/internal/models"
	"cinema-agent/shared/metadata/metadatatest"
	"cinema-agent/shared/storage"
)

func TestBuildCountsEachAttributeOncePerMovie(t *testing.T) {
	meta, upstream, _ := newTestMetadata(t)
	upstream.AddMovie(movie(1, "Heat", "Crime crime everywhere.", "Crime", "Drama"), credits(1, "Michael Mann", "Al Pacino", "Al Pacino"))
	upstream.AddMovie(movie(2, "The Insider", "A crime exposed.", "Drama"), credits(2, "Michael Mann", "Al Pacino", "Russell Crowe"))

	entries := []models.RatingEntry{{Title: "Heat", Rating: 5}, {Title: "the insider", Rating: 4}}
	profile, result, err := NewProfileBuilder(meta, noDelay, nopLog).Build(context.Background(), entries)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	tests := []struct {
		name    string
		weights map[string]int
		key     string
		want    int
	}{
		{"genre in both", profile.Genres, "Drama", 2},
		{"genre in one", profile.Genres, "Crime", 1},
		{"repeated actor", profile.Actors, "Al Pacino", 2},
		{"director", profile.Directors, "Michael Mann", 2},
		{"repeated keyword", profile.Keywords, "crime", 2},
		{"unknown", profile.Actors, "Nobody", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.weights[tt.key]; got != tt.want {
				t.Errorf("weight[%s] = %d, want %d", tt.key, got, tt.want)
			}
		})
	}

	if profile.Movies != 2 || result.Succeeded() != 2 || result.Failed() != 0 {
		t.Errorf("Movies = %d, batch = %s, want 2 movies and no failures", profile.Movies, result.Summary())
	}
}

func TestBuildSkipsUnresolvedEntries(t *testing.T) {
	meta, upstream, _ := newTestMetadata(t)
	upstream.AddMovie(movie(1, "Heat", "", "Crime"), credits(1, "Michael Mann"))
	alien := upstream.AddMovie(movie(2, "Alien", "", "Horror"), nil)
	upstream.Fail("details", alien.ID, metadatatest.Unavailable("movie details"))

	entries := []models.RatingEntry{{Title: "Heat"}, {Title: "Unknown Film"}, {Title: "Alien"}}
	profile, result, err := NewProfileBuilder(meta, noDelay, nopLog).Build(context.Background(), entries)
	if err != nil {
		t.Fatalf("Build() error = %v, want a sparse profile", err)
	}

	if profile.Movies != 1 || profile.Genres["Crime"] != 1 || profile.Genres["Horror"] != 0 {
		t.Errorf("profile = %+v, want only Heat counted", profile)
	}
	if result.Failed() != 2 {
		t.Fatalf("Failed() = %d, want 2", result.Failed())
	}
	failures := result.Failures()
	if failures[0].Item != "Unknown Film" || !errors.Is(failures[0].Err, ErrNoMatch) {
		t.Errorf("failures[0] = %+v, want Unknown Film with ErrNoMatch", failures[0])
	}
	if failures[1].Item != "Alien" {
		t.Errorf("failures[1].Item = %s, want Alien", failures[1].Item)
	}
}

func TestBuildWithNoEntries(t *testing.T) {
	meta, _, _ := newTestMetadata(t)

	profile, result, err := NewProfileBuilder(meta, noDelay, nopLog).Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !profile.IsEmpty() || result.Total() != 0 {
		t.Errorf("Build(nil) = %+v, %s, want an empty profile", profile, result.Summary())
	}
}

func TestBuildAbortsOnCacheError(t *testing.T) {
	meta, upstream, cache := newTestMetadata(t)
	upstream.AddMovie(movie(1, "Heat", "", "Crime"), nil)
	cache.Close()

	_, _, err := NewProfileBuilder(meta, noDelay, nopLog).Build(context.Background(), []models.RatingEntry{{Title: "Heat"}})
	if !storage.IsCacheError(err) {
		t.Errorf("Build() error = %v, want CacheError", err)
	}
}

func TestBuildAbortsOnCanceledContext(t *testing.T) {
	meta, upstream, _ := newTestMetadata(t)
	upstream.AddMovie(movie(1, "Heat", "", "Crime"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewProfileBuilder(meta, noDelay, nopLog).Build(ctx, []models.RatingEntry{{Title: "Heat"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}
