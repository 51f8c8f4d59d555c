package movierecommender

import (
	"path/filepath"
	"testing"

	"cinema-agent/internal/models"
	"cinema-agent/shared/logging"
	"cinema-agent/shared/metadata"
	"cinema-agent/shared/metadata/metadatatest"
	"cinema-agent/shared/pacer"
	"cinema-agent/shared/storage"
)

var (
	noDelay = pacer.New(0)
	nopLog  = logging.Nop()
)

func newTestMetadata(t *testing.T) (*metadata.Client, *metadatatest.Upstream, *storage.Cache) {
	t.Helper()
	cache, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "cache.sqlite")})
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	upstream := metadatatest.New()
	return metadata.NewClient(upstream, cache), upstream, cache
}

func movie(id int, title, overview string, genres ...string) *models.Movie {
	m := &models.Movie{ID: id, Title: title, Overview: overview, ReleaseDate: "2001-01-01"}
	for i, g := range genres {
		m.Genres = append(m.Genres, models.Genre{ID: 100 + i, Name: g})
	}
	return m
}

func credits(id int, director string, cast ...string) *models.Credits {
	c := &models.Credits{ID: id}
	for i, name := range cast {
		c.Cast = append(c.Cast, models.CastMember{ID: i + 1, Name: name, Order: i})
	}
	if director != "" {
		c.Crew = append(c.Crew, models.CrewMember{Name: director, Job: "Director", Department: "Directing"})
	}
	return c
}

func titles[T interface{ Key() string }](items []T) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Key())
	}
	return out
}
