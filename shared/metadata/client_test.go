package metadata_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cinema-agent/internal/models"
	"cinema-agent/shared/metadata"
	"cinema-agent/shared/metadata/metadatatest"
	"cinema-agent/shared/storage"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newClient(t *testing.T) (*metadata.Client, *metadatatest.Upstream, *storage.Cache, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	cache, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "cache.sqlite")}, storage.WithClock(clk.Now))
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	upstream := metadatatest.New()
	return metadata.NewClient(upstream, cache), upstream, cache, clk
}

func TestDiscoverIsServedFromCacheOnSecondCall(t *testing.T) {
	client, upstream, cache, _ := newClient(t)
	ctx := context.Background()
	upstream.SetPage(1, models.MovieSummary{ID: 1, Title: "A"}, models.MovieSummary{ID: 2, Title: "B"})

	query := models.DiscoverQuery{SortBy: "popularity.desc", Page: 1, WithGenres: "18"}
	first, err := client.Discover(ctx, query)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	second, err := client.Discover(ctx, models.DiscoverQuery{WithGenres: "18", Page: 1, SortBy: "popularity.desc"})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if n := upstream.Calls("discover"); n != 1 {
		t.Errorf("upstream discover calls = %d, want 1", n)
	}
	if len(first.Results) != len(second.Results) || second.Results[1].Title != "B" {
		t.Errorf("cached page = %+v, want %+v", second, first)
	}
	if _, ok, _ := cache.GetDiscover(ctx, query, 0); !ok {
		t.Error("discover page not stored under its canonical key")
	}
}

func TestDiscoverRefetchesAfterTTL(t *testing.T) {
	client, upstream, _, clk := newClient(t)
	ctx := context.Background()
	upstream.SetPage(2, models.MovieSummary{ID: 9, Title: "Z"})

	query := models.DiscoverQuery{SortBy: "popularity.desc", Page: 2}
	client.Discover(ctx, query)
	clk.now = clk.now.Add(25 * time.Hour)
	client.Discover(ctx, query)

	if n := upstream.Calls("discover"); n != 2 {
		t.Errorf("upstream discover calls = %d, want 2 after expiry", n)
	}
}

func TestSearchIsNeverCached(t *testing.T) {
	client, upstream, _, _ := newClient(t)
	ctx := context.Background()
	upstream.AddMovie(&models.Movie{ID: 603, Title: "The Matrix"}, nil)

	for i := 0; i < 2; i++ {
		got, err := client.SearchMovie(ctx, "The Matrix")
		if err != nil {
			t.Fatalf("SearchMovie() error = %v", err)
		}
		if got == nil || got.ID != 603 {
			t.Fatalf("SearchMovie() = %+v, want id 603", got)
		}
	}
	if n := upstream.Calls("search"); n != 2 {
		t.Errorf("upstream search calls = %d, want 2", n)
	}
}

func TestSearchNoMatchIsNotAnError(t *testing.T) {
	client, _, _, _ := newClient(t)

	got, err := client.SearchMovie(context.Background(), "Nonexistent Film 3000")
	if err != nil {
		t.Fatalf("SearchMovie() error = %v", err)
	}
	if got != nil {
		t.Errorf("SearchMovie() = %+v, want nil", got)
	}
}

func TestDetailsAndCreditsCachedWithoutExpiry(t *testing.T) {
	client, upstream, _, clk := newClient(t)
	ctx := context.Background()
	upstream.AddMovie(
		&models.Movie{ID: 550, Title: "Fight Club", Genres: []models.Genre{{ID: 18, Name: "Drama"}}},
		&models.Credits{ID: 550, Cast: []models.CastMember{{Name: "Edward Norton"}}},
	)

	for i := 0; i < 3; i++ {
		movie, err := client.MovieDetails(ctx, 550)
		if err != nil || movie.Title != "Fight Club" {
			t.Fatalf("MovieDetails() = %+v, %v", movie, err)
		}
		credits, err := client.MovieCredits(ctx, 550)
		if err != nil || len(credits.Cast) != 1 {
			t.Fatalf("MovieCredits() = %+v, %v", credits, err)
		}
		clk.now = clk.now.Add(30 * 24 * time.Hour)
	}

	if n := upstream.Calls("details"); n != 1 {
		t.Errorf("upstream details calls = %d, want 1", n)
	}
	if n := upstream.Calls("credits"); n != 1 {
		t.Errorf("upstream credits calls = %d, want 1", n)
	}
}

func TestWatchProvidersExpireAfterTwelveHours(t *testing.T) {
	client, upstream, _, clk := newClient(t)
	ctx := context.Background()
	upstream.SetFlatrate(603, "US", "https://tmdb.example/603", "Netflix")

	offers, ok, err := client.RegionOffers(ctx, 603, "us")
	if err != nil || !ok || offers.Flatrate[0].Name != "Netflix" {
		t.Fatalf("RegionOffers() = %+v, %v, %v", offers, ok, err)
	}

	clk.now = clk.now.Add(6 * time.Hour)
	client.WatchProviders(ctx, 603)
	if n := upstream.Calls("watch"); n != 1 {
		t.Errorf("upstream watch calls = %d, want 1 within TTL", n)
	}

	// availability changed upstream while the cached copy aged out
	upstream.SetFlatrate(603, "US", "https://tmdb.example/603")
	clk.now = clk.now.Add(7 * time.Hour)
	offers, _, err = client.RegionOffers(ctx, 603, "US")
	if err != nil {
		t.Fatalf("RegionOffers() error = %v", err)
	}
	if n := upstream.Calls("watch"); n != 2 {
		t.Errorf("upstream watch calls = %d, want 2 after expiry", n)
	}
	if len(offers.Flatrate) != 0 {
		t.Errorf("Flatrate = %+v, want none after refresh", offers.Flatrate)
	}
}

func TestRefreshWatchProvidersBypassesCache(t *testing.T) {
	client, upstream, _, clk := newClient(t)
	ctx := context.Background()
	upstream.SetFlatrate(603, "US", "", "Netflix")
	client.WatchProviders(ctx, 603)

	upstream.SetFlatrate(603, "US", "", "Hulu")
	clk.now = clk.now.Add(time.Hour)
	fresh, err := client.RefreshWatchProviders(ctx, 603)
	if err != nil {
		t.Fatalf("RefreshWatchProviders() error = %v", err)
	}
	if got := fresh["US"].Flatrate[0].Name; got != "Hulu" {
		t.Errorf("RefreshWatchProviders() provider = %s, want Hulu", got)
	}

	cached, err := client.WatchProviders(ctx, 603)
	if err != nil {
		t.Fatalf("WatchProviders() error = %v", err)
	}
	if got := cached["US"].Flatrate[0].Name; got != "Hulu" {
		t.Errorf("WatchProviders() after refresh = %s, want Hulu", got)
	}
	if n := upstream.Calls("watch"); n != 2 {
		t.Errorf("upstream watch calls = %d, want 2", n)
	}
}

func TestRegionOffersMissingRegion(t *testing.T) {
	client, upstream, _, _ := newClient(t)
	upstream.SetFlatrate(1, "GB", "", "BBC iPlayer")

	_, ok, err := client.RegionOffers(context.Background(), 1, "US")
	if err != nil {
		t.Fatalf("RegionOffers() error = %v", err)
	}
	if ok {
		t.Error("RegionOffers() found US offers, want none")
	}
}

func TestUpstreamFailureIsNotCached(t *testing.T) {
	client, upstream, _, _ := newClient(t)
	ctx := context.Background()
	upstream.Fail("details", 42, metadatatest.Unavailable("movie details"))

	_, err := client.MovieDetails(ctx, 42)
	if !metadata.IsExternal(err) {
		t.Fatalf("MovieDetails() error = %v, want external service error", err)
	}
	if storage.IsCacheError(err) {
		t.Error("upstream failure reported as cache error")
	}

	upstream.Fail("details", 42, nil)
	upstream.AddMovie(&models.Movie{ID: 42, Title: "Recovered"}, nil)
	movie, err := client.MovieDetails(ctx, 42)
	if err != nil || movie.Title != "Recovered" {
		t.Errorf("MovieDetails() after recovery = %+v, %v", movie, err)
	}
}

func TestProviderNamesSortedAndCached(t *testing.T) {
	client, upstream, _, _ := newClient(t)
	ctx := context.Background()
	upstream.Catalogs["US"] = []models.Provider{
		{ID: 337, Name: "Disney Plus"},
		{ID: 8, Name: "Netflix"},
		{ID: 9, Name: "amazon prime video"},
		{ID: 1796, Name: "netflix"},
	}

	names, err := client.ProviderNames(ctx, "us")
	if err != nil {
		t.Fatalf("ProviderNames() error = %v", err)
	}
	want := []string{"amazon prime video", "Disney Plus", "Netflix"}
	if len(names) != len(want) {
		t.Fatalf("ProviderNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("ProviderNames()[%d] = %s, want %s", i, names[i], want[i])
		}
	}

	client.ProviderNames(ctx, "US")
	if n := upstream.Calls("providers"); n != 1 {
		t.Errorf("upstream providers calls = %d, want 1", n)
	}
}
