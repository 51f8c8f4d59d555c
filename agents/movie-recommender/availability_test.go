package movierecommender

import (
	"context"
	"reflect"
	"testing"

	"cinema-agent/internal/models"
	"cinema-agent/shared/metadata/metadatatest"
)

func rankedFor(summaries ...models.MovieSummary) []models.ScoredCandidate {
	out := make([]models.ScoredCandidate, 0, len(summaries))
	for i, s := range summaries {
		out = append(out, models.ScoredCandidate{Candidate: models.Candidate{Summary: s}, Score: len(summaries) - i})
	}
	return out
}

func TestFilterKeepsSubscribedFlatrateOffers(t *testing.T) {
	meta, upstream, _ := newTestMetadata(t)
	heat, alien, dune, solaris := summary(1, "Heat"), summary(2, "Alien"), summary(3, "Dune"), summary(4, "Solaris")
	upstream.SetFlatrate(heat.ID, "US", "https://example.com/heat", "Netflix", "Hulu")
	upstream.SetFlatrate(alien.ID, "US", "https://example.com/alien", "Mubi")
	upstream.SetFlatrate(dune.ID, "FR", "https://example.com/dune", "Netflix")
	upstream.SetFlatrate(solaris.ID, "us", "", "HULU")

	subs := models.NewSubscriptions("netflix", " Hulu ")
	recs, result, err := NewAvailabilityFilter(meta, noDelay, "us", subs, nopLog).
		Filter(context.Background(), rankedFor(heat, alien, dune, solaris))
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}

	if got := titles(recs); !reflect.DeepEqual(got, []string{"heat", "solaris"}) {
		t.Fatalf("Filter() = %v, want [heat solaris] (no backfill)", got)
	}
	if !reflect.DeepEqual(recs[0].Providers, []string{"Netflix", "Hulu"}) || recs[0].Link != "https://example.com/heat" {
		t.Errorf("recs[0] = %+v, want both providers and link", recs[0])
	}
	if !reflect.DeepEqual(recs[1].Providers, []string{"HULU"}) {
		t.Errorf("recs[1].Providers = %v, want [HULU]", recs[1].Providers)
	}
	if result.Succeeded() != 4 {
		t.Errorf("batch = %s, want 4 checked", result.Summary())
	}
}

func TestFilterRecordsFailedLookups(t *testing.T) {
	meta, upstream, _ := newTestMetadata(t)
	heat, alien := summary(1, "Heat"), summary(2, "Alien")
	upstream.SetFlatrate(heat.ID, "US", "", "Netflix")
	upstream.SetFlatrate(alien.ID, "US", "", "Netflix")
	upstream.Fail("watch", heat.ID, metadatatest.Unavailable("watch providers"))

	recs, result, err := NewAvailabilityFilter(meta, noDelay, "US", models.NewSubscriptions("Netflix"), nopLog).
		Filter(context.Background(), rankedFor(heat, alien))
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}

	if got := titles(recs); !reflect.DeepEqual(got, []string{"alien"}) {
		t.Errorf("Filter() = %v, want [alien]", got)
	}
	if result.Failed() != 1 || result.Failures()[0].Item != "Heat" {
		t.Errorf("batch = %s, want Heat failed", result.Summary())
	}
}

func TestFilterEmptyWhenNothingStreams(t *testing.T) {
	meta, _, _ := newTestMetadata(t)

	recs, _, err := NewAvailabilityFilter(meta, noDelay, "US", models.NewSubscriptions("Netflix"), nopLog).
		Filter(context.Background(), rankedFor(summary(1, "Heat")))
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("Filter() = %v, want none", titles(recs))
	}
}
