package movierecommender

import (
	"context"
	"reflect"
	"testing"

	"cinema-agent/internal/models"
	"cinema-agent/shared/metadata/metadatatest"
)

func scored(title string, score int) models.ScoredCandidate {
	return models.ScoredCandidate{Candidate: models.Candidate{Summary: models.MovieSummary{Title: title}}, Score: score}
}

func TestTopScored(t *testing.T) {
	tests := []struct {
		name   string
		scored []models.ScoredCandidate
		n      int
		want   []string
	}{
		{
			name:   "zero scores dropped",
			scored: []models.ScoredCandidate{scored("A", 0), scored("B", 2), scored("C", 0)},
			n:      5,
			want:   []string{"b"},
		},
		{
			name:   "descending with stable ties",
			scored: []models.ScoredCandidate{scored("A", 1), scored("B", 3), scored("C", 1), scored("D", 3)},
			n:      5,
			want:   []string{"b", "d", "a", "c"},
		},
		{
			name:   "truncated to n",
			scored: []models.ScoredCandidate{scored("A", 1), scored("B", 2), scored("C", 3)},
			n:      2,
			want:   []string{"c", "b"},
		},
		{
			name:   "empty",
			scored: nil,
			n:      5,
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titles(TopScored(tt.scored, tt.n)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TopScored() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRankScoresAgainstProfile(t *testing.T) {
	meta, upstream, _ := newTestMetadata(t)
	dune := upstream.AddMovie(movie(1, "Dune", "A desert planet.", "Science Fiction"), credits(1, "Denis Villeneuve", "Timothée Chalamet"))
	arrival := upstream.AddMovie(movie(2, "Arrival", "Aliens land.", "Science Fiction", "Drama"), credits(2, "Denis Villeneuve", "Amy Adams"))
	cats := upstream.AddMovie(movie(3, "Cats", "Singing.", "Musical"), credits(3, "Tom Hooper"))
	broken := upstream.AddMovie(movie(4, "Broken", "", "Drama"), nil)
	upstream.Fail("credits", broken.ID, metadatatest.Unavailable("credits"))

	profile := models.NewTasteProfile()
	profile.Genres["Science Fiction"] = 2
	profile.Genres["Drama"] = 1
	profile.Directors["Denis Villeneuve"] = 1
	profile.Actors["Amy Adams"] = 1

	pool := []models.Candidate{{Summary: dune}, {Summary: cats}, {Summary: broken}, {Summary: arrival}}
	ranked, result, err := NewScorer(meta, noDelay, 5, nopLog).Rank(context.Background(), pool, profile)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if len(ranked) != 2 {
		t.Fatalf("Rank() returned %d, want 2", len(ranked))
	}
	// arrival: 2 + 1 + 1 + 1, dune: 2 + 1
	if ranked[0].Summary.Title != "Arrival" || ranked[0].Score != 5 {
		t.Errorf("ranked[0] = %s (%d), want Arrival (5)", ranked[0].Summary.Title, ranked[0].Score)
	}
	if ranked[1].Summary.Title != "Dune" || ranked[1].Score != 3 {
		t.Errorf("ranked[1] = %s (%d), want Dune (3)", ranked[1].Summary.Title, ranked[1].Score)
	}
	if ranked[0].Details == nil || ranked[0].Credits == nil {
		t.Error("ranked candidates should carry details and credits")
	}
	if result.Failed() != 1 || result.Succeeded() != 3 {
		t.Errorf("batch = %s, want Broken failed", result.Summary())
	}
}

func TestRankScenarioDramaComedy(t *testing.T) {
	meta, upstream, _ := newTestMetadata(t)
	upstream.AddMovie(movie(1, "Movie A", "", "Drama"), credits(1, ""))
	movieB := upstream.AddMovie(movie(2, "Movie B", "", "Drama", "Comedy"), credits(2, ""))

	profile, _, err := NewProfileBuilder(meta, noDelay, nopLog).Build(context.Background(), []models.RatingEntry{{Title: "Movie A", Rating: 5}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if profile.Genres["Drama"] != 1 {
		t.Fatalf("Genres[Drama] = %d, want 1", profile.Genres["Drama"])
	}

	ranked, _, err := NewScorer(meta, noDelay, 5, nopLog).Rank(context.Background(), []models.Candidate{{Summary: movieB}}, profile)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("Rank() returned %d, want 1", len(ranked))
	}
	if ranked[0].Score != profile.Genres["Drama"] {
		t.Errorf("score = %d, want Genres[Drama] = %d", ranked[0].Score, profile.Genres["Drama"])
	}
}
