package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"cinema-agent/internal/models"
	"cinema-agent/shared/config"
)

func TestNewPitcherRequiresKey(t *testing.T) {
	_, err := NewPitcher(context.Background(), config.AIConfig{Model: "gemini-2.5-flash"})

	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("NewPitcher() error = %v, want ConfigError", err)
	}
}

func TestBuildPitchPrompt(t *testing.T) {
	rec := models.Recommendation{
		ScoredCandidate: models.ScoredCandidate{
			Candidate: models.Candidate{
				Summary: models.MovieSummary{Title: "Heat", Overview: strings.Repeat("a", 600)},
				Details: &models.Movie{
					Title:       "Heat",
					ReleaseDate: "1995-12-15",
					Genres:      []models.Genre{{ID: 80, Name: "Crime"}, {ID: 18, Name: "Drama"}},
				},
			},
			Score: 9,
		},
		Providers: []string{"Netflix"},
	}

	prompt := buildPitchPrompt(rec, []string{"It's a Crime movie, one of your favorite genres."})

	tests := []string{
		"Title: Heat\n",
		"Year: 1995\n",
		"Genres: Crime, Drama\n",
		"Streaming on: Netflix\n",
		"- It's a Crime movie, one of your favorite genres.\n",
		strings.Repeat("a", 500) + "...\n",
	}
	for _, want := range tests {
		if !strings.Contains(prompt, want) {
			t.Errorf("buildPitchPrompt() is missing %q", want)
		}
	}
	if strings.Contains(prompt, strings.Repeat("a", 501)) {
		t.Error("buildPitchPrompt() did not truncate the synopsis")
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "Amélie", 10, "Amélie"},
		{"exact", "Amélie", 6, "Amélie"},
		{"cut after accent", "Amélie", 3, "Amé..."},
		{"cut inside wide text", "千と千尋の神隠し", 3, "千と千..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) = %q is not valid UTF-8", tt.in, tt.n, got)
			}
		})
	}
}

func TestBuildPitchPromptWithoutDetails(t *testing.T) {
	rec := models.Recommendation{}
	rec.Summary.Title = "Unknown"

	prompt := buildPitchPrompt(rec, nil)
	if strings.Contains(prompt, "Year:") || strings.Contains(prompt, "Why it matches") {
		t.Errorf("buildPitchPrompt() = %q, want only the title section", prompt)
	}
}
