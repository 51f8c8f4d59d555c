package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"cinema-agent/internal/models"
	"cinema-agent/shared/config"

	"google.golang.org/genai"
)

// ErrEmptyPitch is returned when the model answers with no text
var ErrEmptyPitch = errors.New("empty pitch")

type Pitcher struct {
	client *genai.Client
	model  string
}

func NewPitcher(ctx context.Context, cfg config.AIConfig) (*Pitcher, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, &config.ConfigError{Field: "Gemini API key", Hint: "set GEMINI_API_KEY or ai.gemini_api_key"}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Pitcher{client: client, model: cfg.Model}, nil
}

// Pitch asks the model for a short pitch of rec built from the reasons it was picked
func (p *Pitcher) Pitch(ctx context.Context, rec models.Recommendation, reasons []string) (string, error) {
	prompt := buildPitchPrompt(rec, reasons)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to pitch %s: %w", rec.Summary.Title, err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptyPitch
	}
	return text, nil
}

func buildPitchPrompt(rec models.Recommendation, reasons []string) string {
	var b strings.Builder
	b.WriteString("You are a friend who knows movies. Write a two-sentence pitch convincing me to watch this movie tonight.\n")
	b.WriteString("Do not use lists or headings. Do not invent facts that are not given below.\n\n")

	fmt.Fprintf(&b, "Title: %s\n", rec.Summary.Title)
	if rec.Details != nil {
		if year := rec.Details.Year(); year != "" {
			fmt.Fprintf(&b, "Year: %s\n", year)
		}
		if genres := rec.Details.GenreNames(); len(genres) > 0 {
			fmt.Fprintf(&b, "Genres: %s\n", strings.Join(genres, ", "))
		}
	}
	if overview := rec.Summary.Overview; overview != "" {
		fmt.Fprintf(&b, "Synopsis: %s\n", truncate(overview, 500))
	}
	if len(rec.Providers) > 0 {
		fmt.Fprintf(&b, "Streaming on: %s\n", strings.Join(rec.Providers, ", "))
	}

	if len(reasons) > 0 {
		b.WriteString("\nWhy it matches my taste:\n")
		for _, r := range reasons {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	return b.String()
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
