package movierecommender

import (
	"context"
	"fmt"

	"cinema-agent/internal/models"
	"cinema-agent/shared/batch"
	"cinema-agent/shared/pacer"

	"github.com/rs/zerolog"
)

const DefaultDiscoverPages = 5

// CandidateGenerator builds the pool of unwatched popular movies
type CandidateGenerator struct {
	meta  Metadata
	pacer *pacer.Pacer
	pages int
	log   zerolog.Logger
}

func NewCandidateGenerator(meta Metadata, p *pacer.Pacer, pages int, log zerolog.Logger) *CandidateGenerator {
	if pages <= 0 {
		pages = DefaultDiscoverPages
	}
	return &CandidateGenerator{meta: meta, pacer: p, pages: pages, log: log}
}

// Generate concatenates discover pages 1..pages in page order, dropping titles
// in excluded. A title repeated across pages stays repeated.
func (g *CandidateGenerator) Generate(ctx context.Context, excluded map[string]bool) ([]models.Candidate, *batch.Batch, error) {
	result := batch.New("candidate pages")
	var pool []models.Candidate

	for page := 1; page <= g.pages; page++ {
		if err := g.pacer.Wait(ctx); err != nil {
			return nil, result, err
		}

		item := fmt.Sprintf("page %d", page)
		resp, err := g.meta.Discover(ctx, models.DiscoverQuery{SortBy: popularitySort, Page: page})
		if err != nil {
			if fatal(err) {
				return nil, result, err
			}
			g.log.Warn().Err(err).Int("page", page).Msg("skipping discover page")
			result.Fail(item, err)
			continue
		}
		result.Succeed(item)

		pool = append(pool, Exclude(resp.Results, excluded)...)
	}

	g.log.Info().Int("candidates", len(pool)).Msg("candidate pool built")
	return pool, result, nil
}

// Exclude wraps the summaries whose lower-cased title is not in excluded
func Exclude(results []models.MovieSummary, excluded map[string]bool) []models.Candidate {
	var out []models.Candidate
	for _, summary := range results {
		if excluded[models.TitleKey(summary.Title)] {
			continue
		}
		out = append(out, models.Candidate{Summary: summary})
	}
	return out
}
