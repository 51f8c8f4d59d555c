package movierecommender

import (
	"context"
	"sort"
	"strconv"

	"cinema-agent/internal/models"
	"cinema-agent/shared/batch"
	"cinema-agent/shared/pacer"

	"github.com/rs/zerolog"
)

const DefaultTopN = 5

// Scorer ranks candidates against a taste profile
type Scorer struct {
	meta  Metadata
	pacer *pacer.Pacer
	topN  int
	log   zerolog.Logger
}

func NewScorer(meta Metadata, p *pacer.Pacer, topN int, log zerolog.Logger) *Scorer {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Scorer{meta: meta, pacer: p, topN: topN, log: log}
}

// Rank scores every candidate, drops zero scores and keeps the topN highest.
// Equal scores keep pool order.
func (s *Scorer) Rank(ctx context.Context, pool []models.Candidate, profile *models.TasteProfile) ([]models.ScoredCandidate, *batch.Batch, error) {
	result := batch.New("scoring")
	scored := make([]models.ScoredCandidate, 0, len(pool))

	for _, candidate := range pool {
		if err := s.pacer.Wait(ctx); err != nil {
			return nil, result, err
		}

		item := candidate.Summary.Title + " (" + strconv.Itoa(candidate.Summary.ID) + ")"
		movie, credits, err := describe(ctx, s.meta, candidate.Summary.ID)
		if err != nil {
			if fatal(err) {
				return nil, result, err
			}
			s.log.Warn().Err(err).Str("title", candidate.Summary.Title).Msg("skipping candidate")
			result.Fail(item, err)
			continue
		}
		result.Succeed(item)

		candidate.Details = movie
		candidate.Credits = credits
		scored = append(scored, models.ScoredCandidate{
			Candidate: candidate,
			Score:     profile.Score(ExtractFeatures(movie, credits)),
		})
	}

	ranked := TopScored(scored, s.topN)
	s.log.Info().Int("scored", len(scored)).Int("ranked", len(ranked)).Msg("candidates ranked")
	return ranked, result, nil
}

// TopScored drops zero scores, stable-sorts by descending score and truncates to n
func TopScored(scored []models.ScoredCandidate, n int) []models.ScoredCandidate {
	kept := make([]models.ScoredCandidate, 0, len(scored))
	for _, sc := range scored {
		if sc.Score > 0 {
			kept = append(kept, sc)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	if n > 0 && len(kept) > n {
		kept = kept[:n]
	}
	return kept
}
