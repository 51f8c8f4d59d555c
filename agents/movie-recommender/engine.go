package movierecommender

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"cinema-agent/internal/models"
	"cinema-agent/shared/batch"
	"cinema-agent/shared/config"
	"cinema-agent/shared/history"
	"cinema-agent/shared/logging"
	"cinema-agent/shared/pacer"

	"github.com/rs/zerolog"
)

// Settings are the tunables of one recommendation pass
type Settings struct {
	Region         string
	Subscriptions  models.Subscriptions
	DiscoverPages  int
	TopN           int
	RandomAttempts int
	RandomMaxPage  int
	ItemDelay      time.Duration
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Region:         cfg.Streaming.RegionCode(),
		Subscriptions:  cfg.Streaming.Subscriptions(),
		DiscoverPages:  cfg.Recommend.DiscoverPages,
		TopN:           cfg.Recommend.TopN,
		RandomAttempts: cfg.Recommend.RandomAttempts,
		RandomMaxPage:  cfg.Recommend.RandomMaxPage,
		ItemDelay:      cfg.Recommend.ItemDelay,
	}
}

// Result is everything a recommendation pass produced
type Result struct {
	Profile         *models.TasteProfile
	Candidates      int
	Ranked          []models.ScoredCandidate
	Recommendations []models.Recommendation
	Batch           *batch.Batch
}

// Engine wires the profile, candidate, scoring and availability stages
type Engine struct {
	meta     Metadata
	settings Settings
	rng      *rand.Rand
	log      zerolog.Logger
}

type EngineOption func(*Engine)

// WithRand makes random picks reproducible
func WithRand(rng *rand.Rand) EngineOption {
	return func(e *Engine) {
		e.rng = rng
	}
}

func NewEngine(meta Metadata, settings Settings, log zerolog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{meta: meta, settings: settings, log: log}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Profile builds the taste profile from the highly rated entries of h
func (e *Engine) Profile(ctx context.Context, h *history.History) (*models.TasteProfile, *batch.Batch, error) {
	log := logging.Ctx(ctx, e.log)
	rated := history.HighlyRated(h.Ratings)
	log.Info().Int("rated", len(h.Ratings)).Int("highly_rated", len(rated)).Msg("building taste profile")

	builder := NewProfileBuilder(e.meta, pacer.New(e.settings.ItemDelay), log)
	return builder.Build(ctx, rated)
}

// Recommend runs the full pipeline. Only fatal errors are returned; per-item
// failures of every stage are merged into Result.Batch.
func (e *Engine) Recommend(ctx context.Context, h *history.History) (*Result, error) {
	log := logging.Ctx(ctx, e.log)
	p := pacer.New(e.settings.ItemDelay)
	result := &Result{Batch: batch.New("recommendation")}

	profile, outcomes, err := e.Profile(ctx, h)
	result.Batch.Merge(outcomes)
	if err != nil {
		return result, fmt.Errorf("failed to build taste profile: %w", err)
	}
	result.Profile = profile

	pool, outcomes, err := NewCandidateGenerator(e.meta, p, e.settings.DiscoverPages, log).Generate(ctx, h.Excluded())
	result.Batch.Merge(outcomes)
	if err != nil {
		return result, fmt.Errorf("failed to generate candidates: %w", err)
	}
	result.Candidates = len(pool)

	if profile.IsEmpty() {
		log.Warn().Msg("taste profile is empty, nothing can score above zero")
	}

	ranked, outcomes, err := NewScorer(e.meta, p, e.settings.TopN, log).Rank(ctx, pool, profile)
	result.Batch.Merge(outcomes)
	if err != nil {
		return result, fmt.Errorf("failed to score candidates: %w", err)
	}
	result.Ranked = ranked

	filter := NewAvailabilityFilter(e.meta, p, e.settings.Region, e.settings.Subscriptions, log)
	recs, outcomes, err := filter.Filter(ctx, ranked)
	result.Batch.Merge(outcomes)
	if err != nil {
		return result, fmt.Errorf("failed to filter by availability: %w", err)
	}
	result.Recommendations = recs

	log.Info().
		Int("candidates", result.Candidates).
		Int("ranked", len(ranked)).
		Int("recommendations", len(recs)).
		Int("failures", result.Batch.Failed()).
		Msg("recommendation pass finished")

	return result, nil
}

// Random explains one random popular movie against a freshly built profile.
// The batch holds the rated entries the profile could not resolve.
func (e *Engine) Random(ctx context.Context, h *history.History) (*models.RandomPick, *batch.Batch, error) {
	profile, outcomes, err := e.Profile(ctx, h)
	if err != nil {
		return nil, outcomes, fmt.Errorf("failed to build taste profile: %w", err)
	}

	picker := NewRandomPicker(e.meta, e.settings.RandomAttempts, e.settings.RandomMaxPage, e.rng, logging.Ctx(ctx, e.log))
	pick, err := picker.Pick(ctx, profile, h.Excluded())
	return pick, outcomes, err
}

func (e *Engine) WhereToWatch(ctx context.Context, title string) (*models.WhereToWatch, error) {
	return WhereToWatch(ctx, e.meta, title, e.settings.Region, e.settings.Subscriptions)
}
