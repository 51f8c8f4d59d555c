package movierecommender

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-agent/internal/models"
	"cinema-agent/shared/ai"
	"cinema-agent/shared/config"
	"cinema-agent/shared/email"
	"cinema-agent/shared/history"
	"cinema-agent/shared/logging"
	"cinema-agent/shared/metadata"
	"cinema-agent/shared/scheduler"
	"cinema-agent/shared/storage"

	"github.com/rs/zerolog"
)

// Pitcher writes a short pitch for a recommendation
type Pitcher interface {
	Pitch(ctx context.Context, rec models.Recommendation, reasons []string) (string, error)
}

type Mailer interface {
	SendRecommendations(report *models.RecommendationReport) error
}

// Metrics summarizes one recommender run
type Metrics struct {
	ProfileMovies   int
	Candidates      int
	Recommendations int
	Failures        int
	Pitched         bool
}

func (m *Metrics) GetSummary() string {
	return fmt.Sprintf("profile: %d movies, candidates: %d, recommended: %d, failures: %d",
		m.ProfileMovies, m.Candidates, m.Recommendations, m.Failures)
}

// RecommenderAgent implements the scheduler.Agent interface
type RecommenderAgent struct {
	config  *config.Config
	cache   *storage.Cache
	client  *metadata.Client
	engine  *Engine
	loader  *history.Loader
	pitcher Pitcher
	mailer  Mailer
	log     zerolog.Logger
	now     func() time.Time
}

var _ scheduler.Agent = (*RecommenderAgent)(nil)

func NewRecommenderAgent(cfg *config.Config) *RecommenderAgent {
	return &RecommenderAgent{
		config: cfg,
		log:    logging.Component("recommender"),
		now:    time.Now,
	}
}

func (a *RecommenderAgent) Name() string {
	return "Movie Recommender"
}

func (a *RecommenderAgent) Initialize() error {
	a.log.Info().Msg("initializing")

	if err := a.config.ValidateSubscriptions(); err != nil {
		return err
	}

	if a.cache == nil {
		cache, err := storage.Open(storage.Config{Path: a.config.Cache.Path})
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		a.cache = cache
		a.log.Info().Str("path", a.config.Cache.Path).Msg("cache opened")
	}

	if a.client == nil {
		tmdb, err := metadata.NewTMDB(a.config.TMDB, logging.Component("tmdb"))
		if err != nil {
			return err
		}
		a.client = metadata.NewClient(tmdb, a.cache,
			metadata.WithTTLs(metadata.TTLsFromConfig(a.config.Cache)),
			metadata.WithLogger(logging.Component("metadata")))
	}

	if a.engine == nil {
		a.engine = NewEngine(a.client, SettingsFromConfig(a.config), a.log)
	}

	if a.loader == nil {
		a.loader = history.NewLoader(a.config.Data.Dir)
	}

	if a.pitcher == nil && a.config.AI.GeminiAPIKey != "" {
		pitcher, err := ai.NewPitcher(context.Background(), a.config.AI)
		if err != nil {
			return fmt.Errorf("failed to create pitcher: %w", err)
		}
		a.pitcher = pitcher
		a.log.Info().Str("model", a.config.AI.Model).Msg("pitcher initialized")
	}

	if a.mailer == nil && a.config.Email.Enabled() {
		if err := a.config.ValidateEmail(); err != nil {
			return err
		}
		a.mailer = email.NewSender(&a.config.Email)
		a.log.Info().Msg("email sender initialized")
	}

	return nil
}

// Close releases the cache
func (a *RecommenderAgent) Close() error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}

func (a *RecommenderAgent) Engine() *Engine {
	return a.engine
}

func (a *RecommenderAgent) Client() *metadata.Client {
	return a.client
}

func (a *RecommenderAgent) History() (*history.History, error) {
	return a.loader.Load()
}

func (a *RecommenderAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	log := logging.Ctx(ctx, a.log)

	fail := func(err error) error {
		events.OnCriticalFailure(err, time.Since(startTime))
		return err
	}

	h, err := a.loader.Load()
	if err != nil {
		return fail(fmt.Errorf("failed to load history: %w", err))
	}

	result, err := a.engine.Recommend(ctx, h)
	if err != nil {
		return fail(err)
	}

	maxRatio := a.config.Recommend.MaxFailureRatio
	if result.Batch.Exceeds(maxRatio) {
		return fail(fmt.Errorf("too many lookup failures (%.0f%% > %.0f%%): %s",
			result.Batch.FailureRatio()*100, maxRatio*100, result.Batch.Summary()))
	}

	report := &models.RecommendationReport{
		Date:            a.now(),
		Region:          a.config.Streaming.RegionCode(),
		Recommendations: result.Recommendations,
		TopGenres:       models.Top(result.Profile.Genres, 3),
		ProfileMovies:   result.Profile.Movies,
		Candidates:      result.Candidates,
		Failures:        result.Batch.Failed(),
	}
	report.Pitch = a.pitch(ctx, log, result)

	if len(report.Recommendations) == 0 {
		log.Info().Msg("no recommendation is streaming on a subscribed service, skipping email")
	} else if a.mailer != nil {
		log.Info().Int("recommendations", len(report.Recommendations)).Msg("sending recommendations email")
		if err := a.mailer.SendRecommendations(report); err != nil {
			return fail(fmt.Errorf("failed to send recommendations email: %w", err))
		}
	}

	for i, rec := range report.Recommendations {
		log.Info().
			Int("rank", i+1).
			Str("title", rec.Summary.Title).
			Int("score", rec.Score).
			Strs("providers", rec.Providers).
			Msg("recommendation")
	}

	duration := time.Since(startTime)
	if result.Batch.Failed() > 0 {
		events.OnPartialFailure(errors.New(result.Batch.Summary()), duration)
	}
	events.OnSuccess(&Metrics{
		ProfileMovies:   report.ProfileMovies,
		Candidates:      report.Candidates,
		Recommendations: len(report.Recommendations),
		Failures:        report.Failures,
		Pitched:         report.Pitch != "",
	}, duration)

	return nil
}

// pitch degrades to no pitch on any failure
func (a *RecommenderAgent) pitch(ctx context.Context, log zerolog.Logger, result *Result) string {
	if a.pitcher == nil || len(result.Recommendations) == 0 {
		return ""
	}

	top := result.Recommendations[0]
	reasons := Reasons(result.Profile, top.Details, top.Credits)
	text, err := a.pitcher.Pitch(ctx, top, reasons)
	if err != nil {
		log.Warn().Err(err).Str("title", top.Summary.Title).Msg("pitch failed, sending without one")
		return ""
	}
	return text
}
