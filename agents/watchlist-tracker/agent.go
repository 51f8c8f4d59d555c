package watchlisttracker

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"cinema-agent/internal/models"
	"cinema-agent/shared/batch"
	"cinema-agent/shared/config"
	"cinema-agent/shared/email"
	"cinema-agent/shared/history"
	"cinema-agent/shared/letterboxd"
	"cinema-agent/shared/logging"
	"cinema-agent/shared/metadata"
	"cinema-agent/shared/pacer"
	"cinema-agent/shared/scheduler"
	"cinema-agent/shared/storage"

	"github.com/rs/zerolog"
)

type Mailer interface {
	SendAvailability(report *models.AvailabilityReport) error
}

// ListSource resolves saved lists into titles
type ListSource interface {
	Collect(ctx context.Context, lists []models.SavedListEntry) ([]string, *batch.Batch, error)
}

// Metrics summarizes one tracker run
type Metrics struct {
	Tracked   int
	Available int
	Changes   int
	Failures  int
	FirstRun  bool
}

func (m *Metrics) GetSummary() string {
	summary := fmt.Sprintf("tracked: %d, available: %d, changes: %d, failures: %d",
		m.Tracked, m.Available, m.Changes, m.Failures)
	if m.FirstRun {
		summary += " (first run)"
	}
	return summary
}

// TrackerAgent implements the scheduler.Agent interface
type TrackerAgent struct {
	config  *config.Config
	cache   *storage.Cache
	client  *metadata.Client
	tracker *Tracker
	loader  *history.Loader
	lists   ListSource
	mailer  Mailer
	rng     *rand.Rand
	log     zerolog.Logger
	now     func() time.Time
}

var _ scheduler.Agent = (*TrackerAgent)(nil)

func NewTrackerAgent(cfg *config.Config) *TrackerAgent {
	return &TrackerAgent{
		config: cfg,
		log:    logging.Component("tracker"),
		now:    time.Now,
	}
}

func (a *TrackerAgent) Name() string {
	return "Watchlist Tracker"
}

func (a *TrackerAgent) Initialize() error {
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

	if a.tracker == nil {
		a.tracker = NewTracker(a.client, a.cache, pacer.New(a.config.Tracker.ItemDelay),
			a.config.Streaming.RegionCode(), a.config.Streaming.Subscriptions(), a.log)
	}

	if a.loader == nil {
		a.loader = history.NewLoader(a.config.Data.Dir)
	}

	if a.lists == nil && len(a.config.Lists) > 0 {
		a.lists = letterboxd.NewScraper(a.cache, a.config.Cache.SavedListTTL, logging.Component("letterboxd"))
		a.log.Info().Int("lists", len(a.config.Lists)).Msg("saved lists configured")
	}

	if a.mailer == nil && a.config.Email.Enabled() {
		if err := a.config.ValidateEmail(); err != nil {
			return err
		}
		a.mailer = email.NewSender(&a.config.Email)
	}

	return nil
}

// Close releases the cache
func (a *TrackerAgent) Close() error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}

// Titles returns the watchlist followed by the saved-list titles, without
// case-insensitive duplicates
func (a *TrackerAgent) Titles(ctx context.Context) ([]string, *batch.Batch, error) {
	watchlist, err := a.loader.Watchlist()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load watchlist: %w", err)
	}
	titles := history.WatchlistTitles(watchlist)

	if a.lists == nil || len(a.config.Lists) == 0 {
		return MergeTitles(titles), batch.New("saved lists"), nil
	}

	listTitles, outcomes, err := a.lists.Collect(ctx, a.config.Lists)
	if err != nil {
		return nil, outcomes, fmt.Errorf("failed to collect saved lists: %w", err)
	}
	return MergeTitles(titles, listTitles...), outcomes, nil
}

// Suggest picks a random tracked title streaming on a subscribed service
func (a *TrackerAgent) Suggest(ctx context.Context) (*models.WatchSuggestion, error) {
	titles, _, err := a.Titles(ctx)
	if err != nil {
		return nil, err
	}
	return a.tracker.Suggest(ctx, titles, a.rng)
}

func (a *TrackerAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	log := logging.Ctx(ctx, a.log)

	fail := func(err error) error {
		events.OnCriticalFailure(err, time.Since(startTime))
		return err
	}

	titles, outcomes, err := a.Titles(ctx)
	if err != nil {
		return fail(err)
	}
	log.Info().Int("titles", len(titles)).Msg("checking availability")

	result, err := a.tracker.Check(ctx, titles)
	if err != nil {
		return fail(fmt.Errorf("failed to check availability: %w", err))
	}
	result.Batch.Merge(outcomes)

	available := 0
	for _, state := range result.Snapshot {
		if state.IsAvailable {
			available++
		}
	}

	if len(result.Changes) > 0 {
		report := &models.AvailabilityReport{
			Date:    a.now(),
			Region:  a.config.Streaming.RegionCode(),
			Changes: result.Changes,
			Tracked: len(titles),
		}

		suggestion, err := a.tracker.Suggest(ctx, titles, a.rng)
		if err != nil {
			return fail(fmt.Errorf("failed to pick a suggestion: %w", err))
		}
		if suggestion.Found {
			report.Suggestion = suggestion
		}

		for _, change := range result.Changes {
			log.Info().Str("title", change.Title).Msg(change.Message)
		}
		if a.mailer != nil {
			if err := a.mailer.SendAvailability(report); err != nil {
				return fail(fmt.Errorf("failed to send availability email: %w", err))
			}
			log.Info().Int("changes", len(result.Changes)).Msg("availability email sent")
		}
	}

	duration := time.Since(startTime)
	if result.Batch.Failed() > 0 {
		events.OnPartialFailure(errors.New(result.Batch.Summary()), duration)
	}
	events.OnSuccess(&Metrics{
		Tracked:   len(titles),
		Available: available,
		Changes:   len(result.Changes),
		Failures:  result.Batch.Failed(),
		FirstRun:  result.FirstRun,
	}, duration)
	return nil
}

// MergeTitles appends extra to titles, keeping the first spelling of every
// lower-cased title
func MergeTitles(titles []string, extra ...string) []string {
	seen := make(map[string]bool, len(titles)+len(extra))
	merged := make([]string, 0, len(titles)+len(extra))
	for _, list := range [][]string{titles, extra} {
		for _, title := range list {
			key := models.TitleKey(title)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, title)
		}
	}
	return merged
}
