// Package watchlisttracker reports watchlist titles that start or stop
// streaming on a subscribed service between two runs.
package watchlisttracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cinema-agent/internal/models"
	"cinema-agent/shared/batch"
	"cinema-agent/shared/pacer"
	"cinema-agent/shared/storage"

	"github.com/rs/zerolog"
)

// SnapshotKey is the generic cache key holding the latest snapshot
const SnapshotKey = "watchlist-availability"

// ErrNoMatch is recorded for a title the provider search could not resolve
var ErrNoMatch = errors.New("no search match")

// Metadata is the part of metadata.Client the tracker depends on.
// Offers are always read upstream so a rerun never sees a stale cache entry.
type Metadata interface {
	SearchMovie(ctx context.Context, title string) (*models.MovieSummary, error)
	RefreshWatchProviders(ctx context.Context, id int) (models.WatchProviders, error)
}

type Tracker struct {
	meta          Metadata
	cache         *storage.Cache
	pacer         *pacer.Pacer
	region        string
	subscriptions models.Subscriptions
	log           zerolog.Logger
}

func NewTracker(meta Metadata, cache *storage.Cache, p *pacer.Pacer, region string, subs models.Subscriptions, log zerolog.Logger) *Tracker {
	return &Tracker{
		meta:          meta,
		cache:         cache,
		pacer:         p,
		region:        strings.ToUpper(region),
		subscriptions: subs,
		log:           log,
	}
}

// Result is the outcome of one tracker pass
type Result struct {
	Changes  []models.AvailabilityChange
	Snapshot models.AvailabilitySnapshot
	FirstRun bool
	Batch    *batch.Batch
}

// Check computes the availability of every title, diffs it against the stored
// snapshot and replaces that snapshot. Titles that fail to resolve are
// recorded and left out of the new snapshot.
func (t *Tracker) Check(ctx context.Context, titles []string) (*Result, error) {
	previous, found, err := storage.GetJSON[models.AvailabilitySnapshot](ctx, t.cache, SnapshotKey, 0)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Snapshot: make(models.AvailabilitySnapshot, len(titles)),
		FirstRun: !found,
		Batch:    batch.New("watchlist"),
	}
	if result.FirstRun {
		t.log.Info().Msg("no previous snapshot, changes are reported from the next run")
	}

	for _, title := range titles {
		if err := t.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		offers, err := t.offers(ctx, title)
		if err != nil {
			if fatal(err) {
				return nil, err
			}
			t.log.Warn().Err(err).Str("title", title).Msg("skipping watchlist title")
			result.Batch.Fail(title, err)
			continue
		}
		result.Batch.Succeed(title)
		state := State(offers, t.subscriptions)
		result.Snapshot[title] = state

		prior, known := previous[title]
		if !known || prior.IsAvailable == state.IsAvailable {
			continue
		}

		change := Transition(title, state)
		t.log.Info().Str("title", title).Str("kind", string(change.Kind)).Msg("availability changed")
		result.Changes = append(result.Changes, change)
	}

	if err := t.cache.Set(ctx, SnapshotKey, result.Snapshot); err != nil {
		return nil, err
	}
	return result, nil
}

// offers resolves title and returns its offers in the tracked region
func (t *Tracker) offers(ctx context.Context, title string) (models.RegionOffers, error) {
	match, err := t.meta.SearchMovie(ctx, title)
	if err != nil {
		return models.RegionOffers{}, fmt.Errorf("search %q: %w", title, err)
	}
	if match == nil {
		return models.RegionOffers{}, ErrNoMatch
	}

	providers, err := t.meta.RefreshWatchProviders(ctx, match.ID)
	if err != nil {
		return models.RegionOffers{}, fmt.Errorf("watch providers for %q: %w", title, err)
	}
	return providers[t.region], nil
}

// State lists every flatrate provider of offers, and the link, only when one
// of them is subscribed
func State(offers models.RegionOffers, subs models.Subscriptions) models.AvailabilityState {
	if len(subs.Match(offers.Flatrate)) == 0 {
		return models.AvailabilityState{IsAvailable: false, Providers: []string{}}
	}

	names := make([]string, 0, len(offers.Flatrate))
	for _, p := range offers.Flatrate {
		names = append(names, p.Name)
	}
	return models.AvailabilityState{IsAvailable: true, Providers: names, Link: offers.Link}
}

// Transition describes the change that led to state
func Transition(title string, state models.AvailabilityState) models.AvailabilityChange {
	if state.IsAvailable {
		return models.AvailabilityChange{
			Title:   title,
			Kind:    models.ChangeNowAvailable,
			State:   state,
			Message: fmt.Sprintf("%s is now available on %s. Watch here: %s", title, strings.Join(state.Providers, ", "), state.Link),
		}
	}
	return models.AvailabilityChange{
		Title:   title,
		Kind:    models.ChangeNoLongerAvailable,
		State:   state,
		Message: fmt.Sprintf("%s is no longer available on your subscribed services.", title),
	}
}

func fatal(err error) bool {
	return storage.IsCacheError(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
