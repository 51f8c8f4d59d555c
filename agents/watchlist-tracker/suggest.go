package watchlisttracker

import (
	"context"
	"math/rand/v2"

	"cinema-agent/internal/models"
)

// Suggest walks the titles in random order and returns the first one that
// streams on a subscribed service, listing only the subscribed providers.
// Titles that fail to resolve are skipped.
func (t *Tracker) Suggest(ctx context.Context, titles []string, rng *rand.Rand) (*models.WatchSuggestion, error) {
	order := make([]string, len(titles))
	copy(order, titles)
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	for _, title := range order {
		if err := t.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		offers, err := t.offers(ctx, title)
		if err != nil {
			if fatal(err) {
				return nil, err
			}
			t.log.Debug().Err(err).Str("title", title).Msg("skipping suggestion candidate")
			continue
		}
		if subscribed := t.subscriptions.Match(offers.Flatrate); len(subscribed) > 0 {
			return &models.WatchSuggestion{Found: true, Title: title, Providers: subscribed, Link: offers.Link}, nil
		}
	}

	return &models.WatchSuggestion{Found: false}, nil
}
