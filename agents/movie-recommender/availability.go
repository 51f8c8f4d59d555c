package movierecommender

import (
	"context"
	"strings"

	"cinema-agent/internal/models"
	"cinema-agent/shared/batch"
	"cinema-agent/shared/pacer"

	"github.com/rs/zerolog"
)

// AvailabilityFilter keeps ranked candidates streamable on a subscribed service
type AvailabilityFilter struct {
	meta          Metadata
	pacer         *pacer.Pacer
	region        string
	subscriptions models.Subscriptions
	log           zerolog.Logger
}

func NewAvailabilityFilter(meta Metadata, p *pacer.Pacer, region string, subs models.Subscriptions, log zerolog.Logger) *AvailabilityFilter {
	return &AvailabilityFilter{
		meta:          meta,
		pacer:         p,
		region:        strings.ToUpper(region),
		subscriptions: subs,
		log:           log,
	}
}

// Filter preserves rank order. It never backfills, so the result may be
// shorter than the input or empty.
func (f *AvailabilityFilter) Filter(ctx context.Context, ranked []models.ScoredCandidate) ([]models.Recommendation, *batch.Batch, error) {
	result := batch.New("availability")
	var recs []models.Recommendation

	for _, sc := range ranked {
		if err := f.pacer.Wait(ctx); err != nil {
			return nil, result, err
		}

		title := sc.Summary.Title
		providers, err := f.meta.WatchProviders(ctx, sc.Summary.ID)
		if err != nil {
			if fatal(err) {
				return nil, result, err
			}
			f.log.Warn().Err(err).Str("title", title).Msg("skipping availability check")
			result.Fail(title, err)
			continue
		}
		result.Succeed(title)

		offers := providers[f.region]
		matched := f.subscriptions.Match(offers.Flatrate)
		if len(matched) == 0 {
			f.log.Debug().Str("title", title).Msg("not on a subscribed service")
			continue
		}

		recs = append(recs, models.Recommendation{
			ScoredCandidate: sc,
			Providers:       matched,
			Link:            offers.Link,
		})
	}

	return recs, result, nil
}
