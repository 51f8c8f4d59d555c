package movierecommender

import (
	"context"
	"fmt"
	"strings"

	"cinema-agent/internal/models"
)

// WhereToWatch looks up a single title. Errors propagate to the caller;
// no match or no streaming offer in region is a negative result.
func WhereToWatch(ctx context.Context, meta Metadata, title, region string, subs models.Subscriptions) (*models.WhereToWatch, error) {
	region = strings.ToUpper(region)
	answer := &models.WhereToWatch{Query: title, Region: region}

	match, err := meta.SearchMovie(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", title, err)
	}
	if match == nil {
		return answer, nil
	}
	answer.Found = true
	answer.Movie = *match

	providers, err := meta.WatchProviders(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("watch providers for %q: %w", match.Title, err)
	}

	offers, ok := providers[region]
	if !ok || len(offers.Flatrate) == 0 {
		return answer, nil
	}
	for _, p := range offers.Flatrate {
		answer.Offers = append(answer.Offers, models.ProviderOffer{Name: p.Name, Subscribed: subs.Has(p.Name)})
	}
	answer.Link = offers.Link
	return answer, nil
}
