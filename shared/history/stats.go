package history

import "cinema-agent/internal/models"

// Stats are the counts printed by the recommender CLI
type Stats struct {
	Watched     int `json:"watched"`
	Rated       int `json:"rated"`
	HighlyRated int `json:"highly_rated"`
	Watchlist   int `json:"watchlist"`
}

func (h *History) Stats() Stats {
	return Stats{
		Watched:     len(h.Diary),
		Rated:       len(h.Ratings),
		HighlyRated: len(HighlyRated(h.Ratings)),
		Watchlist:   len(h.Watchlist),
	}
}

// WatchedIn returns the diary entries watched during year, in diary order.
// Entries without a watch date never match.
func WatchedIn(diary []models.DiaryEntry, year int) []models.DiaryEntry {
	var out []models.DiaryEntry
	for _, d := range diary {
		if !d.WatchedDate.IsZero() && d.WatchedDate.Year() == year {
			out = append(out, d)
		}
	}
	return out
}
