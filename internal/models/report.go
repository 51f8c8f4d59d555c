package models

import "time"

// RecommendationReport is the digest sent after a recommender run
type RecommendationReport struct {
	Date            time.Time        `json:"date"`
	Region          string           `json:"region"`
	Recommendations []Recommendation `json:"recommendations"`
	Pitch           string           `json:"pitch,omitempty"`
	TopGenres       []string         `json:"top_genres"`
	ProfileMovies   int              `json:"profile_movies"`
	Candidates      int              `json:"candidates"`
	Failures        int              `json:"failures"`
}

// AvailabilityReport is the digest sent after a tracker run with changes
type AvailabilityReport struct {
	Date       time.Time            `json:"date"`
	Region     string               `json:"region"`
	Changes    []AvailabilityChange `json:"changes"`
	Suggestion *WatchSuggestion     `json:"suggestion,omitempty"`
	Tracked    int                  `json:"tracked"`
}
