package models

import (
	"strings"
	"time"
)

// RatingEntry is one row of a ratings export
type RatingEntry struct {
	Title  string    `json:"title"`
	Year   int       `json:"year"`
	Rating float64   `json:"rating"` // 0.5 - 5 stars
	Date   time.Time `json:"date"`
}

// DiaryEntry is one logged watch
type DiaryEntry struct {
	Title       string    `json:"title"`
	Year        int       `json:"year"`
	Rating      float64   `json:"rating,omitempty"`
	Rewatch     bool      `json:"rewatch"`
	WatchedDate time.Time `json:"watched_date"`
}

type WatchlistEntry struct {
	Title     string    `json:"title"`
	Year      int       `json:"year"`
	AddedDate time.Time `json:"added_date"`
}

// SavedListEntry points at a public list whose titles should be tracked
type SavedListEntry struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

// TitleKey is the identity used for exclusion and snapshot matching.
// Titles shared by remakes collide; there is no cross-reference to provider ids.
func TitleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
