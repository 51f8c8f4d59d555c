// Package history reads the CSV files of a Letterboxd data export.
package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cinema-agent/internal/models"
)

const (
	RatingsFile   = "ratings.csv"
	DiaryFile     = "diary.csv"
	WatchlistFile = "watchlist.csv"

	// HighRating is the lowest rating that feeds the taste profile
	HighRating = 4.0

	dateLayout = "2006-01-02"
)

// History is everything the agents need from an export
type History struct {
	Ratings   []models.RatingEntry
	Diary     []models.DiaryEntry
	Watchlist []models.WatchlistEntry
}

// Loader reads export files from a directory. A missing file reads as empty.
type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

func (l *Loader) Load() (*History, error) {
	ratings, err := l.Ratings()
	if err != nil {
		return nil, err
	}
	diary, err := l.Diary()
	if err != nil {
		return nil, err
	}
	watchlist, err := l.Watchlist()
	if err != nil {
		return nil, err
	}
	return &History{Ratings: ratings, Diary: diary, Watchlist: watchlist}, nil
}

func (l *Loader) Ratings() ([]models.RatingEntry, error) {
	var entries []models.RatingEntry
	err := l.each(RatingsFile, func(line int, row record) error {
		rating, err := parseRating(row.get("rating"))
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, models.RatingEntry{
			Title:  row.get("name"),
			Year:   parseYear(row.get("year")),
			Rating: rating,
			Date:   parseDate(row.get("date")),
		})
		return nil
	})
	return entries, err
}

func (l *Loader) Diary() ([]models.DiaryEntry, error) {
	var entries []models.DiaryEntry
	err := l.each(DiaryFile, func(line int, row record) error {
		rating, err := parseRating(row.get("rating"))
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, models.DiaryEntry{
			Title:       row.get("name"),
			Year:        parseYear(row.get("year")),
			Rating:      rating,
			Rewatch:     strings.EqualFold(row.get("rewatch"), "yes"),
			WatchedDate: parseDate(row.get("watched date")),
		})
		return nil
	})
	return entries, err
}

func (l *Loader) Watchlist() ([]models.WatchlistEntry, error) {
	var entries []models.WatchlistEntry
	err := l.each(WatchlistFile, func(_ int, row record) error {
		entries = append(entries, models.WatchlistEntry{
			Title:     row.get("name"),
			Year:      parseYear(row.get("year")),
			AddedDate: parseDate(row.get("date")),
		})
		return nil
	})
	return entries, err
}

type record struct {
	header map[string]int
	row    []string
}

func (r record) get(column string) string {
	idx, ok := r.header[column]
	if !ok || idx >= len(r.row) {
		return ""
	}
	return strings.TrimSpace(r.row[idx])
}

// each calls fn for every row that has a title
func (l *Loader) each(name string, fn func(line int, row record) error) error {
	path := filepath.Join(l.dir, name)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s header: %w", name, err)
	}

	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		rec := record{header: header, row: row}
		if rec.get("name") == "" {
			continue
		}
		if err := fn(line, rec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		// exports written on Windows start with a byte order mark
		name = strings.TrimPrefix(name, "\ufeff")
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func parseRating(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	rating, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse rating %q: %w", value, err)
	}
	return rating, nil
}

func parseYear(value string) int {
	year, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return year
}

func parseDate(value string) time.Time {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// HighlyRated keeps the entries rated at or above HighRating, in input order
func HighlyRated(ratings []models.RatingEntry) []models.RatingEntry {
	var out []models.RatingEntry
	for _, r := range ratings {
		if r.Rating >= HighRating {
			out = append(out, r)
		}
	}
	return out
}

// ExcludedTitles is the set of lower-cased titles already watched or queued
func ExcludedTitles(diary []models.DiaryEntry, watchlist []models.WatchlistEntry) map[string]bool {
	excluded := make(map[string]bool, len(diary)+len(watchlist))
	for _, d := range diary {
		excluded[models.TitleKey(d.Title)] = true
	}
	for _, w := range watchlist {
		excluded[models.TitleKey(w.Title)] = true
	}
	return excluded
}

// WatchlistTitles returns the titles of entries in file order
func WatchlistTitles(entries []models.WatchlistEntry) []string {
	titles := make([]string, 0, len(entries))
	for _, w := range entries {
		titles = append(titles, w.Title)
	}
	return titles
}

func (h *History) Excluded() map[string]bool {
	return ExcludedTitles(h.Diary, h.Watchlist)
}
