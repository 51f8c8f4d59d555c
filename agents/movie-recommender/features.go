package movierecommender

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"cinema-agent/internal/models"
)

const (
	topCastSize      = 5
	minKeywordLength = 3
)

var writerJobs = map[string]bool{
	"Screenplay": true,
	"Story":      true,
	"Writer":     true,
}

// ExtractFeatures reduces a movie to the attributes the profile weighs.
// Every list is distinct and keeps source order.
func ExtractFeatures(movie *models.Movie, credits *models.Credits) models.MovieFeatures {
	var f models.MovieFeatures
	if movie != nil {
		f.Genres = distinct(movie.GenreNames())
		f.Keywords = Keywords(movie.Overview)
	}
	if credits == nil {
		return f
	}

	cast := credits.Cast
	if len(cast) > topCastSize {
		cast = cast[:topCastSize]
	}
	actors := make([]string, 0, len(cast))
	for _, c := range cast {
		actors = append(actors, c.Name)
	}
	f.TopCast = distinct(actors)

	var directors, writers []string
	for _, c := range credits.Crew {
		switch {
		case c.Job == "Director":
			directors = append(directors, c.Name)
		case writerJobs[c.Job]:
			writers = append(writers, c.Name)
		}
	}
	f.Directors = distinct(directors)
	f.Writers = distinct(writers)
	return f
}

// Keywords tokenizes a synopsis on anything that is not a letter or digit and
// keeps lower-cased tokens longer than two characters
func Keywords(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var keywords []string
	for _, t := range tokens {
		if utf8.RuneCountInString(t) >= minKeywordLength {
			keywords = append(keywords, t)
		}
	}
	return distinct(keywords)
}

func distinct(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
