package models

import "sort"

// TasteProfile holds attribute frequencies over highly-rated movies.
// A weight is the number of movies that exhibit the attribute.
type TasteProfile struct {
	Genres    map[string]int `json:"genres"`
	Actors    map[string]int `json:"actors"`
	Directors map[string]int `json:"directors"`
	Writers   map[string]int `json:"writers"`
	Keywords  map[string]int `json:"keywords"`
	Movies    int            `json:"movies"` // resolved movies that contributed
}

func NewTasteProfile() *TasteProfile {
	return &TasteProfile{
		Genres:    make(map[string]int),
		Actors:    make(map[string]int),
		Directors: make(map[string]int),
		Writers:   make(map[string]int),
		Keywords:  make(map[string]int),
	}
}

// IsEmpty reports whether no movie contributed to the profile
func (p *TasteProfile) IsEmpty() bool {
	return p == nil || p.Movies == 0
}

// MovieFeatures are the distinct scorable attributes of one movie
type MovieFeatures struct {
	Genres    []string `json:"genres"`
	TopCast   []string `json:"top_cast"`
	Directors []string `json:"directors"`
	Writers   []string `json:"writers"`
	Keywords  []string `json:"keywords"`
}

// Add counts each attribute of one movie once
func (p *TasteProfile) Add(f MovieFeatures) {
	addOnce(p.Genres, f.Genres)
	addOnce(p.Actors, f.TopCast)
	addOnce(p.Directors, f.Directors)
	addOnce(p.Writers, f.Writers)
	addOnce(p.Keywords, f.Keywords)
	p.Movies++
}

// Score sums the profile weights of every attribute the movie exhibits
func (p *TasteProfile) Score(f MovieFeatures) int {
	return sumWeights(p.Genres, f.Genres) +
		sumWeights(p.Actors, f.TopCast) +
		sumWeights(p.Directors, f.Directors) +
		sumWeights(p.Writers, f.Writers) +
		sumWeights(p.Keywords, f.Keywords)
}

// Top returns up to n keys of weights ordered by descending weight, then name
func Top(weights map[string]int, n int) []string {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if weights[keys[i]] != weights[keys[j]] {
			return weights[keys[i]] > weights[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// Overlap returns the values present in weights, in values order
func Overlap(weights map[string]int, values []string) []string {
	var out []string
	for _, v := range values {
		if weights[v] > 0 {
			out = append(out, v)
		}
	}
	return out
}

func addOnce(weights map[string]int, values []string) {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		weights[v]++
	}
}

func sumWeights(weights map[string]int, values []string) int {
	total := 0
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		total += weights[v]
	}
	return total
}
