package models

import "strings"

// Candidate is a movie eligible for scoring. Details and Credits are filled once fetched.
type Candidate struct {
	Summary MovieSummary `json:"summary"`
	Details *Movie       `json:"details,omitempty"`
	Credits *Credits     `json:"credits,omitempty"`
}

func (c Candidate) Key() string {
	return TitleKey(c.Summary.Title)
}

type ScoredCandidate struct {
	Candidate
	Score int `json:"score"`
}

// Recommendation is a ranked candidate streamable on a subscribed service
type Recommendation struct {
	ScoredCandidate
	Providers []string `json:"providers"`
	Link      string   `json:"link,omitempty"`
}

// RandomPick is the result of a random recommendation attempt
type RandomPick struct {
	Found    bool         `json:"found"`
	Movie    MovieSummary `json:"movie"`
	Reasons  []string     `json:"reasons"`
	Attempts int          `json:"attempts"`
}

// WhereToWatch answers a single-title streaming lookup
type WhereToWatch struct {
	Query  string          `json:"query"`
	Found  bool            `json:"found"`
	Movie  MovieSummary    `json:"movie"`
	Region string          `json:"region"`
	Offers []ProviderOffer `json:"offers"`
	Link   string          `json:"link,omitempty"`
}

type ProviderOffer struct {
	Name       string `json:"name"`
	Subscribed bool   `json:"subscribed"`
}

// Subscriptions is a case-insensitive set of streaming service names
type Subscriptions map[string]struct{}

func NewSubscriptions(names ...string) Subscriptions {
	s := make(Subscriptions, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

func (s Subscriptions) Has(name string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Match returns the flatrate providers of offers that are subscribed, in listed order
func (s Subscriptions) Match(offers []Provider) []string {
	var names []string
	for _, p := range offers {
		if s.Has(p.Name) {
			names = append(names, p.Name)
		}
	}
	return names
}
