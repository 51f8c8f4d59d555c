package models

// AvailabilityState is the streaming status of one watchlist title
type AvailabilityState struct {
	IsAvailable bool     `json:"isAvailable"`
	Providers   []string `json:"providers"`
	Link        string   `json:"link,omitempty"`
}

// AvailabilitySnapshot maps a watchlist title to its state as of one tracker run
type AvailabilitySnapshot map[string]AvailabilityState

type ChangeKind string

const (
	ChangeNowAvailable      ChangeKind = "now_available"
	ChangeNoLongerAvailable ChangeKind = "no_longer_available"
)

// AvailabilityChange is emitted on a transition between two runs
type AvailabilityChange struct {
	Title   string            `json:"title"`
	Kind    ChangeKind        `json:"kind"`
	State   AvailabilityState `json:"state"`
	Message string            `json:"message"`
}

// WatchSuggestion is a watchlist title currently streamable on a subscribed service
type WatchSuggestion struct {
	Found     bool     `json:"found"`
	Title     string   `json:"title"`
	Providers []string `json:"providers"`
	Link      string   `json:"link,omitempty"`
}
