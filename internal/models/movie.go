package models

// Genre is a provider genre with its display name
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieSummary is the shape returned by search and discover result pages
type MovieSummary struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Overview    string `json:"overview"`
	ReleaseDate string `json:"release_date"`
	GenreIDs    []int  `json:"genre_ids"`
}

// Movie is the full detail record for a single movie
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	Genres      []Genre `json:"genres"`
}

// GenreIDs returns the ids of the detail genre list
func (m *Movie) GenreIDs() []int {
	ids := make([]int, 0, len(m.Genres))
	for _, g := range m.Genres {
		ids = append(ids, g.ID)
	}
	return ids
}

// GenreNames returns the names of the detail genre list
func (m *Movie) GenreNames() []string {
	names := make([]string, 0, len(m.Genres))
	for _, g := range m.Genres {
		names = append(names, g.Name)
	}
	return names
}

// Year returns the release year or an empty string when unknown
func (m *Movie) Year() string {
	if len(m.ReleaseDate) >= 4 {
		return m.ReleaseDate[:4]
	}
	return ""
}

type CastMember struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
	Order     int    `json:"order"`
}

type CrewMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department,omitempty"`
}

// Credits holds the billed cast (in billing order) and the crew of a movie
type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// DiscoverQuery describes one discover request
type DiscoverQuery struct {
	SortBy     string `json:"sort_by"`
	Page       int    `json:"page"`
	WithGenres string `json:"with_genres,omitempty"`
}

// DiscoverPage is one page of discover results
type DiscoverPage struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
	Results      []MovieSummary `json:"results"`
}

// Provider is a streaming service as listed by the metadata provider
type Provider struct {
	ID       int    `json:"provider_id"`
	Name     string `json:"provider_name"`
	Priority int    `json:"display_priority,omitempty"`
}

// RegionOffers are the offers of one region. Flatrate lists subscription-inclusive offers.
type RegionOffers struct {
	Link     string     `json:"link,omitempty"`
	Flatrate []Provider `json:"flatrate,omitempty"`
	Rent     []Provider `json:"rent,omitempty"`
	Buy      []Provider `json:"buy,omitempty"`
}

// WatchProviders maps an upper-case region code to its offers
type WatchProviders map[string]RegionOffers
