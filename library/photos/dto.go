// Package photos is the client of the remote photo search endpoint.
package photos

// DefaultLimit is the page size requested from the search endpoint.
const DefaultLimit = 50

// Photo is a single photo returned by the search endpoint, Path is its unique id.
type Photo struct {
	Path             string   `json:"path"`
	Filename         string   `json:"filename"`
	Metadata         Metadata `json:"metadata"`
	MatchExplanation string   `json:"match_explanation,omitempty"`
}

// Metadata describes a photo. DateTaken is RFC3339.
type Metadata struct {
	DateTaken   string   `json:"date_taken,omitempty"`
	Width       int      `json:"width,omitempty"`
	Height      int      `json:"height,omitempty"`
	Size        int64    `json:"size,omitempty"`
	Camera      string   `json:"camera,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Favorite    bool     `json:"favorite,omitempty"`
	Source      string   `json:"source,omitempty"`
	MediaType   string   `json:"media_type,omitempty"`
}

// SearchRequest carries every parameter of one search call.
// Empty optional filters (Tag, DateFrom, DateTo) are not sent.
type SearchRequest struct {
	Query           string
	Mode            string
	Limit           int
	Offset          int
	SortBy          string
	TypeFilter      string
	FavoritesFilter string
	Tag             string
	DateFrom        string
	DateTo          string
	SourceFilter    string
}

// SearchResponse is one page of results.
//
// Count, when present, is the total number of matches across all pages.
// It is for display only, pagination relies on len(Results) >= limit.
type SearchResponse struct {
	Results []Photo `json:"results"`
	Count   *int    `json:"count,omitempty"`
}
