package models

// SearchResult is a single fetched and normalized page
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`

	// Failed marks a fetch that produced a sentinel instead of page content.
	Failed bool `json:"-"`
}

// SearchResponse is what a strategy returns for one query
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// ExtractedPageData holds the links and metadata found in one HTML document
type ExtractedPageData struct {
	URLs     []string
	Metadata map[string]string
}

// ErrorResponse represents error responses
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
