package search

import (
	"context"
	"net/http"

	"search-aggregator/internal/config"
	"search-aggregator/internal/models"
)

// ExaStrategy calls the Exa search API with page text included
type ExaStrategy struct {
	apiStrategy
}

type exaRequest struct {
	Query          string      `json:"query"`
	NumResults     int         `json:"numResults,omitempty"`
	ExcludeDomains []string    `json:"excludeDomains,omitempty"`
	Contents       exaContents `json:"contents"`
}

type exaContents struct {
	Text bool `json:"text"`
}

type exaResponse struct {
	Results []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
		Text  string `json:"text"`
	} `json:"results"`
}

func NewExaStrategy(p config.ProviderConfig, client *http.Client) (*ExaStrategy, error) {
	base, err := newAPIStrategy(p, client)
	if err != nil {
		return nil, err
	}
	return &ExaStrategy{apiStrategy: base}, nil
}

func (s *ExaStrategy) Search(ctx context.Context, query string, opts Options) (*models.SearchResponse, error) {
	return s.run(ctx, query, opts, s.query)
}

func (s *ExaStrategy) query(ctx context.Context, query string, opts Options) ([]models.SearchResult, error) {
	req, err := s.postJSON(ctx, "/search", exaRequest{
		Query:          query,
		NumResults:     opts.MaxResults,
		ExcludeDomains: opts.ExcludeDomains,
		Contents:       exaContents{Text: true},
	})
	if err != nil {
		return nil, err
	}
	if s.provider.APIKey != "" {
		req.Header.Set("x-api-key", s.provider.APIKey)
	}

	var er exaResponse
	if err := s.doJSON(req, &er); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(er.Results))
	for _, r := range er.Results {
		results = append(results, models.SearchResult{Title: r.Title, URL: r.URL, Content: r.Text})
	}
	return results, nil
}
