package search

import (
	"context"
	"net/http"

	"search-aggregator/internal/config"
	"search-aggregator/internal/models"
)

// TavilyStrategy calls the Tavily search API
type TavilyStrategy struct {
	apiStrategy
}

type tavilyRequest struct {
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func NewTavilyStrategy(p config.ProviderConfig, client *http.Client) (*TavilyStrategy, error) {
	base, err := newAPIStrategy(p, client)
	if err != nil {
		return nil, err
	}
	return &TavilyStrategy{apiStrategy: base}, nil
}

func (s *TavilyStrategy) Search(ctx context.Context, query string, opts Options) (*models.SearchResponse, error) {
	return s.run(ctx, query, opts, s.query)
}

func (s *TavilyStrategy) query(ctx context.Context, query string, opts Options) ([]models.SearchResult, error) {
	req, err := s.postJSON(ctx, "/search", tavilyRequest{
		Query:          query,
		MaxResults:     opts.MaxResults,
		ExcludeDomains: opts.ExcludeDomains,
	})
	if err != nil {
		return nil, err
	}
	if s.provider.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.provider.APIKey)
	}

	var tr tavilyResponse
	if err := s.doJSON(req, &tr); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(tr.Results))
	for _, r := range tr.Results {
		results = append(results, models.SearchResult{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	return results, nil
}
