package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"search-aggregator/internal/config"
	"search-aggregator/internal/models"
)

// SearxngStrategy queries a SearXNG instance's JSON API
type SearxngStrategy struct {
	apiStrategy
}

type searxngResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func NewSearxngStrategy(p config.ProviderConfig, client *http.Client) (*SearxngStrategy, error) {
	base, err := newAPIStrategy(p, client)
	if err != nil {
		return nil, err
	}
	return &SearxngStrategy{apiStrategy: base}, nil
}

func (s *SearxngStrategy) Search(ctx context.Context, query string, opts Options) (*models.SearchResponse, error) {
	return s.run(ctx, query, opts, s.query)
}

func (s *SearxngStrategy) query(ctx context.Context, query string, opts Options) ([]models.SearchResult, error) {
	endpoint := s.baseURL
	if !strings.HasSuffix(endpoint, "/search") {
		endpoint += "/search"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("pageno", "1")
	req.URL.RawQuery = q.Encode()

	var sr searxngResponse
	if err := s.doJSON(req, &sr); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(sr.Results))
	for _, r := range sr.Results {
		results = append(results, models.SearchResult{
			Title:   strings.TrimSpace(r.Title),
			URL:     strings.TrimSpace(r.URL),
			Content: strings.TrimSpace(r.Content),
		})
	}
	return results, nil
}
