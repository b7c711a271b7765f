package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"search-aggregator/internal/config"
	"search-aggregator/internal/models"
	"search-aggregator/internal/scraper"
	"search-aggregator/internal/tracer"
	"search-aggregator/pkg/logger"
)

const maxAPIBodySize = 4 << 20

// apiStrategy holds what the hosted API adapters share. The APIs return
// structured results, so nothing is fetched or parsed beyond JSON.
type apiStrategy struct {
	provider config.ProviderConfig
	baseURL  string
	client   *http.Client
}

func newAPIStrategy(p config.ProviderConfig, client *http.Client) (apiStrategy, error) {
	if p.URL == "" {
		return apiStrategy{}, &models.ConfigError{Provider: p.ID, Field: "url", Err: fmt.Errorf("provider URL is required")}
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return apiStrategy{
		provider: p,
		baseURL:  strings.TrimRight(p.URL, "/"),
		client:   client,
	}, nil
}

func (a apiStrategy) Name() string { return a.provider.ID }

// run validates the query, calls do and post-processes its results
func (a apiStrategy) run(ctx context.Context, query string, opts Options,
	do func(ctx context.Context, query string, opts Options) ([]models.SearchResult, error)) (*models.SearchResponse, error) {
	ctx, span := tracer.StartSpan(ctx, "search.api", attribute.String("provider", a.Name()))
	defer span.End()

	opts = opts.withDefaults()
	cleaned, err := CleanQuery(query)
	if err == nil {
		var results []models.SearchResult
		results, err = do(ctx, cleaned, opts)
		if err == nil {
			resp := &models.SearchResponse{Query: query, Results: a.finish(results, opts)}
			logger.Info("api search completed",
				zap.String("provider", a.Name()),
				zap.Int("result_count", len(resp.Results)))
			span.SetAttributes(attribute.Int("results", len(resp.Results)))
			tracer.SetOK(span)
			return resp, nil
		}
	}

	failed := models.NewSearchFailed(err)
	logger.Error("search failed", zap.String("provider", a.Name()), zap.Error(failed))
	tracer.RecordError(span, failed)
	return nil, failed
}

// finish applies dedup, domain exclusion, the result cap and content limit
func (a apiStrategy) finish(results []models.SearchResult, opts Options) []models.SearchResult {
	seen := make(map[string]struct{}, len(results))
	out := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		if len(out) >= opts.MaxResults {
			break
		}
		if r.URL == "" {
			continue
		}
		if _, dup := seen[r.URL]; dup {
			continue
		}
		seen[r.URL] = struct{}{}
		if containsAny(r.URL, opts.ExcludeDomains) {
			continue
		}
		if a.provider.ContentLimit > 0 {
			r.Content = scraper.TruncateContent(r.Content, a.provider.ContentLimit)
		}
		if r.Title == "" {
			r.Title = r.URL
		}
		out = append(out, r)
	}
	return out
}

// doJSON sends req, checks the status and decodes the JSON body into out
func (a apiStrategy) doJSON(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", a.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIBodySize))
	if err != nil {
		return fmt.Errorf("%s read response: %w", a.Name(), err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %w", a.Name(), &models.HTTPError{StatusCode: resp.StatusCode, URL: req.URL.String()})
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s parse response: %w", a.Name(), err)
	}
	return nil
}

func (a apiStrategy) postJSON(ctx context.Context, path string, payload any) (*http.Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
