package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"search-aggregator/internal/config"
	"search-aggregator/internal/models"
	"search-aggregator/internal/scraper"
	"search-aggregator/internal/tracer"
	"search-aggregator/pkg/logger"
)

// Variant tags the flavor of a ScrapeStrategy
type Variant int

const (
	// VariantGeneric scrapes a fixed search engine and converts whole pages.
	VariantGeneric Variant = iota
	// VariantLocal scrapes a configured engine and keeps only the main article.
	VariantLocal
)

func (v Variant) String() string {
	switch v {
	case VariantLocal:
		return "local"
	default:
		return "generic"
	}
}

const (
	// GenericSearchURL is the results page template of the generic variant
	GenericSearchURL = "https://www.google.com/search?q="
	// EngineHost is never returned as a result
	EngineHost = "google.com"
	// QueryPlaceholder marks where a local template takes the query
	QueryPlaceholder = "%s"
	// DefaultContentLimit applies to the generic variant when unset
	DefaultContentLimit = 10000
)

// ScrapeStrategy renders a search engine results page, mines it for links
// and fetches every surviving link concurrently.
type ScrapeStrategy struct {
	variant       Variant
	provider      config.ProviderConfig
	renderer      scraper.Renderer
	fetcher       *scraper.PageFetcher
	excludedHosts []string
	contentLimit  int
}

// NewGenericStrategy builds the generic engine variant
func NewGenericStrategy(p config.ProviderConfig, deps Deps) *ScrapeStrategy {
	limit := p.ContentLimit
	if limit == 0 {
		limit = DefaultContentLimit
	}
	return &ScrapeStrategy{
		variant:       VariantGeneric,
		provider:      p,
		renderer:      deps.Renderer,
		fetcher:       scraper.NewPageFetcher(deps.httpClient(), deps.Renderer, scraper.NewNormalizer(scraper.ModeFullDocument)),
		excludedHosts: []string{EngineHost},
		contentLimit:  limit,
	}
}

// NewLocalStrategy builds the site-specific variant. The provider URL must
// be an absolute template containing the query placeholder.
func NewLocalStrategy(p config.ProviderConfig, deps Deps) (*ScrapeStrategy, error) {
	if p.URL == "" {
		return nil, &models.ConfigError{Provider: p.ID, Field: "url", Err: errors.New("provider URL is required")}
	}
	u, err := url.Parse(strings.ReplaceAll(p.URL, QueryPlaceholder, "q"))
	if err != nil {
		return nil, &models.ConfigError{Provider: p.ID, Field: "url", Err: err}
	}
	if u.Host == "" {
		return nil, &models.ConfigError{Provider: p.ID, Field: "url", Err: fmt.Errorf("no host in %q", p.URL)}
	}
	if !strings.Contains(p.URL, QueryPlaceholder) {
		return nil, &models.ConfigError{Provider: p.ID, Field: "url", Err: fmt.Errorf("missing %s placeholder in %q", QueryPlaceholder, p.URL)}
	}

	limit := p.ContentLimit
	if limit == 0 {
		limit = -1
	}
	return &ScrapeStrategy{
		variant:       VariantLocal,
		provider:      p,
		renderer:      deps.Renderer,
		fetcher:       scraper.NewPageFetcher(deps.httpClient(), deps.Renderer, scraper.NewNormalizer(scraper.ModeReadability)),
		excludedHosts: []string{EngineHost, u.Host},
		contentLimit:  limit,
	}, nil
}

func (s *ScrapeStrategy) Name() string {
	if s.provider.ID != "" {
		return s.provider.ID
	}
	return s.variant.String()
}

// Variant reports which scrape flavor s is
func (s *ScrapeStrategy) Variant() Variant { return s.variant }

// EncodeQuery percent-encodes query for a search URL. Spaces become %20
// and a literal plus becomes %2B.
func EncodeQuery(query string) string {
	return strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
}

// resultsURL builds the results page address for query
func (s *ScrapeStrategy) resultsURL(query string) string {
	encoded := EncodeQuery(query)
	switch s.variant {
	case VariantLocal:
		return strings.Replace(s.provider.URL, QueryPlaceholder, encoded, 1)
	default:
		return GenericSearchURL + encoded
	}
}

// Search runs the scrape pipeline. Only query validation and results page
// retrieval can fail; unreachable result pages are dropped.
func (s *ScrapeStrategy) Search(ctx context.Context, query string, opts Options) (*models.SearchResponse, error) {
	ctx, span := tracer.StartSpan(ctx, "search."+s.variant.String(),
		attribute.String("provider", s.Name()))
	defer span.End()

	resp, err := s.search(ctx, query, opts.withDefaults())
	if err != nil {
		failed := models.NewSearchFailed(err)
		logger.Error("search failed", zap.String("provider", s.Name()), zap.Error(failed))
		tracer.RecordError(span, failed)
		return nil, failed
	}

	span.SetAttributes(attribute.Int("results", len(resp.Results)))
	tracer.SetOK(span)
	return resp, nil
}

func (s *ScrapeStrategy) search(ctx context.Context, query string, opts Options) (*models.SearchResponse, error) {
	cleaned, err := CleanQuery(query)
	if err != nil {
		return nil, err
	}
	if s.renderer == nil {
		return nil, scraper.ErrNoRenderer
	}

	pageURL := s.resultsURL(cleaned)
	sessionID := scraper.NewSessionID("")
	html, err := s.renderer.OpenURLInSession(ctx, sessionID, pageURL)
	s.renderer.CloseSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetch results page: %w", err)
	}

	excluded := append(append([]string{}, s.excludedHosts...), opts.ExcludeDomains...)
	urls := FilterURLs(scraper.Extract(html).URLs, excluded, opts.MaxResults)
	logger.Debug("valid URLs",
		zap.String("provider", s.Name()),
		zap.String("results_page", pageURL),
		zap.Strings("urls", urls))

	return &models.SearchResponse{
		Query:   query,
		Results: s.fetchAll(ctx, urls),
	}, nil
}

// fetchAll fetches urls concurrently and returns the successful results in
// dispatch order
func (s *ScrapeStrategy) fetchAll(ctx context.Context, urls []string) []models.SearchResult {
	fetched := make([]models.SearchResult, len(urls))

	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			r := s.fetcher.Fetch(ctx, u, s.provider.UsingBrowser)
			if !r.Failed {
				r.Content = scraper.TruncateContent(r.Content, s.contentLimit)
			}
			fetched[i] = r
			return nil
		})
	}
	// Fetch is total, so the group never reports an error
	_ = g.Wait()

	results := make([]models.SearchResult, 0, len(fetched))
	for _, r := range fetched {
		if !r.Failed {
			results = append(results, r)
		}
	}
	return results
}
