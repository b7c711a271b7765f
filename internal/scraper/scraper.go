// Package scraper retrieves and normalizes web pages for search results.
// Pages are fetched either directly over HTTP or through a rendering
// backend, extracted with goquery and converted to markdown.
package scraper

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"search-aggregator/internal/models"
	"search-aggregator/internal/tracer"
	"search-aggregator/pkg/logger"
)

// ErrNoRenderer is returned when a page must be rendered but no render
// backend was configured.
var ErrNoRenderer = errors.New("no render backend configured")

var errCloudflare = errors.New("blocked by Cloudflare")

// Renderer loads a URL in an isolated browsing session and returns the
// rendered outer HTML. Sessions are reused by id until closed.
type Renderer interface {
	OpenURLInSession(ctx context.Context, sessionID, url string) (string, error)
	CloseSession(sessionID string)
}

// NewSessionID returns a fresh session id for the render backend
func NewSessionID(prefix string) string {
	return prefix + ulid.Make().String()
}

// PageFetcher retrieves a single page and normalizes it. Fetch is total:
// failures come back as a result flagged Failed, never as an error.
type PageFetcher struct {
	httpClient *HTTPClient
	renderer   Renderer
	normalizer *Normalizer
}

func NewPageFetcher(httpClient *HTTPClient, renderer Renderer, normalizer *Normalizer) *PageFetcher {
	return &PageFetcher{
		httpClient: httpClient,
		renderer:   renderer,
		normalizer: normalizer,
	}
}

// Fetch retrieves targetURL directly or through the renderer
func (f *PageFetcher) Fetch(ctx context.Context, targetURL string, useRenderer bool) models.SearchResult {
	mode := "direct"
	if useRenderer {
		mode = "render"
	}
	ctx, span := tracer.StartSpan(ctx, "fetch.page",
		attribute.String("url", targetURL),
		attribute.String("mode", mode),
		attribute.String("normalize", f.normalizer.Mode().String()),
	)
	defer span.End()

	logger.Debug("fetching content", zap.String("url", targetURL), zap.String("mode", mode))

	html, err := f.retrieve(ctx, targetURL, useRenderer)
	if err != nil {
		logger.Warn("failed to fetch page", zap.String("url", targetURL), zap.Error(err))
		tracer.RecordError(span, err)
		return failedResult(targetURL, DirectFailureContent)
	}

	title, content := f.normalizer.Normalize(html, targetURL)
	if title == "" {
		title = targetURL
	}
	if content == "" {
		empty := DirectFailureContent
		if useRenderer {
			empty = RenderEmptyContent
		}
		span.SetAttributes(attribute.Bool("empty", true))
		return models.SearchResult{Title: title, URL: targetURL, Content: empty, Failed: true}
	}

	q := ScorePage(content, html)
	span.SetAttributes(
		attribute.Int("quality.score", q.Score),
		attribute.Int("quality.words", q.Words),
	)
	logger.Debug("page normalized",
		zap.String("url", targetURL),
		zap.Int("quality", q.Score),
		zap.Int("words", q.Words))

	tracer.SetOK(span)
	return models.SearchResult{Title: title, URL: targetURL, Content: content}
}

func (f *PageFetcher) retrieve(ctx context.Context, targetURL string, useRenderer bool) (string, error) {
	if !useRenderer {
		html, err := f.httpClient.FetchHTML(ctx, targetURL)
		if err != nil {
			return "", err
		}
		if LooksLikeCFBlock(html) {
			return "", &models.ContentExtractionError{Step: "cloudflare challenge", Err: errCloudflare}
		}
		return html, nil
	}

	if f.renderer == nil {
		return "", ErrNoRenderer
	}
	sessionID := NewSessionID(SessionIDPrefix)
	defer f.renderer.CloseSession(sessionID)
	return f.renderer.OpenURLInSession(ctx, sessionID, targetURL)
}

func failedResult(targetURL, content string) models.SearchResult {
	return models.SearchResult{Title: targetURL, URL: targetURL, Content: content, Failed: true}
}
