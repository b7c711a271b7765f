package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"

	"search-aggregator/internal/config"
	"search-aggregator/internal/models"
)

// HTTPClient performs direct page fetches with a spoofed desktop user agent
type HTTPClient struct {
	client *http.Client
	config config.ScrapeConfig
}

func NewHTTPClient(cfg config.ScrapeConfig) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DirectTimeout
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 5
	}
	if cfg.SizeLimitBytes <= 0 {
		cfg.SizeLimitBytes = 6_000_000
	}

	// Configure HTTP client with connection pooling
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return &HTTPClient{
		client: client,
		config: cfg,
	}
}

// setRequestHeaders sets browser-like headers on the request
func (h *HTTPClient) setRequestHeaders(req *http.Request) {
	req.Header.Set("User-Agent", h.config.DirectUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

// FetchHTML fetches a page body. The request is abandoned once the
// configured timeout elapses. There are no retries.
func (h *HTTPClient) FetchHTML(ctx context.Context, targetURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	h.setRequestHeaders(req)

	resp, err := h.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &models.TimeoutError{Operation: "fetch " + targetURL, Timeout: h.config.Timeout.String(), Err: err}
		}
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &models.HTTPError{StatusCode: resp.StatusCode, URL: targetURL}
	}

	var reader io.Reader = io.LimitReader(resp.Body, int64(h.config.SizeLimitBytes))
	// Decode legacy charsets (GBK, Shift_JIS, ...) to UTF-8
	if decoded, err := charset.NewReader(reader, resp.Header.Get("Content-Type")); err == nil {
		reader = decoded
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &models.TimeoutError{Operation: "read " + targetURL, Timeout: h.config.Timeout.String(), Err: err}
		}
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	return string(body), nil
}
