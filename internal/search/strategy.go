// Package search implements the interchangeable search strategies: results
// page scraping against a generic or site-specific engine, and thin adapters
// over hosted search APIs.
package search

import (
	"context"
	"strings"

	"search-aggregator/internal/models"
)

// DefaultMaxResults caps results when the caller does not
const DefaultMaxResults = 15

// Strategy executes a query and returns a capped set of fetched pages.
// Every error it returns is a *models.SearchFailedError.
type Strategy interface {
	Search(ctx context.Context, query string, opts Options) (*models.SearchResponse, error)
	Name() string
}

// Options are the per-call knobs of a search
type Options struct {
	MaxResults     int
	ExcludeDomains []string
}

func (o Options) withDefaults() Options {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	return o
}

// CleanQuery validates query and strips a directive preamble. When the query
// holds CRLF-separated lines, the second line is the query.
func CleanQuery(query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", models.ErrEmptyQuery
	}
	if parts := strings.Split(query, "\r\n"); len(parts) > 1 {
		query = parts[1]
	}
	if strings.TrimSpace(query) == "" {
		return "", models.ErrEmptyQuery
	}
	return query, nil
}

// FilterURLs drops duplicates and any URL containing one of the excluded
// substrings, then keeps at most limit entries in discovery order.
func FilterURLs(urls, excluded []string, limit int) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))

	for _, u := range urls {
		if len(out) >= limit {
			break
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		if containsAny(u, excluded) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
