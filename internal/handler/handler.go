// Package handler exposes search over HTTP and maps search errors onto
// status codes for every entry point.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"search-aggregator/internal/models"
	"search-aggregator/internal/search"
	"search-aggregator/pkg/logger"
)

var errInvalidMaxResults = errors.New("max_results must be a non-negative integer")

// Searcher runs a query on a named provider
type Searcher interface {
	Search(ctx context.Context, providerID, query string, opts search.Options) (*models.SearchResponse, error)
}

// Request is a parsed search request
type Request struct {
	Provider string
	Query    string
	Options  search.Options
}

// ParseRequest reads q, provider, max_results and exclude from params.
// exclude is a comma-separated list of domains.
func ParseRequest(params url.Values) (Request, error) {
	req := Request{
		Provider: strings.TrimSpace(params.Get("provider")),
		Query:    params.Get("q"),
	}
	if strings.TrimSpace(req.Query) == "" {
		return req, models.ErrEmptyQuery
	}

	if raw := params.Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return req, errInvalidMaxResults
		}
		req.Options.MaxResults = n
	}

	for _, d := range strings.Split(params.Get("exclude"), ",") {
		if d = strings.TrimSpace(d); d != "" {
			req.Options.ExcludeDomains = append(req.Options.ExcludeDomains, d)
		}
	}
	return req, nil
}

// StatusFor maps a search error onto an HTTP status and response body
func StatusFor(err error) (int, models.ErrorResponse) {
	resp := models.ErrorResponse{Error: "Search failed", Details: err.Error()}

	var cfgErr *models.ConfigError
	var timeoutErr *models.TimeoutError
	switch {
	case errors.Is(err, models.ErrEmptyQuery):
		resp.Error = "Missing \"q\" query parameter"
		return http.StatusBadRequest, resp
	case errors.Is(err, errInvalidMaxResults):
		resp.Error = "Invalid \"max_results\" query parameter"
		return http.StatusBadRequest, resp
	case errors.As(err, &cfgErr):
		resp.Error = "Invalid provider configuration"
		return http.StatusBadRequest, resp
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		resp.Error = "Search took too long"
		return http.StatusGatewayTimeout, resp
	default:
		return http.StatusInternalServerError, resp
	}
}

// SearchHandler serves GET /search and GET /health
type SearchHandler struct {
	searcher Searcher
	timeout  time.Duration
}

// NewSearchHandler creates a handler bounding each search by timeout.
// A zero timeout leaves the request context as is.
func NewSearchHandler(searcher Searcher, timeout time.Duration) *SearchHandler {
	return &SearchHandler{searcher: searcher, timeout: timeout}
}

func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method not allowed"})
		return
	}

	switch r.URL.Path {
	case "/health":
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case "/search", "/":
		h.handleSearch(w, r)
	default:
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
	}
}

func (h *SearchHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, err := ParseRequest(r.URL.Query())
	if err != nil {
		status, body := StatusFor(err)
		writeJSON(w, status, body)
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	resp, err := h.searcher.Search(ctx, req.Provider, req.Query, req.Options)
	if err != nil {
		status, body := StatusFor(err)
		logger.Warn("search request failed",
			zap.String("provider", req.Provider),
			zap.Int("status", status),
			zap.Error(err))
		writeJSON(w, status, body)
		return
	}

	logger.Info("search request completed",
		zap.String("provider", req.Provider),
		zap.Int("results", len(resp.Results)),
		zap.Duration("duration", time.Since(start)))
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}
