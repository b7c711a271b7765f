package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"search-aggregator/internal/config"
	"search-aggregator/internal/models"
)

func TestSearxngStrategy(t *testing.T) {
	var gotQuery, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotFormat = r.URL.Query().Get("format")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"title":" First ","url":"https://a.example.com","content":"alpha"},
			{"title":"Dup","url":"https://a.example.com","content":"again"},
			{"title":"","url":"https://skip.example.org/x","content":"skip"},
			{"title":"","url":"https://b.example.com","content":"beta beta beta"}
		]}`))
	}))
	defer srv.Close()

	s, err := NewSearxngStrategy(config.ProviderConfig{ID: "searxng", URL: srv.URL, ContentLimit: 4}, srv.Client())
	require.NoError(t, err)

	resp, err := s.Search(context.Background(), "hello world", Options{ExcludeDomains: []string{"skip.example.org"}})
	require.NoError(t, err)

	assert.Equal(t, "hello world", gotQuery)
	assert.Equal(t, "json", gotFormat)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, models.SearchResult{Title: "First", URL: "https://a.example.com", Content: "alph..."}, resp.Results[0])
	assert.Equal(t, "https://b.example.com", resp.Results[1].Title)
}

func TestTavilyStrategy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-key", r.Header.Get("Authorization"))

		var body tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "query", body.Query)
		assert.Equal(t, 1, body.MaxResults)
		assert.Equal(t, []string{"x.com"}, body.ExcludeDomains)

		_, _ = w.Write([]byte(`{"results":[
			{"title":"One","url":"https://one.example.com","content":"1"},
			{"title":"Two","url":"https://two.example.com","content":"2"}
		]}`))
	}))
	defer srv.Close()

	s, err := NewTavilyStrategy(config.ProviderConfig{ID: "tavily", URL: srv.URL + "/", APIKey: "tvly-key"}, srv.Client())
	require.NoError(t, err)

	resp, err := s.Search(context.Background(), "query", Options{MaxResults: 1, ExcludeDomains: []string{"x.com"}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "One", resp.Results[0].Title)
}

func TestExaStrategy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "exa-key", r.Header.Get("x-api-key"))

		var body exaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.Contents.Text)
		assert.Equal(t, DefaultMaxResults, body.NumResults)

		_, _ = w.Write([]byte(`{"results":[{"title":"Doc","url":"https://doc.example.com","text":"full text"}]}`))
	}))
	defer srv.Close()

	s, err := NewExaStrategy(config.ProviderConfig{ID: "exa", URL: srv.URL, APIKey: "exa-key"}, srv.Client())
	require.NoError(t, err)

	resp, err := s.Search(context.Background(), "docs", Options{})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "full text", resp.Results[0].Content)
}

func TestAPIStrategy_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "broken" {
			_, _ = w.Write([]byte(`not json`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s, err := NewSearxngStrategy(config.ProviderConfig{ID: "searxng", URL: srv.URL}, srv.Client())
	require.NoError(t, err)

	t.Run("status", func(t *testing.T) {
		_, err := s.Search(context.Background(), "denied", Options{})
		var failed *models.SearchFailedError
		require.True(t, errors.As(err, &failed))
		var httpErr *models.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	})

	t.Run("decode", func(t *testing.T) {
		_, err := s.Search(context.Background(), "broken", Options{})
		var failed *models.SearchFailedError
		require.True(t, errors.As(err, &failed))
		assert.Contains(t, failed.Reason, "parse response")
	})

	t.Run("blank query", func(t *testing.T) {
		_, err := s.Search(context.Background(), "  ", Options{})
		assert.ErrorIs(t, err, models.ErrEmptyQuery)
	})
}

func TestAPIStrategy_MissingURL(t *testing.T) {
	_, err := NewTavilyStrategy(config.ProviderConfig{ID: "tavily"}, nil)
	var cfgErr *models.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "url", cfgErr.Field)
}
