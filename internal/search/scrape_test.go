package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"search-aggregator/internal/config"
	"search-aggregator/internal/models"
	"search-aggregator/internal/scraper"
)

// fakeRenderer serves pages[url] when set and the results page for every
// other URL. It records sessions.
type fakeRenderer struct {
	mu          sync.Mutex
	resultsHTML string
	pages       map[string]string
	err         error
	urls        []string
	open        map[string]bool
}

func newFakeRenderer(html string) *fakeRenderer {
	return &fakeRenderer{resultsHTML: html, open: map[string]bool{}}
}

func (f *fakeRenderer) OpenURLInSession(ctx context.Context, sessionID, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	f.open[sessionID] = true
	if f.err != nil {
		return "", f.err
	}
	if html, ok := f.pages[url]; ok {
		return html, nil
	}
	return f.resultsHTML, nil
}

func (f *fakeRenderer) CloseSession(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.open, sessionID)
}

func (f *fakeRenderer) openSessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.open)
}

func resultsPage(links ...string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>results</title></head><body>")
	for _, l := range links {
		fmt.Fprintf(&b, `<a href="%s">link</a>`, l)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func articleHTML(title, body string) string {
	return fmt.Sprintf("<html><head><title>%s</title></head><body><h1>%s</h1><p>%s</p></body></html>", title, title, body)
}

// origin serves articles by path and counts hits. /slow never answers
// before the client gives up, /missing returns 404.
type origin struct {
	*httptest.Server
	hits atomic.Int32
}

func newOrigin(t *testing.T) *origin {
	t.Helper()
	o := &origin{}
	o.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o.hits.Add(1)
		switch r.URL.Path {
		case "/slow":
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		case "/missing":
			http.NotFound(w, r)
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/")
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articleHTML("Page "+name, "Content of page "+name+" with some words."))
	}))
	t.Cleanup(o.Close)
	return o
}

func testDeps(r scraper.Renderer) Deps {
	cfg := config.DefaultScrapeConfig()
	cfg.Timeout = 300 * time.Millisecond
	return Deps{HTTPClient: scraper.NewHTTPClient(cfg), Renderer: r}
}

func TestScrapeStrategy_BlankQuery(t *testing.T) {
	r := newFakeRenderer("")
	s := NewGenericStrategy(config.ProviderConfig{ID: "default"}, testDeps(r))

	_, err := s.Search(context.Background(), "   ", Options{})
	require.Error(t, err)

	var failed *models.SearchFailedError
	assert.True(t, errors.As(err, &failed))
	assert.ErrorIs(t, err, models.ErrEmptyQuery)
	assert.Empty(t, r.urls, "no page should be rendered for a blank query")
}

func TestScrapeStrategy_ExcludesEngineLinks(t *testing.T) {
	o := newOrigin(t)
	r := newFakeRenderer(resultsPage(
		"https://www.google.com/preferences",
		o.URL+"/a",
		o.URL+"/b",
	))
	s := NewGenericStrategy(config.ProviderConfig{ID: "default"}, testDeps(r))

	resp, err := s.Search(context.Background(), "golang", Options{MaxResults: 15})
	require.NoError(t, err)

	assert.Equal(t, int32(2), o.hits.Load())
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "golang", resp.Query)
	assert.Equal(t, o.URL+"/a", resp.Results[0].URL)
	assert.Equal(t, o.URL+"/b", resp.Results[1].URL)
	assert.Equal(t, "Page a", resp.Results[0].Title)
	assert.Contains(t, resp.Results[0].Content, "Content of page a")
}

func TestScrapeStrategy_DropsTimedOutFetch(t *testing.T) {
	o := newOrigin(t)
	r := newFakeRenderer(resultsPage(o.URL+"/a", o.URL+"/slow", o.URL+"/b"))
	s := NewGenericStrategy(config.ProviderConfig{ID: "default"}, testDeps(r))

	resp, err := s.Search(context.Background(), "golang", Options{})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	for _, res := range resp.Results {
		assert.NotContains(t, res.URL, "/slow")
		assert.NotEqual(t, scraper.DirectFailureContent, res.Content)
	}
}

func TestScrapeStrategy_AllFetchesFail(t *testing.T) {
	o := newOrigin(t)
	r := newFakeRenderer(resultsPage(o.URL+"/missing", o.URL+"/missing?x=1"))
	s := NewGenericStrategy(config.ProviderConfig{ID: "default"}, testDeps(r))

	resp, err := s.Search(context.Background(), "golang", Options{})
	require.NoError(t, err)
	assert.Equal(t, "golang", resp.Query)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
}

func TestScrapeStrategy_ContentLimit(t *testing.T) {
	o := newOrigin(t)
	r := newFakeRenderer(resultsPage(o.URL + "/a"))
	s := NewGenericStrategy(config.ProviderConfig{ID: "default", ContentLimit: 10}, testDeps(r))

	resp, err := s.Search(context.Background(), "golang", Options{})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	content := resp.Results[0].Content
	assert.True(t, strings.HasSuffix(content, scraper.TruncationMarker))
	assert.Equal(t, 10+len(scraper.TruncationMarker), len([]rune(content)))
}

func TestScrapeStrategy_MaxResultsAndExclusions(t *testing.T) {
	o := newOrigin(t)
	r := newFakeRenderer(resultsPage(
		o.URL+"/a",
		o.URL+"/a",
		"https://blocked.example.com/x",
		o.URL+"/b",
		o.URL+"/c",
		o.URL+"/d",
	))
	s := NewGenericStrategy(config.ProviderConfig{ID: "default"}, testDeps(r))

	resp, err := s.Search(context.Background(), "golang", Options{
		MaxResults:     2,
		ExcludeDomains: []string{"blocked.example.com"},
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, o.URL+"/a", resp.Results[0].URL)
	assert.Equal(t, o.URL+"/b", resp.Results[1].URL)
	assert.Equal(t, int32(2), o.hits.Load())
}

func TestScrapeStrategy_ResultsPageError(t *testing.T) {
	r := newFakeRenderer("")
	r.err = errors.New("browser crashed")
	s := NewGenericStrategy(config.ProviderConfig{ID: "default"}, testDeps(r))

	_, err := s.Search(context.Background(), "golang", Options{})
	require.Error(t, err)

	var failed *models.SearchFailedError
	require.True(t, errors.As(err, &failed))
	assert.Contains(t, failed.Reason, "browser crashed")
	assert.Zero(t, r.openSessions())
}

func TestScrapeStrategy_NoRenderer(t *testing.T) {
	s := NewGenericStrategy(config.ProviderConfig{ID: "default"}, Deps{})

	_, err := s.Search(context.Background(), "golang", Options{})
	var failed *models.SearchFailedError
	require.True(t, errors.As(err, &failed))
	assert.ErrorIs(t, err, scraper.ErrNoRenderer)
}

func TestScrapeStrategy_QueryPreamble(t *testing.T) {
	r := newFakeRenderer(resultsPage())
	s := NewGenericStrategy(config.ProviderConfig{ID: "default"}, testDeps(r))

	resp, err := s.Search(context.Background(), "directive\r\ngo modules", Options{})
	require.NoError(t, err)

	require.Len(t, r.urls, 1)
	assert.Equal(t, GenericSearchURL+"go%20modules", r.urls[0])
	assert.Equal(t, "directive\r\ngo modules", resp.Query)
}

func TestEncodeQuery(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"go modules", "go%20modules"},
		{"c++ & go", "c%2B%2B%20%26%20go"},
		{"a+b", "a%2Bb"},
		{"百度", "%E7%99%BE%E5%BA%A6"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeQuery(tt.query))
		})
	}
}

func TestScrapeStrategy_ClosesSessions(t *testing.T) {
	o := newOrigin(t)
	r := newFakeRenderer(resultsPage(o.URL+"/a", o.URL+"/b"))
	s := NewGenericStrategy(config.ProviderConfig{ID: "default", UsingBrowser: true}, testDeps(r))

	_, err := s.Search(context.Background(), "golang", Options{})
	require.NoError(t, err)

	// results page plus one session per result page
	assert.Len(t, r.urls, 3)
	assert.Zero(t, r.openSessions())
}

func TestScrapeStrategy_RenderedEmptyPagesDropped(t *testing.T) {
	r := newFakeRenderer(resultsPage("https://a.example.com/post", "https://b.example.com/post"))
	r.pages = map[string]string{
		"https://a.example.com/post": "<html><body></body></html>",
		"https://b.example.com/post": "<html><head></head><body>   </body></html>",
	}
	s := NewGenericStrategy(config.ProviderConfig{ID: "default", UsingBrowser: true}, testDeps(r))

	resp, err := s.Search(context.Background(), "golang", Options{})
	require.NoError(t, err)

	assert.Len(t, r.urls, 3)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	assert.Zero(t, r.openSessions())
}

func TestScrapeStrategy_RenderedPagesMixed(t *testing.T) {
	r := newFakeRenderer(resultsPage("https://a.example.com/post", "https://b.example.com/post"))
	r.pages = map[string]string{
		"https://a.example.com/post": "<html><body></body></html>",
		"https://b.example.com/post": articleHTML("Rendered B", "Rendered body of page b."),
	}
	s := NewGenericStrategy(config.ProviderConfig{ID: "default", UsingBrowser: true}, testDeps(r))

	resp, err := s.Search(context.Background(), "golang", Options{})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://b.example.com/post", resp.Results[0].URL)
	assert.Equal(t, "Rendered B", resp.Results[0].Title)
	assert.NotEqual(t, scraper.RenderEmptyContent, resp.Results[0].Content)
}

func TestLocalStrategy_Config(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"missing url", ""},
		{"no host", "/search?q=%s"},
		{"no placeholder", "https://www.bing.com/search"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLocalStrategy(config.ProviderConfig{ID: "local-bing", URL: tt.url}, Deps{})
			var cfgErr *models.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, "local-bing", cfgErr.Provider)
			assert.Equal(t, "url", cfgErr.Field)
		})
	}
}

func TestLocalStrategy_ResultsURLAndHostExclusion(t *testing.T) {
	o := newOrigin(t)
	r := newFakeRenderer(resultsPage(
		"https://cn.bing.com/images?q=x",
		o.URL+"/a",
	))
	s, err := NewLocalStrategy(config.ProviderConfig{
		ID:  "local-bing",
		URL: "https://cn.bing.com/search?q=%s&ensearch=1",
	}, testDeps(r))
	require.NoError(t, err)
	assert.Equal(t, VariantLocal, s.Variant())

	resp, err := s.Search(context.Background(), "go lang", Options{})
	require.NoError(t, err)

	require.NotEmpty(t, r.urls)
	assert.Equal(t, "https://cn.bing.com/search?q=go%20lang&ensearch=1", r.urls[0])
	assert.Equal(t, int32(1), o.hits.Load())

	require.Len(t, resp.Results, 1)
	assert.Equal(t, o.URL+"/a", resp.Results[0].URL)
	assert.Equal(t, "Page a", resp.Results[0].Title)
	assert.Contains(t, resp.Results[0].Content, "Content of page a")
}

func TestLocalStrategy_DefaultContentLimitIsUnbounded(t *testing.T) {
	s, err := NewLocalStrategy(config.ProviderConfig{ID: "local-google", URL: "https://www.google.com/search?q=%s"}, Deps{})
	require.NoError(t, err)
	assert.Equal(t, -1, s.contentLimit)

	g := NewGenericStrategy(config.ProviderConfig{ID: "default"}, Deps{})
	assert.Equal(t, DefaultContentLimit, g.contentLimit)
}
