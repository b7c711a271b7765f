package search

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"search-aggregator/internal/config"
	"search-aggregator/internal/scraper"
	"search-aggregator/pkg/logger"
)

// Provider ids with a dedicated strategy. Anything else gets the generic
// scrape variant.
const (
	ProviderTavily          = "tavily"
	ProviderSearxng         = "searxng"
	ProviderExa             = "exa"
	ProviderLocalGoogle     = "local-google"
	ProviderLocalBing       = "local-bing"
	ProviderLocalBaidu      = "local-baidu"
	ProviderLocalDuckDuckGo = "local-duckduckgo"
)

// Deps are the shared collaborators strategies are built from
type Deps struct {
	HTTPClient *scraper.HTTPClient
	Renderer   scraper.Renderer
	APIClient  *http.Client
}

func (d Deps) httpClient() *scraper.HTTPClient {
	if d.HTTPClient != nil {
		return d.HTTPClient
	}
	return scraper.NewHTTPClient(config.DefaultScrapeConfig())
}

// HasDedicatedStrategy reports whether id maps to something other than the
// generic scrape variant
func HasDedicatedStrategy(id string) bool {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case ProviderTavily, ProviderSearxng, ProviderExa,
		ProviderLocalGoogle, ProviderLocalBing, ProviderLocalBaidu, ProviderLocalDuckDuckGo:
		return true
	}
	return false
}

// Create maps a provider configuration onto its strategy
func Create(p config.ProviderConfig, deps Deps) (Strategy, error) {
	id := strings.ToLower(strings.TrimSpace(p.ID))
	logger.Debug("creating search strategy", zap.String("provider", id))

	switch id {
	case ProviderTavily:
		return NewTavilyStrategy(p, deps.APIClient)
	case ProviderSearxng:
		return NewSearxngStrategy(p, deps.APIClient)
	case ProviderExa:
		return NewExaStrategy(p, deps.APIClient)
	case ProviderLocalGoogle, ProviderLocalBing, ProviderLocalBaidu, ProviderLocalDuckDuckGo:
		return NewLocalStrategy(p, deps)
	default:
		return NewGenericStrategy(p, deps), nil
	}
}
