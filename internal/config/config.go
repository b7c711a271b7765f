package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DirectUserAgent is the fixed desktop user agent sent by direct page fetches.
const DirectUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ProviderConfig identifies a search strategy variant and its tunables.
// It is owned by the caller and treated as read-only.
type ProviderConfig struct {
	ID           string `mapstructure:"id" json:"id"`
	Name         string `mapstructure:"name" json:"name,omitempty"`
	URL          string `mapstructure:"url" json:"url,omitempty"`
	APIKey       string `mapstructure:"api_key" json:"-"`
	UsingBrowser bool   `mapstructure:"using_browser" json:"usingBrowser"`
	// ContentLimit caps result content in characters. -1 disables truncation,
	// 0 selects the variant default.
	ContentLimit int `mapstructure:"content_limit" json:"contentLimit"`
}

// ScrapeConfig contains general scraping configuration
type ScrapeConfig struct {
	DirectUserAgent string
	BrowserUA       string
	Timeout         time.Duration
	SizeLimitBytes  int
	MaxRedirects    int
}

// BrowserConfig configures the chromedp render backend
type BrowserConfig struct {
	// RemoteURL is a CDP websocket endpoint. Empty launches a local Chrome.
	RemoteURL    string `mapstructure:"remote_url"`
	Headless     bool   `mapstructure:"headless"`
	WindowWidth  int    `mapstructure:"window_width"`
	WindowHeight int    `mapstructure:"window_height"`
	BlockAds     bool   `mapstructure:"block_ads"`
	// LoadTimeout bounds a single navigation. Zero means no bound inside the pool.
	LoadTimeout time.Duration `mapstructure:"load_timeout"`
}

// DefaultScrapeConfig returns the default scraping configuration
func DefaultScrapeConfig() ScrapeConfig {
	chromeMajor := 91
	if env := os.Getenv("CHROME_MAJOR"); env != "" {
		if parsed, err := strconv.Atoi(env); err == nil {
			chromeMajor = parsed
		}
	}

	browserUA := os.Getenv("SCRAPE_USER_AGENT")
	if browserUA == "" {
		browserUA = fmt.Sprintf("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.4472.124 Safari/537.36", chromeMajor)
	}

	return ScrapeConfig{
		DirectUserAgent: DirectUserAgent,
		BrowserUA:       browserUA,
		Timeout:         30 * time.Second,
		SizeLimitBytes:  6_000_000,
		MaxRedirects:    5,
	}
}

// DefaultBrowserConfig returns the default render backend configuration
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless:     true,
		WindowWidth:  800,
		WindowHeight: 600,
		BlockAds:     true,
	}
}
