// Package scraper provides constants used throughout the scraping functionality.
package scraper

import "time"

// Timeout constants
const (
	DirectTimeout    = 30 * time.Second
	SnapshotTimeout  = 5 * time.Second
	StartupTimeout   = 30 * time.Second
	SessionIDPrefix  = "search-window-"
	TruncationMarker = "..."
)

// Sentinel content values stored on failed fetches. The two retrieval modes
// keep their historical wording; callers filter on SearchResult.Failed.
const (
	DirectFailureContent = "Error fetching content"
	RenderEmptyContent   = "no content"
)

// Text processing constants
const (
	DoubleNewline = "\n\n"
	TripleNewline = "\n\n\n"
)

// Blocked domains for browser requests
var BlockedDomains = []string{
	"doubleclick",
	"googlesyndication",
	"google-analytics",
	"facebook.com/tr",
	"taboola",
	"outbrain",
	"scorecardresearch",
	"chartbeat",
	"amazon-adsystem",
}

// Cloudflare detection patterns. Only markers specific to Cloudflare's
// interstitial and block pages.
var CloudflarePatterns = []string{
	"cloudflare ray id",
	"performance & security by cloudflare",
	"<title>just a moment...</title>",
	"cf-browser-verification",
	"/cdn-cgi/challenge-platform/",
	"cf_chl_opt",
}
