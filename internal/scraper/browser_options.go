// Package scraper provides browser configuration options for Chrome automation.
package scraper

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"

	"search-aggregator/internal/config"
)

// BuildChromeOptions creates Chrome allocator options for a local browser
func BuildChromeOptions(cfg config.BrowserConfig, userAgent string) []chromedp.ExecAllocatorOption {
	// Copy the defaults so the package-level slice is never mutated
	chromeOpts := make([]chromedp.ExecAllocatorOption, len(chromedp.DefaultExecAllocatorOptions))
	copy(chromeOpts, chromedp.DefaultExecAllocatorOptions[:])

	chromeOpts = append(chromeOpts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-features", "VizDisplayCompositor"),
		chromedp.Flag("disable-extensions", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)

	if userAgent != "" {
		chromeOpts = append(chromeOpts, chromedp.UserAgent(userAgent))
	}

	return chromeOpts
}

// RequestBlockingScript returns JavaScript that rejects fetch/XHR calls to
// ad and tracker hosts. It is installed before any page script runs.
func RequestBlockingScript(domains []string) string {
	quoted := make([]string, len(domains))
	for i, d := range domains {
		quoted[i] = fmt.Sprintf("%q", d)
	}

	return `(() => {
		const blockedDomains = [` + strings.Join(quoted, ", ") + `];
		const isBlocked = (url) => typeof url === 'string' && blockedDomains.some(d => url.includes(d));

		const originalFetch = window.fetch;
		window.fetch = function(...args) {
			if (isBlocked(args[0])) {
				return Promise.reject(new Error('Blocked'));
			}
			return originalFetch.apply(this, args);
		};

		const originalOpen = XMLHttpRequest.prototype.open;
		XMLHttpRequest.prototype.open = function(method, url, ...rest) {
			if (isBlocked(url)) {
				throw new Error('Blocked');
			}
			return originalOpen.apply(this, [method, url, ...rest]);
		};

		Object.defineProperty(navigator, 'webdriver', { get: () => false });
	})();`
}
