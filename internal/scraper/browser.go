package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"search-aggregator/internal/config"
	"search-aggregator/pkg/logger"
)

var errPoolClosed = errors.New("browser pool is closed")

// browserSession is one isolated tab. Its mutex serializes navigations.
type browserSession struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// BrowserPool is the chromedp render backend. Every session id maps to its
// own tab. The browser starts lazily on first use and lives until Close.
//
// mu only guards the fields below it and is never held across a CDP call.
// startMu serializes browser startup.
type BrowserPool struct {
	cfg       config.BrowserConfig
	userAgent string
	launch    func() (context.Context, context.CancelFunc, error)

	startMu sync.Mutex

	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
	sessions      map[string]*browserSession
	closed        bool
}

func NewBrowserPool(cfg config.BrowserConfig, userAgent string) *BrowserPool {
	if cfg.WindowWidth <= 0 || cfg.WindowHeight <= 0 {
		def := config.DefaultBrowserConfig()
		cfg.WindowWidth, cfg.WindowHeight = def.WindowWidth, def.WindowHeight
	}
	p := &BrowserPool{
		cfg:       cfg,
		userAgent: userAgent,
		sessions:  make(map[string]*browserSession),
	}
	p.launch = p.launchBrowser
	return p
}

// launchBrowser launches or connects to the browser. The returned cancel
// tears down both the browser and its allocator.
func (p *BrowserPool) launchBrowser() (context.Context, context.CancelFunc, error) {
	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if p.cfg.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), p.cfg.RemoteURL)
		logger.Info("connecting to remote browser", zap.String("url", p.cfg.RemoteURL))
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), BuildChromeOptions(p.cfg, p.userAgent)...)
		logger.Info("launching local browser", zap.Bool("headless", p.cfg.Headless))
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		browserCancel()
		allocCancel()
	}

	// The first Run binds the browser to browserCtx, so it must not be
	// wrapped in a timeout context.
	startDone := make(chan error, 1)
	go func() { startDone <- chromedp.Run(browserCtx) }()

	var err error
	select {
	case err = <-startDone:
	case <-time.After(StartupTimeout):
		err = fmt.Errorf("timed out after %v", StartupTimeout)
	}
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("start browser: %w", err)
	}
	return browserCtx, cancel, nil
}

// browser returns the running browser context, starting it on first use
func (p *BrowserPool) browser() (context.Context, error) {
	p.startMu.Lock()
	defer p.startMu.Unlock()

	p.mu.Lock()
	ctx, closed := p.browserCtx, p.closed
	p.mu.Unlock()
	if closed {
		return nil, errPoolClosed
	}
	if ctx != nil {
		return ctx, nil
	}

	ctx, cancel, err := p.launch()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		cancel()
		return nil, errPoolClosed
	}
	p.browserCtx, p.browserCancel = ctx, cancel
	return ctx, nil
}

// session returns the tab for id, opening it if needed
func (p *BrowserPool) session(id string) (*browserSession, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errPoolClosed
	}
	if s, ok := p.sessions[id]; ok {
		p.mu.Unlock()
		return s, nil
	}
	p.mu.Unlock()

	browserCtx, err := p.browser()
	if err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(browserCtx)
	if err := chromedp.Run(tabCtx, p.sessionSetup()); err != nil {
		cancel()
		return nil, fmt.Errorf("open session %s: %w", id, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		cancel()
		return nil, errPoolClosed
	}
	// another caller opened the same id meanwhile
	if s, ok := p.sessions[id]; ok {
		cancel()
		return s, nil
	}
	s := &browserSession{ctx: tabCtx, cancel: cancel}
	p.sessions[id] = s
	return s, nil
}

// sessionSetup applies the desktop user agent and the ad blocker to a new tab
func (p *BrowserPool) sessionSetup() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if p.userAgent != "" {
			if err := emulation.SetUserAgentOverride(p.userAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user agent: %w", err)
			}
		}
		if p.cfg.BlockAds {
			if _, err := page.AddScriptToEvaluateOnNewDocument(RequestBlockingScript(BlockedDomains)).Do(ctx); err != nil {
				return fmt.Errorf("install request blocking: %w", err)
			}
		}
		return nil
	})
}

// OpenURLInSession loads targetURL in the session's tab and returns the
// rendered outer HTML. When the load fails after the page started
// rendering, the partial document is returned instead of an error.
func (p *BrowserPool) OpenURLInSession(ctx context.Context, sessionID, targetURL string) (string, error) {
	s, err := p.session(sessionID)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var runCtx context.Context
	var cancel context.CancelFunc
	if p.cfg.LoadTimeout > 0 {
		runCtx, cancel = context.WithTimeout(s.ctx, p.cfg.LoadTimeout)
	} else {
		runCtx, cancel = context.WithCancel(s.ctx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err = chromedp.Run(runCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err == nil {
		return html, nil
	}
	if ctx.Err() != nil {
		return "", fmt.Errorf("load %s: %w", targetURL, ctx.Err())
	}

	if partial, ok := p.snapshot(s); ok {
		logger.Debug("returning partially loaded page",
			zap.String("url", targetURL),
			zap.Error(err))
		return partial, nil
	}
	return "", fmt.Errorf("load %s: %w", targetURL, err)
}

// snapshot grabs whatever document the tab currently shows
func (p *BrowserPool) snapshot(s *browserSession) (string, bool) {
	ctx, cancel := context.WithTimeout(s.ctx, SnapshotTimeout)
	defer cancel()

	var html, location string
	if err := chromedp.Run(ctx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", false
	}
	if location == "" || location == "about:blank" || html == "" {
		return "", false
	}
	return html, true
}

// CloseSession closes the tab for sessionID. Unknown ids are ignored.
func (p *BrowserPool) CloseSession(sessionID string) {
	p.mu.Lock()
	s, ok := p.sessions[sessionID]
	delete(p.sessions, sessionID)
	p.mu.Unlock()

	if ok {
		s.cancel()
	}
}

// SessionCount returns the number of open sessions
func (p *BrowserPool) SessionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// Close releases every tab and the browser itself
func (p *BrowserPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for id, s := range p.sessions {
		s.cancel()
		delete(p.sessions, id)
	}
	if p.browserCancel != nil {
		p.browserCancel()
	}
	return nil
}
