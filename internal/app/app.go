// Package app wires configuration, logging, tracing, the render backend and
// the search manager for the entry points.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"search-aggregator/internal/config"
	"search-aggregator/internal/scraper"
	"search-aggregator/internal/search"
	"search-aggregator/internal/tracer"
	"search-aggregator/pkg/logger"
)

// App owns the long-lived collaborators of one process
type App struct {
	Config  *config.Config
	Manager *search.Manager

	pool            *scraper.BrowserPool
	shutdownTracing func(context.Context) error
}

// New loads cfgFile and builds the application. The browser is not started
// until a strategy first renders a page.
func New(ctx context.Context, cfgFile string) (*App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return FromConfig(ctx, cfg)
}

// FromConfig builds the application from an already loaded config
func FromConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	shutdown, err := tracer.Setup(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	scrapeCfg := config.DefaultScrapeConfig()
	pool := scraper.NewBrowserPool(cfg.Browser, scrapeCfg.BrowserUA)

	manager := search.NewManager(cfg, search.Deps{
		HTTPClient: scraper.NewHTTPClient(scrapeCfg),
		Renderer:   pool,
	})

	logger.Info("application initialized",
		zap.String("default_provider", cfg.Search.DefaultProvider),
		zap.Bool("remote_browser", cfg.Browser.RemoteURL != ""),
		zap.Bool("tracing", cfg.Tracing.Enabled),
	)

	return &App{
		Config:          cfg,
		Manager:         manager,
		pool:            pool,
		shutdownTracing: shutdown,
	}, nil
}

// Close shuts the browser down and flushes traces and logs
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	logger.Sync()
	return errors.Join(errs...)
}
