package search

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"search-aggregator/internal/config"
	"search-aggregator/internal/models"
	"search-aggregator/pkg/logger"
)

// Manager resolves provider ids to strategies and runs searches on them.
// Strategies for registered providers are built on first use and reused
// afterwards. Every unregistered id shares one generic strategy, so
// caller-supplied ids never grow the cache.
type Manager struct {
	cfg  *config.Config
	deps Deps

	mu         sync.Mutex
	strategies map[string]Strategy
	generic    Strategy
}

// NewManager creates a new search manager
func NewManager(cfg *config.Config, deps Deps) *Manager {
	logger.Info("search manager initialized",
		zap.String("default_provider", cfg.Search.DefaultProvider),
		zap.Int("provider_count", len(cfg.Providers)),
		zap.Bool("renderer", deps.Renderer != nil),
	)
	return &Manager{
		cfg:        cfg,
		deps:       deps,
		strategies: make(map[string]Strategy),
	}
}

// Strategy returns the strategy for providerID, the default provider when empty
func (m *Manager) Strategy(providerID string) (Strategy, error) {
	p, registered := m.cfg.LookupProvider(providerID)
	if !registered {
		if HasDedicatedStrategy(p.ID) {
			// no url without registration, so this reports the ConfigError
			return Create(p, m.deps)
		}
		return m.sharedGeneric(), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.strategies[p.ID]; ok {
		return s, nil
	}
	s, err := Create(p, m.deps)
	if err != nil {
		return nil, err
	}
	m.strategies[p.ID] = s
	return s, nil
}

func (m *Manager) sharedGeneric() Strategy {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generic == nil {
		m.generic = NewGenericStrategy(config.ProviderConfig{}, m.deps)
	}
	return m.generic
}

// Search runs query on the named provider. Every error is a
// *models.SearchFailedError.
func (m *Manager) Search(ctx context.Context, providerID, query string, opts Options) (*models.SearchResponse, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = m.cfg.Search.MaxResults
	}

	s, err := m.Strategy(providerID)
	if err != nil {
		logger.Error("failed to create strategy", zap.String("provider", providerID), zap.Error(err))
		return nil, models.NewSearchFailed(err)
	}

	logger.Info("search started",
		zap.String("provider", s.Name()),
		zap.String("query", query),
		zap.Int("max_results", opts.MaxResults),
	)
	return s.Search(ctx, query, opts)
}
