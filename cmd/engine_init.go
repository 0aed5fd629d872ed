package main

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ccrestaurant/lead-intel/internal/enrich"
	"github.com/ccrestaurant/lead-intel/internal/extract"
	"github.com/ccrestaurant/lead-intel/internal/review"
	"github.com/ccrestaurant/lead-intel/internal/scrape"
	"github.com/ccrestaurant/lead-intel/internal/store"
	"github.com/ccrestaurant/lead-intel/pkg/assessor"
	"github.com/ccrestaurant/lead-intel/pkg/jina"
	"github.com/ccrestaurant/lead-intel/pkg/license"
)

// engineEnv holds the initialized store, review queue, and orchestrator
// needed by the enrich/batch/serve commands.
type engineEnv struct {
	Store        store.Store
	Queue        *review.Queue
	Orchestrator *enrich.Orchestrator
	locks        keyedMutex
}

// Close releases resources held by the engine environment.
func (e *engineEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// EnrichLead runs enrichment for one lead, serializing concurrent calls for
// the same lead ID.
func (e *engineEnv) EnrichLead(ctx context.Context, leadID string, maxRounds int) (*enrich.Result, error) {
	unlock := e.locks.lock(leadID)
	defer unlock()
	return e.Orchestrator.Enrich(ctx, leadID, maxRounds)
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leads.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEngine sets up the store, clients, extraction patterns, enrichment
// sources, and the orchestrator. Callers should defer env.Close().
func initEngine(ctx context.Context) (*engineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	patterns := extract.DefaultPatternSet()
	if cfg.Patterns.Path != "" {
		patterns, err = extract.LoadPatternSet(cfg.Patterns.Path)
		if err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "load pattern set")
		}
		zap.L().Info("pattern set loaded from file", zap.String("path", cfg.Patterns.Path))
	}
	extractor := extract.New(patterns)

	jinaOpts := []jina.Option{jina.WithBaseURL(cfg.Jina.BaseURL)}
	if cfg.Jina.SearchBaseURL != "" {
		jinaOpts = append(jinaOpts, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
	}
	if cfg.Jina.RPS > 0 {
		jinaOpts = append(jinaOpts, jina.WithRateLimit(cfg.Jina.RPS))
	}
	jinaClient := jina.NewClient(cfg.Jina.Key, jinaOpts...)

	// Scrape chain: direct fetch first, Jina Reader as the fallback for
	// blocked or JS-heavy sites.
	matcher := scrape.NewPathMatcher(cfg.Scrape.ExcludePaths)
	chain := scrape.NewChain(matcher,
		scrape.NewLocalScraper(),
		scrape.NewJinaAdapter(jinaClient),
	)

	sources := []enrich.Source{
		enrich.NewWebsiteSource(chain, extractor),
		enrich.NewSearchSource(jinaClient, extractor),
	}

	// Public records sources are optional; without a base URL the source is
	// simply never available.
	if cfg.Assessor.BaseURL != "" {
		sources = append(sources, enrich.NewAssessorSource(assessor.New(cfg.Assessor)))
		zap.L().Info("assessor source enabled")
	} else {
		sources = append(sources, enrich.NewAssessorSource(nil))
		zap.L().Debug("LEADINTEL_ASSESSOR_BASE_URL not set, assessor source disabled")
	}
	if cfg.License.BaseURL != "" {
		sources = append(sources, enrich.NewLicenseSource(license.New(cfg.License)))
		zap.L().Info("license registry source enabled")
	} else {
		sources = append(sources, enrich.NewLicenseSource(nil))
		zap.L().Debug("LEADINTEL_LICENSE_BASE_URL not set, license registry source disabled")
	}

	queue := review.NewQueue(st)
	orch := enrich.NewOrchestrator(st, queue, cfg.Enrich, sources...)

	return &engineEnv{
		Store:        st,
		Queue:        queue,
		Orchestrator: orch,
	}, nil
}

// keyedMutex serializes work per key so two enrichment cycles never run
// concurrently for the same lead.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
