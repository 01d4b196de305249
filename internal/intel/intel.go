// Package intel abstracts the external news/social search adapters. The
// scoring engine requests signal for an entity name and never learns how
// the hits were obtained; adapter failures degrade to zero hits.
package intel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"vigia/internal/platform/config"
	"vigia/internal/platform/metrics"
)

// Hit is one news article or social mention returned by an adapter.
type Hit struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	RiskScore float64 `json:"risk_score"`
	Source    string  `json:"source"`
}

// Searcher is the adapter contract. News and social intelligence are two
// Searcher instances; implementations live outside this module.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
}

// Result carries the raw hits for one entity. Scoring happens in the risk
// engine; this layer only fetches.
type Result struct {
	News   []Hit `json:"news"`
	Social []Hit `json:"social"`
}

// Gatherer fetches news and social hits for an entity, caching per name and
// pacing external queries to avoid upstream throttling. A nil news or
// social searcher disables that tier.
type Gatherer struct {
	news    Searcher
	social  Searcher
	cache   Cache
	cfg     config.IntelConfig
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	lastQuery time.Time
}

func NewGatherer(news, social Searcher, cache Cache, cfg config.IntelConfig, logger *slog.Logger, m *metrics.Metrics) *Gatherer {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Gatherer{
		news:    news,
		social:  social,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}

// Gather fetches both tiers concurrently. It never returns an error: a
// failed adapter contributes zero hits and the report carries on. Degraded
// results are not cached, so the next batch retries the adapters.
func (g *Gatherer) Gather(ctx context.Context, name string) Result {
	if cached, ok := g.cache.Get(ctx, name); ok {
		return cached
	}

	var result Result
	var newsOK, socialOK bool
	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		result.News, newsOK = g.query(gctx, "news", g.news, name, g.cfg.NewsLimit)
		return nil
	})
	grp.Go(func() error {
		result.Social, socialOK = g.query(gctx, "social", g.social, name, g.cfg.SocialLimit)
		return nil
	})
	_ = grp.Wait()

	if newsOK && socialOK {
		g.cache.Set(ctx, name, result)
	}
	return result
}

// query returns the tier's hits and whether the lookup is trustworthy
// enough to cache. A disabled tier is trustworthy; a failed one is not.
func (g *Gatherer) query(ctx context.Context, tier string, searcher Searcher, name string, limit int) ([]Hit, bool) {
	if searcher == nil {
		return nil, true
	}

	g.pace(ctx)

	qctx := ctx
	if g.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, g.cfg.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	hits, err := searcher.Search(qctx, name, limit)
	if err != nil {
		g.metrics.RecordIntelLookup(tier, "error", time.Since(start))
		if g.logger != nil {
			g.logger.Warn("intelligence lookup failed, degrading to zero signal",
				"tier", tier,
				"entity", name,
				"error", err,
			)
		}
		return nil, false
	}
	g.metrics.RecordIntelLookup(tier, "ok", time.Since(start))
	return hits, true
}

// pace enforces the configured pause between consecutive external queries
// across all goroutines sharing this gatherer.
func (g *Gatherer) pace(ctx context.Context) {
	if g.cfg.QueryDelay <= 0 {
		return
	}

	g.mu.Lock()
	wait := g.cfg.QueryDelay - time.Since(g.lastQuery)
	g.lastQuery = time.Now().Add(maxDuration(wait, 0))
	g.mu.Unlock()

	if wait <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
