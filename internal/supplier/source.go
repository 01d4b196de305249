package supplier

import (
	"context"
	"log/slog"
)

// Source yields the full supplier registry snapshot. Implementations return
// sentinel.ErrUnavailable (wrapped) when the backing store cannot serve.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Record, error)
}

// Chain tries an ordered list of sources and returns the first snapshot that
// loads. All sources failing is not fatal: callers receive an empty registry
// and every lookup resolves to NOT_FOUND.
type Chain struct {
	sources []Source
	logger  *slog.Logger
}

func NewChain(logger *slog.Logger, sources ...Source) *Chain {
	return &Chain{sources: sources, logger: logger}
}

// Load walks the chain in order. Failures are logged at warning level and
// never propagate; data absence is a degraded state, not an error.
func (c *Chain) Load(ctx context.Context) []Record {
	for _, src := range c.sources {
		records, err := src.Load(ctx)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("supplier source unavailable",
					"source", src.Name(),
					"error", err,
				)
			}
			continue
		}
		if c.logger != nil {
			c.logger.Info("supplier snapshot loaded",
				"source", src.Name(),
				"records", len(records),
			)
		}
		return records
	}
	if c.logger != nil {
		c.logger.Warn("no supplier source available, continuing with empty registry")
	}
	return nil
}
