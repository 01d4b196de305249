package registry

import (
	"context"
	"log/slog"

	"vigia/internal/platform/metrics"
)

// Source yields one registry's full dataset. Implementations return
// sentinel.ErrUnavailable (wrapped) when the backing store cannot serve;
// the chain falls through to the next source.
type Source[T any] struct {
	Name string
	Load func(ctx context.Context) (T, error)
}

// loadChain walks the ordered sources and returns the first dataset that
// loads, along with the serving source name. When every source fails the
// zero value is returned and the caller degrades to "no match found".
func loadChain[T any](ctx context.Context, registry string, sources []Source[T], logger *slog.Logger, m *metrics.Metrics) (T, bool) {
	var zero T
	for i, src := range sources {
		data, err := src.Load(ctx)
		if err != nil {
			if logger != nil {
				logger.Warn("registry source unavailable",
					"registry", registry,
					"source", src.Name,
					"error", err,
				)
			}
			continue
		}
		if i > 0 {
			m.RecordRegistryFallback(registry, src.Name)
		}
		if logger != nil {
			logger.Info("registry loaded", "registry", registry, "source", src.Name)
		}
		return data, true
	}
	m.RecordRegistryFallback(registry, "none")
	if logger != nil {
		logger.Warn("all registry sources failed, treating as empty", "registry", registry)
	}
	return zero, false
}
