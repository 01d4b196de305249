package registry

import (
	"context"
	"database/sql"
	"log/slog"

	"vigia/internal/platform/metrics"
)

// Loader owns the source chains for all three registries. Construct one per
// process; call LoadAll once per scoring batch and share the returned
// snapshot across every supplier in that batch.
type Loader struct {
	pep      []Source[map[string]PEPRecord]
	payroll  []Source[map[string]PayrollRecord]
	forensic []Source[map[string][]ForensicHit]
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewLoader wires the standard chains: data lake first, file snapshots
// second. db may be nil when the lake is not configured.
func NewLoader(db *sql.DB, dataDir string, logger *slog.Logger, m *metrics.Metrics) *Loader {
	return &Loader{
		pep:      []Source[map[string]PEPRecord]{pepFromPostgres(db), pepFromFile(dataDir)},
		payroll:  []Source[map[string]PayrollRecord]{payrollFromPostgres(db), payrollFromFile(dataDir)},
		forensic: []Source[map[string][]ForensicHit]{forensicFromPostgres(db), forensicFromFiles(dataDir)},
		logger:   logger,
		metrics:  m,
	}
}

// LoadAll produces a fresh registry snapshot. Every chain degrades to an
// empty map on total failure; the result is always usable.
func (l *Loader) LoadAll(ctx context.Context) *Registries {
	reg := Empty()

	if pep, ok := loadChain(ctx, "pep", l.pep, l.logger, l.metrics); ok {
		reg.PEP = pep
	}
	if payroll, ok := loadChain(ctx, "payroll", l.payroll, l.logger, l.metrics); ok {
		reg.Payroll = payroll
	}
	if forensic, ok := loadChain(ctx, "forensic", l.forensic, l.logger, l.metrics); ok {
		reg.Forensic = forensic
	}

	if l.logger != nil {
		l.logger.Info("registries loaded",
			"pep", len(reg.PEP),
			"payroll", len(reg.Payroll),
			"forensic", len(reg.Forensic),
		)
	}
	return reg
}
