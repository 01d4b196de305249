package risk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"vigia/internal/audit"
	"vigia/internal/graph"
	"vigia/internal/identity"
	"vigia/internal/platform/config"
	"vigia/internal/platform/metrics"
	"vigia/internal/registry"
	"vigia/internal/supplier"
	"vigia/pkg/platform/sentinel"
)

// RegistryLoader is what the service needs from the registry layer.
type RegistryLoader interface {
	LoadAll(ctx context.Context) *registry.Registries
}

// Service owns the batch lifecycle: load suppliers, resolve identities,
// build graph indices, snapshot registries, then answer per-entity and
// whole-batch scoring questions against that frozen state. Re-preparing
// swaps the whole batch atomically; in-flight reads keep the old one.
type Service struct {
	cfg        *config.Config
	suppliers  *supplier.Chain
	resolver   *identity.Resolver
	registries RegistryLoader
	gatherer   IntelGatherer
	publisher  *audit.Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics

	mu    sync.RWMutex
	batch *Batch
}

// Batch is the frozen state one preparation produced.
type Batch struct {
	Engine     *Engine
	Resolution *identity.Resolution
	Records    []supplier.Record

	byRPE map[string]supplier.Record
}

func NewService(
	cfg *config.Config,
	suppliers *supplier.Chain,
	resolver *identity.Resolver,
	registries RegistryLoader,
	gatherer IntelGatherer,
	publisher *audit.Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		cfg:        cfg,
		suppliers:  suppliers,
		resolver:   resolver,
		registries: registries,
		gatherer:   gatherer,
		publisher:  publisher,
		logger:     logger,
		metrics:    m,
	}
}

// PrepareBatch runs the full pipeline up to scoring and installs the
// resulting state. Registry failures degrade to empty snapshots inside the
// loader; an empty supplier set is the one hard failure, because there is
// nothing to score.
func (s *Service) PrepareBatch(ctx context.Context) error {
	records := s.suppliers.Load(ctx)
	if len(records) == 0 {
		return fmt.Errorf("prepare batch: no supplier records: %w", sentinel.ErrUnavailable)
	}

	resolution := s.resolver.Resolve(records)
	s.metrics.RecordResolution(len(resolution.Persons), resolution.Skipped)
	indices := graph.Build(resolution, records, s.logger)
	registries := s.registries.LoadAll(ctx)

	byRPE := make(map[string]supplier.Record, len(records))
	for _, rec := range records {
		if rec.RPE != "" {
			byRPE[rec.RPE] = rec
		}
	}

	batch := &Batch{
		Engine:     NewEngine(&s.cfg.Risk, indices, registries, resolution.Persons, s.gatherer, s.logger, s.metrics),
		Resolution: resolution,
		Records:    records,
		byRPE:      byRPE,
	}

	s.mu.Lock()
	s.batch = batch
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("batch prepared",
			"suppliers", len(records),
			"persons", len(resolution.Persons),
			"relationships", len(resolution.Relationships),
			"skipped", resolution.Skipped,
		)
	}
	s.publisher.Emit(ctx, audit.NewEvent(audit.ActionBatchPrepared, "", map[string]any{
		"suppliers": len(records),
		"persons":   len(resolution.Persons),
	}))
	return nil
}

func (s *Service) current() (*Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.batch == nil {
		return nil, fmt.Errorf("no batch prepared: %w", sentinel.ErrUnavailable)
	}
	return s.batch, nil
}

// AnalyzeEntity scores one supplier by RPE. An unknown RPE yields the
// NOT_FOUND sentinel report rather than an error: callers always get a
// renderable report once a batch exists.
func (s *Service) AnalyzeEntity(ctx context.Context, rpe string) (Report, error) {
	batch, err := s.current()
	if err != nil {
		return Report{}, err
	}

	rec, ok := batch.byRPE[rpe]
	if !ok {
		s.publisher.Emit(ctx, audit.NewEvent(audit.ActionEntityNotFound, rpe, nil))
		return NotFoundReport(rpe), nil
	}

	report := batch.Engine.Analyze(ctx, rec.RazonSocial, rec)
	s.publisher.Emit(ctx, audit.NewEvent(audit.ActionEntityScored, rpe, map[string]any{
		"score": report.RiskScore,
		"level": string(report.RiskLevel),
	}))
	return report, nil
}

// AnalyzeBatch scores every supplier in the prepared batch and returns the
// reports ranked by descending score.
func (s *Service) AnalyzeBatch(ctx context.Context) ([]Report, error) {
	batch, err := s.current()
	if err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(batch.Records))
	for _, rec := range batch.Records {
		reports = append(reports, batch.Engine.Analyze(ctx, rec.RazonSocial, rec))
	}
	return Rank(reports), nil
}

// Summary renders the ranked dashboard for the prepared batch.
func (s *Service) Summary(ctx context.Context) (string, error) {
	reports, err := s.AnalyzeBatch(ctx)
	if err != nil {
		return "", err
	}
	return RankedSummary(reports), nil
}

// Targets lists priority representatives in the prepared batch.
func (s *Service) Targets() ([]Target, error) {
	batch, err := s.current()
	if err != nil {
		return nil, err
	}
	return batch.Engine.PriorityTargets(), nil
}

// Resolution exposes the current batch's identity resolution for the
// entity lookup endpoints.
func (s *Service) CurrentResolution() (*identity.Resolution, error) {
	batch, err := s.current()
	if err != nil {
		return nil, err
	}
	return batch.Resolution, nil
}
