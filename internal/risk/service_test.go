package risk

import (
	"context"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigia/internal/identity"
	"vigia/internal/platform/config"
	"vigia/internal/platform/metrics"
	"vigia/internal/registry"
	"vigia/internal/supplier"
	"vigia/pkg/platform/sentinel"
)

type fixedSource struct {
	records []supplier.Record
}

func (s *fixedSource) Name() string { return "fixed" }

func (s *fixedSource) Load(context.Context) ([]supplier.Record, error) {
	if len(s.records) == 0 {
		return nil, sentinel.ErrUnavailable
	}
	return s.records, nil
}

type fixedRegistries struct {
	registries *registry.Registries
}

func (f *fixedRegistries) LoadAll(context.Context) *registry.Registries {
	if f.registries == nil {
		return registry.Empty()
	}
	return f.registries
}

func newTestService(records []supplier.Record, registries *registry.Registries) *Service {
	cfg := &config.Config{Risk: config.DefaultRisk()}
	chain := supplier.NewChain(nil, &fixedSource{records: records})
	return NewService(cfg, chain, identity.NewResolver(nil), &fixedRegistries{registries: registries}, nil, nil, nil, nil)
}

func TestServiceAnalyzeEntity(t *testing.T) {
	rec := cleanRecord("100", "FERRETERIA EL SOL SRL")
	rec.FechaCreacionEmpresa = "2025-02-01"
	svc := newTestService([]supplier.Record{rec}, nil)

	ctx := context.Background()
	require.NoError(t, svc.PrepareBatch(ctx))

	report, err := svc.AnalyzeEntity(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, "FERRETERIA EL SOL SRL", report.Entity)
	assert.Equal(t, 15.0, report.RiskScore)
}

func TestServiceAnalyzeEntityNotFound(t *testing.T) {
	svc := newTestService([]supplier.Record{cleanRecord("100", "FERRETERIA EL SOL SRL")}, nil)

	ctx := context.Background()
	require.NoError(t, svc.PrepareBatch(ctx))

	report, err := svc.AnalyzeEntity(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, LevelNotFound, report.RiskLevel)
	assert.Equal(t, 0.0, report.RiskScore)
	assert.Equal(t, "does-not-exist", report.Entity)
}

func TestServiceRequiresPreparedBatch(t *testing.T) {
	svc := newTestService([]supplier.Record{cleanRecord("100", "X SRL")}, nil)

	_, err := svc.AnalyzeEntity(context.Background(), "100")
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)

	_, err = svc.AnalyzeBatch(context.Background())
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestServicePrepareBatchFailsWithoutSuppliers(t *testing.T) {
	svc := newTestService(nil, nil)

	err := svc.PrepareBatch(context.Background())
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestServicePrepareBatchRecordsResolutionMetrics(t *testing.T) {
	resolved := cleanRecord("100", "FERRETERIA EL SOL SRL")
	// No contact name: resolution skips this record.
	skipped := cleanRecord("101", "SIN CONTACTO SRL")
	skipped.Contacto = ""

	m := metrics.New()
	cfg := &config.Config{Risk: config.DefaultRisk()}
	chain := supplier.NewChain(nil, &fixedSource{records: []supplier.Record{resolved, skipped}})
	svc := NewService(cfg, chain, identity.NewResolver(nil), &fixedRegistries{}, nil, nil, nil, m)

	require.NoError(t, svc.PrepareBatch(context.Background()))

	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.ResolvedPersons))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.SkippedRecords))
}

func TestServiceAnalyzeBatchRanked(t *testing.T) {
	clean := cleanRecord("100", "PROVEEDORA LIMPIA SRL")
	risky := cleanRecord("200", "SUMINISTROS NUEVOS SRL")
	risky.FechaCreacionEmpresa = "2026-03-01"
	svc := newTestService([]supplier.Record{clean, risky}, nil)

	ctx := context.Background()
	require.NoError(t, svc.PrepareBatch(ctx))

	reports, err := svc.AnalyzeBatch(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "SUMINISTROS NUEVOS SRL", reports[0].Entity)
	assert.Equal(t, "PROVEEDORA LIMPIA SRL", reports[1].Entity)
	assert.GreaterOrEqual(t, reports[0].RiskScore, reports[1].RiskScore)
}

func TestServiceSummary(t *testing.T) {
	risky := cleanRecord("200", "SUMINISTROS NUEVOS SRL")
	risky.FechaCreacionEmpresa = "2026-03-01"
	svc := newTestService([]supplier.Record{risky}, nil)

	ctx := context.Background()
	require.NoError(t, svc.PrepareBatch(ctx))

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Contains(t, summary, "SUMINISTROS NUEVOS SRL")
	assert.Contains(t, summary, "Empresa de reciente creación")
}

func TestRankedSummaryTruncatesFactors(t *testing.T) {
	reports := []Report{{
		Entity:    "EMPRESA SATURADA SRL",
		RiskScore: 90,
		RiskLevel: LevelCritical,
		Factors:   []string{"f1", "f2", "f3", "f4", "f5"},
	}}

	summary := RankedSummary(reports)

	assert.Contains(t, summary, "f3")
	assert.NotContains(t, summary, "f4")
	assert.Contains(t, summary, "y 2 factores más")
}

func TestRankStableOnTies(t *testing.T) {
	reports := []Report{
		{Entity: "B", RiskScore: 50},
		{Entity: "A", RiskScore: 50},
		{Entity: "C", RiskScore: 80},
	}

	ranked := Rank(reports)

	assert.Equal(t, "C", ranked[0].Entity)
	assert.Equal(t, "A", ranked[1].Entity)
	assert.Equal(t, "B", ranked[2].Entity)
}
