package httptransport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigia/internal/identity"
	"vigia/internal/risk"
	"vigia/pkg/platform/sentinel"
	"vigia/pkg/testutil"
)

type stubService struct {
	prepared   bool
	prepareErr error
	reports    map[string]risk.Report
	batch      []risk.Report
	targets    []risk.Target
	resolution *identity.Resolution
}

func (s *stubService) PrepareBatch(context.Context) error {
	if s.prepareErr != nil {
		return s.prepareErr
	}
	s.prepared = true
	return nil
}

func (s *stubService) AnalyzeEntity(_ context.Context, rpe string) (risk.Report, error) {
	if s.reports == nil {
		return risk.Report{}, fmt.Errorf("no batch prepared: %w", sentinel.ErrUnavailable)
	}
	if report, ok := s.reports[rpe]; ok {
		return report, nil
	}
	return risk.NotFoundReport(rpe), nil
}

func (s *stubService) AnalyzeBatch(context.Context) ([]risk.Report, error) {
	return s.batch, nil
}

func (s *stubService) Summary(context.Context) (string, error) {
	return "RISK | SCORE | ENTITY\n", nil
}

func (s *stubService) Targets() ([]risk.Target, error) {
	return s.targets, nil
}

func (s *stubService) CurrentResolution() (*identity.Resolution, error) {
	if s.resolution == nil {
		return nil, fmt.Errorf("no batch prepared: %w", sentinel.ErrUnavailable)
	}
	return s.resolution, nil
}

func newTestRouter(svc *stubService) (http.Handler, *TokenService) {
	tokens := NewTokenService("test-signing-key")
	handler := NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewRouter(handler, tokens), tokens
}

func authorized(t *testing.T, tokens *TokenService, req *http.Request) *http.Request {
	t.Helper()
	token, err := tokens.Generate("analyst-1", time.Minute)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestSupplierRiskKnownRPE(t *testing.T) {
	svc := &stubService{reports: map[string]risk.Report{
		"200": {Entity: "SUMINISTROS NUEVOS SRL", RPE: "200", RiskScore: 15, RiskLevel: risk.LevelLow},
	}}
	router, _ := newTestRouter(svc)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/v1/suppliers/200/risk"))

	testutil.AssertStatus(t, rr, http.StatusOK)
	report := testutil.UnmarshalResponse[risk.Report](t, rr)
	assert.Equal(t, "SUMINISTROS NUEVOS SRL", report.Entity)
	assert.Equal(t, 15.0, report.RiskScore)
}

func TestSupplierRiskUnknownRPEReturnsSentinelReport(t *testing.T) {
	svc := &stubService{reports: map[string]risk.Report{}}
	router, _ := newTestRouter(svc)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/v1/suppliers/nope/risk"))

	testutil.AssertStatus(t, rr, http.StatusNotFound)
	report := testutil.UnmarshalResponse[risk.Report](t, rr)
	assert.Equal(t, risk.LevelNotFound, report.RiskLevel)
	assert.Equal(t, "nope", report.Entity)
}

func TestSupplierRiskWithoutBatch(t *testing.T) {
	router, _ := newTestRouter(&stubService{})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/v1/suppliers/200/risk"))

	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	testutil.AssertErrorCode(t, rr, "unavailable")
}

func TestBatchRequiresToken(t *testing.T) {
	router, _ := newTestRouter(&stubService{})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodPost, "/api/v1/risk/batch"))

	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	testutil.AssertErrorCode(t, rr, "unauthorized")
}

func TestBatchRejectsBadToken(t *testing.T) {
	router, _ := newTestRouter(&stubService{})

	req := testutil.NewRequest(t, http.MethodPost, "/api/v1/risk/batch")
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestBatchPreparesAndReturnsRankedReports(t *testing.T) {
	svc := &stubService{batch: []risk.Report{
		{Entity: "B", RiskScore: 80, RiskLevel: risk.LevelCritical},
		{Entity: "A", RiskScore: 10, RiskLevel: risk.LevelLow},
	}}
	router, tokens := newTestRouter(svc)

	req := authorized(t, tokens, testutil.NewRequest(t, http.MethodPost, "/api/v1/risk/batch"))
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.True(t, svc.prepared)

	body := testutil.UnmarshalResponse[struct {
		Reports []risk.Report `json:"reports"`
		Count   int           `json:"count"`
	}](t, rr)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "B", body.Reports[0].Entity)
}

func TestTargetsRequiresToken(t *testing.T) {
	router, _ := newTestRouter(&stubService{})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/v1/risk/targets"))

	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestTargets(t *testing.T) {
	svc := &stubService{targets: []risk.Target{
		{PersonID: "abc", PersonName: "Jorge Batista", CompanyCount: 5, Sectors: []string{"CONSTRUCTORA"}},
	}}
	router, tokens := newTestRouter(svc)

	req := authorized(t, tokens, testutil.NewRequest(t, http.MethodGet, "/api/v1/risk/targets"))
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	body := testutil.UnmarshalResponse[struct {
		Targets []risk.Target `json:"targets"`
		Count   int           `json:"count"`
	}](t, rr)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Jorge Batista", body.Targets[0].PersonName)
}

func TestPersonLookup(t *testing.T) {
	person := &identity.Person{
		ID:             "deadbeef",
		Name:           "Ana Castillo",
		NormalizedName: "ANA CASTILLO",
		Emails:         map[string]struct{}{"ana@example.com": {}},
		Phones:         map[string]struct{}{},
		Positions:      map[string]struct{}{},
	}
	svc := &stubService{resolution: &identity.Resolution{
		Persons: map[string]*identity.Person{"deadbeef": person},
	}}
	router, _ := newTestRouter(svc)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/v1/persons/deadbeef"))

	testutil.AssertStatus(t, rr, http.StatusOK)
	body := testutil.UnmarshalResponse[map[string]any](t, rr)
	assert.Equal(t, "Ana Castillo", (*body)["name"])

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/v1/persons/missing"))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
	testutil.AssertErrorCode(t, rr, "not_found")
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(&stubService{})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

	testutil.AssertStatus(t, rr, http.StatusOK)
	body := testutil.UnmarshalResponse[map[string]string](t, rr)
	assert.Equal(t, "ok", (*body)["status"])
}

func TestHealthzReportsDependencyStatus(t *testing.T) {
	tokens := NewTokenService("test-signing-key")
	handler := NewHandler(&stubService{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := NewRouter(handler, tokens,
		HealthCheck{Name: "postgres", Check: func(context.Context) error { return nil }},
		HealthCheck{Name: "redis", Check: func(context.Context) error { return fmt.Errorf("connection refused") }},
	)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	body := testutil.UnmarshalResponse[map[string]string](t, rr)
	assert.Equal(t, "degraded", (*body)["status"])
	assert.Equal(t, "ok", (*body)["postgres"])
	assert.Equal(t, "connection refused", (*body)["redis"])
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenService("key")

	signed, err := tokens.Generate("analyst-1", time.Minute)
	require.NoError(t, err)

	claims, err := tokens.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "analyst-1", claims.Analyst)

	_, err = tokens.Validate(signed + "x")
	assert.Error(t, err)

	expired, err := tokens.Generate("analyst-1", -time.Minute)
	require.NoError(t, err)
	_, err = tokens.Validate(expired)
	assert.EqualError(t, err, "token has expired")
}
