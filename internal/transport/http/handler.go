package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vigia/internal/identity"
	"vigia/internal/risk"
	"vigia/pkg/platform/httputil"
)

// Service defines the scoring operations the transport exposes.
type Service interface {
	PrepareBatch(ctx context.Context) error
	AnalyzeEntity(ctx context.Context, rpe string) (risk.Report, error)
	AnalyzeBatch(ctx context.Context) ([]risk.Report, error)
	Summary(ctx context.Context) (string, error)
	Targets() ([]risk.Target, error)
	CurrentResolution() (*identity.Resolution, error)
}

// Handler is the thin HTTP layer. It delegates to the risk service and
// never embeds scoring logic.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the read endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/v1/suppliers/{rpe}/risk", h.HandleSupplierRisk)
	r.Get("/api/v1/risk/summary", h.HandleSummary)
	r.Get("/api/v1/persons/{id}", h.HandlePerson)
}

// RegisterProtected mounts the endpoints that mutate batch state.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/api/v1/risk/batch", h.HandleBatch)
	r.Get("/api/v1/risk/targets", h.HandleTargets)
}

// HandleSupplierRisk handles GET /api/v1/suppliers/{rpe}/risk. An unknown
// RPE still yields a report body, with a 404 status.
func (h *Handler) HandleSupplierRisk(w http.ResponseWriter, r *http.Request) {
	rpe := chi.URLParam(r, "rpe")
	if rpe == "" {
		httputil.WriteBadRequest(w, "rpe is required")
		return
	}

	report, err := h.service.AnalyzeEntity(r.Context(), rpe)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if report.RiskLevel == risk.LevelNotFound {
		status = http.StatusNotFound
	}
	httputil.WriteJSON(w, status, report)
}

// HandleBatch handles POST /api/v1/risk/batch: re-prepare the batch from
// the sources and return the ranked reports.
func (h *Handler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	if err := h.service.PrepareBatch(ctx); err != nil {
		h.logger.ErrorContext(ctx, "batch preparation failed",
			"analyst", Analyst(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	reports, err := h.service.AnalyzeBatch(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "batch analyzed",
		"analyst", Analyst(ctx),
		"reports", len(reports),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"reports": reports,
		"count":   len(reports),
	})
}

// HandleSummary handles GET /api/v1/risk/summary with a plain-text ranked
// dashboard.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(summary))
}

// HandleTargets handles GET /api/v1/risk/targets.
func (h *Handler) HandleTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.service.Targets()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"targets": targets,
		"count":   len(targets),
	})
}

// HandlePerson handles GET /api/v1/persons/{id}, returning the resolved
// identity with its company links.
func (h *Handler) HandlePerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	resolution, err := h.service.CurrentResolution()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	person, ok := resolution.Persons[id]
	if !ok {
		httputil.WriteJSON(w, http.StatusNotFound, map[string]string{
			"error":             "not_found",
			"error_description": "unknown person id",
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, person)
}
