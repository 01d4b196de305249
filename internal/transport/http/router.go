package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vigia/pkg/platform/httputil"
)

// HealthCheck probes one dependency. Checks run on every /healthz request;
// they must be cheap (a ping, not a query).
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// NewRouter wires all endpoints. Batch mutation routes sit behind the
// token check; reads are open to the dashboard.
func NewRouter(h *Handler, tokens *TokenService, checks ...HealthCheck) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/healthz", healthHandler(checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	h.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(tokens.RequireAuth)
		h.RegisterProtected(r)
	})

	return r
}

func healthHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		statuses := make(map[string]string, len(checks)+1)
		code := http.StatusOK
		for _, c := range checks {
			if err := c.Check(req.Context()); err != nil {
				statuses[c.Name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			statuses[c.Name] = "ok"
		}
		if code == http.StatusOK {
			statuses["status"] = "ok"
		} else {
			statuses["status"] = "degraded"
		}
		httputil.WriteJSON(w, code, statuses)
	}
}
