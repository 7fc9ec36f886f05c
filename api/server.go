/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from proxy headers
  3. Logger:     slog request logging (requestLogger)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. Metrics:    Request duration histogram (when enabled)
  6. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /health                 Liveness
  /metrics                Prometheus scrape (when enabled)
  /api/people/*           Person lifecycle, recharge, clears, history
  /api/dues/*             Bulk due clearing
  /api/daily-eggs/*       Daily entries and undo
  /api/reports/*          Due report and balance summary
  /api/recharge-split     Recharge preview
  /api/scenarios/*        Demo scenarios
  /api/admin/*            Destructive admin operations

SECURITY NOTE:
  No authentication middleware. All endpoints are public; run behind a
  trusted proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - cli/serve.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/egg-ledger/metrics"
)

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	Metrics        bool
	Logger         *slog.Logger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	if opts.Metrics {
		r.Use(metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)

	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Person routes
		r.Route("/people", func(r chi.Router) {
			r.Get("/", h.ListPeople)
			r.Post("/", h.CreatePerson)
			r.Get("/{id}", h.GetPerson)
			r.Put("/{id}", h.UpdatePerson)
			r.Delete("/{id}", h.DeletePerson)
			r.Get("/{id}/history", h.PersonHistory)
			r.Post("/{id}/recharge", h.RechargePerson)
			r.Post("/{id}/clear-balance", h.ClearPersonBalance)
			r.Post("/{id}/clear-due", h.ClearPersonDue)
		})

		r.Post("/dues/clear", h.ClearAllDues)

		// Daily entry routes
		r.Route("/daily-eggs", func(r chi.Router) {
			r.Get("/", h.ListDailyEggs)
			r.Post("/", h.AddDailyEgg)
			r.Delete("/", h.ClearDailyEggs)
			r.Post("/undo", h.UndoDailyEgg)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/dues", h.DueReport)
			r.Get("/summary", h.BalanceSummary)
		})

		r.Post("/recharge-split", h.RechargeSplit)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Delete("/database", h.ClearDatabase)
		})
	})

	return r
}

// requestLogger logs one line per request with the chi request ID.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				level := slog.LevelInfo
				if status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
				logger.LogAttrs(r.Context(), level, "http request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", status),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", time.Since(start)),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
