package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"stablecoin-dashboard/internal/observability"
)

// NewRouter configures all API routes.
func NewRouter(h *Handlers, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Handle("/metrics", observability.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", h.Summary)
		r.Get("/weekly", h.WeeklySeries)
		r.Get("/weekly/totals", h.WeeklyTotals)
		r.Get("/stream", h.Stream)

		// Individual metric groups: the UI retries these independently.
		r.Route("/metrics", func(r chi.Router) {
			r.Get("/market-cap", h.TotalMarketCap)
			r.Get("/market-cap/mom", h.MarketCapChangeMoM)
			r.Get("/market-cap/yoy", h.MarketCapChangeYoY)
			r.Get("/volume", h.TotalVolume24h)
			r.Get("/volume/mom", h.VolumeChangeMoM)
			r.Get("/growth-rate", h.MonthlyGrowthRate)
		})
	})

	return r
}

// requestMetrics records per-route request durations.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		route := r.URL.Path
		if ctx := chi.RouteContext(r.Context()); ctx != nil && ctx.RoutePattern() != "" {
			route = ctx.RoutePattern()
		}
		observability.RecordHTTPRequest(route, time.Since(start).Seconds())
	})
}
