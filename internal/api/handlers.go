// Package api is the thin HTTP glue between the dashboard service and the
// rendering UI. No aggregation logic lives here.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"stablecoin-dashboard/internal/dashboard"
)

// Handlers serves the dashboard HTTP API.
type Handlers struct {
	svc            *dashboard.Service
	streamInterval time.Duration
	logger         *log.Logger
	upgrader       websocket.Upgrader
}

// NewHandlers creates the API handler set.
func NewHandlers(svc *dashboard.Service, streamInterval time.Duration, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	return &Handlers{
		svc:            svc,
		streamInterval: streamInterval,
		logger:         logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// CORS is enforced by the router middleware.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// valueResponse wraps a single scalar metric.
type valueResponse struct {
	Value float64 `json:"value"`
}

// errorResponse is the JSON error body. The UI renders it as a retryable
// error state for the failed metric group; sibling metrics are unaffected.
type errorResponse struct {
	Error string `json:"error"`
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Summary returns all scalar metrics in one fan-out. Always 200: per-metric
// failures are reported inside the body, not as an HTTP error.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Summary(r.Context()))
}

// TotalMarketCap serves the current total market capitalization.
func (h *Handlers) TotalMarketCap(w http.ResponseWriter, r *http.Request) {
	h.writeScalar(w, r, h.svc.TotalMarketCap)
}

// TotalVolume24h serves the current total 24h volume.
func (h *Handlers) TotalVolume24h(w http.ResponseWriter, r *http.Request) {
	h.writeScalar(w, r, h.svc.TotalVolume24h)
}

// MarketCapChangeMoM serves the month-over-month market cap change.
func (h *Handlers) MarketCapChangeMoM(w http.ResponseWriter, r *http.Request) {
	h.writeScalar(w, r, h.svc.TotalMarketCapChangeMoM)
}

// VolumeChangeMoM serves the month-over-month volume change.
func (h *Handlers) VolumeChangeMoM(w http.ResponseWriter, r *http.Request) {
	h.writeScalar(w, r, h.svc.TotalVolumeChangeMoM)
}

// MonthlyGrowthRate serves the month-on-month growth rate.
func (h *Handlers) MonthlyGrowthRate(w http.ResponseWriter, r *http.Request) {
	h.writeScalar(w, r, h.svc.MonthlyGrowthRate)
}

// MarketCapChangeYoY serves the year-over-year market cap change.
func (h *Handlers) MarketCapChangeYoY(w http.ResponseWriter, r *http.Request) {
	h.writeScalar(w, r, h.svc.MarketCapChangeYoY)
}

// WeeklySeries serves the named-slot weekly chart series.
func (h *Handlers) WeeklySeries(w http.ResponseWriter, r *http.Request) {
	points, err := h.svc.WeeklySeries(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// WeeklyTotals serves the simple summed weekly series.
func (h *Handlers) WeeklyTotals(w http.ResponseWriter, r *http.Request) {
	points, err := h.svc.WeeklyTotals(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *Handlers) writeScalar(w http.ResponseWriter, r *http.Request, fetch func(context.Context) (float64, error)) {
	v, err := fetch(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, valueResponse{Value: v})
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	h.logger.Printf("metric request failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
