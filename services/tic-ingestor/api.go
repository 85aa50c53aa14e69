package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tic-ingestor/internal/laststate"
	"tic-ingestor/internal/tic"
)

// latestReader je podmnožina *laststate.Store pro API.
type latestReader interface {
	Latest(ctx context.Context) ([]laststate.LastValue, error)
}

// APIHandler obsluhuje health, metriky a čtení stavu dekodéru.
type APIHandler struct {
	stats    *tic.Stats
	latest   latestReader // nil, pokud Valkey není nakonfigurován
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// NewAPIHandler vytvoří handler. latest může být nil, /api/tags pak vrací 503.
func NewAPIHandler(stats *tic.Stats, latest latestReader, gatherer prometheus.Gatherer, logger *slog.Logger) *APIHandler {
	return &APIHandler{stats: stats, latest: latest, gatherer: gatherer, logger: logger}
}

// RegisterRoutes zaregistruje všechny endpointy do muxu.
// Používá Go 1.22 routing se jménem metody ("GET /cesta").
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	// Health check pro Docker / Kubernetes
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	// Prometheus scrape endpoint nad vlastním registry
	mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /api/stats", h.handleStats)
	mux.HandleFunc("GET /api/tags", h.handleTags)
}

// handleStats: GET /api/stats
func (h *APIHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.stats.Snapshot())
}

// handleTags: GET /api/tags, poslední hodnoty z Valkey
func (h *APIHandler) handleTags(w http.ResponseWriter, r *http.Request) {
	if h.latest == nil {
		http.Error(w, "last-value store disabled", http.StatusServiceUnavailable)
		return
	}

	values, err := h.latest.Latest(r.Context())
	if err != nil {
		h.logger.Error("Chyba při čtení posledních hodnot", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, values)
}

// writeJSON zapíše odpověď jako JSON. Chyba zápisu se jen zaloguje,
// hlavička už v tu chvíli mohla odejít.
func (h *APIHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Chyba při zápisu JSON odpovědi", "error", err)
	}
}
