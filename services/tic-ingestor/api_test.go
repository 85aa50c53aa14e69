package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"tic-ingestor/internal/laststate"
	"tic-ingestor/internal/tic"
)

type fakeLatest struct {
	values []laststate.LastValue
	err    error
}

func (f fakeLatest) Latest(context.Context) ([]laststate.LastValue, error) {
	return f.values, f.err
}

func newTestMux(t *testing.T, stats *tic.Stats, latest latestReader) *http.ServeMux {
	t.Helper()
	reg := prometheus.NewRegistry()
	if err := registerMetrics(reg, stats); err != nil {
		t.Fatalf("registerMetrics() error = %v", err)
	}
	mux := http.NewServeMux()
	NewAPIHandler(stats, latest, reg, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(mux)
	return mux
}

func get(t *testing.T, mux http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestAPIHealth(t *testing.T) {
	rec := get(t, newTestMux(t, &tic.Stats{}, nil), "/health")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("GET /health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestAPIStats(t *testing.T) {
	stats := &tic.Stats{}
	stats.Frames.Add(3)
	stats.ChecksumErrors.Add(1)

	rec := get(t, newTestMux(t, stats, nil), "/api/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/stats = %d", rec.Code)
	}
	var got tic.StatsSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Frames != 3 || got.ChecksumErrors != 1 {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestAPITags(t *testing.T) {
	ts := "E240101000000"
	values := []laststate.LastValue{{Tag: "DATE", Timestamp: &ts}, {Tag: "EAST", Data: "000123456"}}

	tests := []struct {
		name   string
		latest latestReader
		code   int
	}{
		{name: "disabled", latest: nil, code: http.StatusServiceUnavailable},
		{name: "error", latest: fakeLatest{err: errors.New("down")}, code: http.StatusInternalServerError},
		{name: "values", latest: fakeLatest{values: values}, code: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestMux(t, &tic.Stats{}, tt.latest), "/api/tags")
			if rec.Code != tt.code {
				t.Fatalf("GET /api/tags = %d, want %d", rec.Code, tt.code)
			}
			if tt.code != http.StatusOK {
				return
			}
			var got []laststate.LastValue
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got) != 2 || got[1].Data != "000123456" {
				t.Errorf("values = %+v", got)
			}
		})
	}
}

func TestAPIMetrics(t *testing.T) {
	stats := &tic.Stats{}
	stats.Emitted.Add(7)

	rec := get(t, newTestMux(t, stats, nil), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "tic_emitted_total 7") {
		t.Errorf("metrics output missing tic_emitted_total 7:\n%s", rec.Body.String())
	}
}
