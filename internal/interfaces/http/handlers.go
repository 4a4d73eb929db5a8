package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/alphascore/alphascore/internal/application"
	"github.com/alphascore/alphascore/internal/domain"
	"github.com/alphascore/alphascore/internal/explain"
	"github.com/alphascore/alphascore/internal/metrics"
)

// Handlers owns the scoring dependencies behind the HTTP surface.
type Handlers struct {
	engine   *application.Engine
	pipeline *application.Pipeline
	metrics  *metrics.Registry
	version  string
	started  time.Time
}

// NewHandlers wires the scoring engine and its batch pipeline into request
// handlers.
func NewHandlers(engine *application.Engine, pipeline *application.Pipeline, registry *metrics.Registry, version string) *Handlers {
	return &Handlers{
		engine:   engine,
		pipeline: pipeline,
		metrics:  registry,
		version:  version,
		started:  time.Now(),
	}
}

// handleScore scores a single instrument bundle.
func (h *Handlers) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	details, err := validateRequest(r.Context(), &req)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "request validation unavailable", nil)
		return
	}
	if len(details) > 0 {
		writeError(w, r, http.StatusBadRequest, "request failed validation", details)
		return
	}

	asOf := resolveAsOf(req.AsOf)

	timer := h.metrics.StartScoreTimer()
	result, err := h.pipeline.ScoreOne(r.Context(), req.Bundle, asOf)
	if err != nil {
		timer.Stop(metrics.OutcomeError)
		writeScoringError(w, r, err)
		return
	}
	timer.Stop(outcomeFor(result))
	h.metrics.RecordResult(result)
	if _, fellBack := h.engine.Table().Resolve(req.Bundle.Sector); fellBack {
		h.metrics.RecordSectorFallback()
	}

	resp := ScoreResponse{Result: result}
	if req.Explain {
		resp.Explanation = explain.Explain(result)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleScoreBatch scores up to 500 bundles against one evaluation instant.
// Individual failures are reported per item; the batch itself still
// succeeds.
func (h *Handlers) handleScoreBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchScoreRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	details, err := validateRequest(r.Context(), &req)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "request validation unavailable", nil)
		return
	}
	if len(details) > 0 {
		writeError(w, r, http.StatusBadRequest, "request failed validation", details)
		return
	}

	asOf := resolveAsOf(req.AsOf)

	items, err := h.pipeline.ScoreBatch(r.Context(), req.Bundles, asOf)
	if err != nil {
		writeScoringError(w, r, err)
		return
	}

	resp := BatchScoreResponse{
		AsOf:    asOf,
		Results: make([]BatchScoreItem, 0, len(items)),
	}
	for _, item := range items {
		out := BatchScoreItem{Symbol: item.Symbol}
		if item.Err != nil {
			out.Error = item.Err.Error()
			resp.Failed++
		} else {
			out.Result = item.Result
			resp.Scored++
			h.metrics.RecordResult(item.Result)
		}
		resp.Results = append(resp.Results, out)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleBenchmarks reports the benchmark bands a sector label resolves to,
// including whether the default bands would serve.
func (h *Handlers) handleBenchmarks(w http.ResponseWriter, r *http.Request) {
	label := mux.Vars(r)["sector"]

	table := h.engine.Table()
	resolved, fellBack := table.Resolve(label)

	writeJSON(w, http.StatusOK, BenchmarksResponse{
		Sector:   label,
		Resolved: resolved,
		FellBack: fellBack,
		Version:  table.Version(),
		Bands:    table.SectorBands(resolved),
	})
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := h.metrics.Snapshot()
	scored := 0.0
	for _, count := range snap.ScoresByTier {
		scored += count
	}

	scoring := ScoringHealth{
		ScoresTotal:      scored,
		InsufficientData: snap.InsufficientData,
		SectorFallbacks:  snap.SectorFallbacks,
	}
	if total := scored + snap.InsufficientData; total > 0 {
		scoring.InsufficientRatio = snap.InsufficientData / total
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Scoring:   scoring,
	})
}

// resolveAsOf is the only place the service consults the wall clock for
// scoring. The engine itself never reads time.Now, so pinned requests
// replay identically.
func resolveAsOf(asOf *time.Time) time.Time {
	if asOf != nil {
		return asOf.UTC()
	}
	return time.Now().UTC()
}

func outcomeFor(result *domain.CompositeResult) string {
	if result.InsufficientData() {
		return metrics.OutcomeInsufficient
	}
	return metrics.OutcomeScored
}

func writeScoringError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusServiceUnavailable, "scoring interrupted", nil)
	default:
		writeError(w, r, http.StatusUnprocessableEntity, err.Error(), nil)
	}
}
