package http

import (
	"time"

	"github.com/alphascore/alphascore/internal/domain"
	"github.com/alphascore/alphascore/internal/domain/bench"
	"github.com/alphascore/alphascore/internal/explain"
)

// ScoreRequest asks for a composite score for one instrument.
type ScoreRequest struct {
	Bundle *domain.RawSignalBundle `json:"bundle" validate:"required"`

	// AsOf pins the scoring instant. Omitted means "now".
	AsOf *time.Time `json:"as_of,omitempty"`

	// Explain attaches a structured explanation to the response.
	Explain bool `json:"explain,omitempty"`
}

// ScoreResponse carries one scored instrument.
type ScoreResponse struct {
	Result      *domain.CompositeResult `json:"result"`
	Explanation *explain.Explanation    `json:"explanation,omitempty"`
}

// BatchScoreRequest asks for composite scores for a set of instruments.
type BatchScoreRequest struct {
	Bundles []domain.RawSignalBundle `json:"bundles" validate:"required,min=1,max=500,dive"`
	AsOf    *time.Time               `json:"as_of,omitempty"`
}

// BatchScoreItem is one instrument's outcome inside a batch response.
// Error is set when that instrument could not be scored at all.
type BatchScoreItem struct {
	Symbol string                  `json:"symbol"`
	Result *domain.CompositeResult `json:"result,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

// BatchScoreResponse carries per-instrument outcomes in request order.
type BatchScoreResponse struct {
	AsOf    time.Time        `json:"as_of"`
	Scored  int              `json:"scored"`
	Failed  int              `json:"failed"`
	Results []BatchScoreItem `json:"results"`
}

// BenchmarksResponse reports the benchmark bands the scorer would use for a
// sector label.
type BenchmarksResponse struct {
	Sector   string            `json:"sector"`
	Resolved string            `json:"resolved"`
	FellBack bool              `json:"fell_back"`
	Version  string            `json:"version"`
	Bands    bench.MetricBands `json:"bands"`
}

// HealthResponse reports liveness and scoring activity since start.
type HealthResponse struct {
	Status    string        `json:"status"`
	Version   string        `json:"version"`
	Uptime    string        `json:"uptime"`
	Timestamp time.Time     `json:"timestamp"`
	Scoring   ScoringHealth `json:"scoring"`
}

// ScoringHealth summarizes scoring outcomes over the process lifetime.
type ScoringHealth struct {
	ScoresTotal       float64 `json:"scores_total"`
	InsufficientData  float64 `json:"insufficient_data"`
	InsufficientRatio float64 `json:"insufficient_ratio"`
	SectorFallbacks   float64 `json:"sector_fallbacks"`
}

// ErrorResponse is the uniform error payload for all endpoints.
type ErrorResponse struct {
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Code      int               `json:"code"`
	RequestID string            `json:"request_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Details   []ValidationError `json:"details,omitempty"`
}

// ValidationError describes one field that failed request validation.
type ValidationError struct {
	Code    string            `json:"code"`
	Field   string            `json:"field"`
	Message string            `json:"message"`
	Params  map[string]string `json:"params,omitempty"`
}
