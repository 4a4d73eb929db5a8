// Package metrics exposes Prometheus instrumentation for the scoring engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog/log"

	"github.com/alphascore/alphascore/internal/domain"
)

// Scoring outcomes used as the scoring duration label.
const (
	OutcomeScored       = "scored"
	OutcomeInsufficient = "insufficient"
	OutcomeError        = "error"
)

// Registry holds all Prometheus metrics for the scoring engine. Each Registry
// carries its own Prometheus registry so independent instances never collide.
type Registry struct {
	// Scoring throughput metrics
	ScoringDuration *prometheus.HistogramVec
	ScoresByTier    *prometheus.CounterVec

	// Data quality metrics
	InsufficientData   prometheus.Counter
	UnavailableFactors *prometheus.CounterVec
	SectorFallbacks    prometheus.Counter

	registry *prometheus.Registry
}

// NewRegistry creates a metrics registry with all scoring engine metrics.
func NewRegistry() *Registry {
	r := &Registry{
		ScoringDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alphascore_scoring_duration_seconds",
				Help:    "Duration of one composite scoring pass in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"outcome"},
		),

		ScoresByTier: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphascore_scores_total",
				Help: "Total number of scored instruments by recommendation tier",
			},
			[]string{"tier"},
		),

		InsufficientData: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "alphascore_insufficient_data_total",
				Help: "Total number of scoring passes with no scorable category",
			},
		),

		UnavailableFactors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphascore_unavailable_factors_total",
				Help: "Total number of factors absent or unusable by category",
			},
			[]string{"category"},
		),

		SectorFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "alphascore_sector_fallbacks_total",
				Help: "Total number of bundles whose sector fell back to default bands",
			},
		),

		registry: prometheus.NewRegistry(),
	}

	r.registry.MustRegister(
		r.ScoringDuration,
		r.ScoresByTier,
		r.InsufficientData,
		r.UnavailableFactors,
		r.SectorFallbacks,
	)

	return r
}

// ScoreTimer tracks the duration of one scoring pass.
type ScoreTimer struct {
	metrics *Registry
	start   time.Time
}

// StartScoreTimer begins timing a scoring pass.
func (r *Registry) StartScoreTimer() *ScoreTimer {
	return &ScoreTimer{metrics: r, start: time.Now()}
}

// Stop completes the timing and records the metric under the given outcome.
func (st *ScoreTimer) Stop(outcome string) {
	duration := time.Since(st.start)
	st.metrics.ScoringDuration.WithLabelValues(outcome).Observe(duration.Seconds())

	log.Debug().
		Str("outcome", outcome).
		Dur("duration", duration).
		Msg("Scoring pass completed")
}

// RecordResult updates tier and data quality counters from one result.
func (r *Registry) RecordResult(result *domain.CompositeResult) {
	if result == nil {
		return
	}

	if result.InsufficientData() {
		r.InsufficientData.Inc()
	} else {
		r.ScoresByTier.WithLabelValues(string(result.Recommendation().Tier)).Inc()
	}

	for _, category := range result.Categories() {
		missing := 0
		for _, factor := range category.Factors {
			if factor.Value == nil {
				missing++
			}
		}
		if missing > 0 {
			r.UnavailableFactors.WithLabelValues(string(category.Category)).Add(float64(missing))
		}
	}
}

// RecordSectorFallback counts a bundle whose sector label resolved nowhere.
func (r *Registry) RecordSectorFallback() {
	r.SectorFallbacks.Inc()
}

// Snapshot is a point-in-time read of the counters, for health endpoints and
// tests that assert on recorded activity.
type Snapshot struct {
	ScoresByTier       map[string]float64 `json:"scores_by_tier"`
	InsufficientData   float64            `json:"insufficient_data"`
	SectorFallbacks    float64            `json:"sector_fallbacks"`
	UnavailableFactors map[string]float64 `json:"unavailable_factors"`
}

// Snapshot reads the current counter values back out of Prometheus.
func (r *Registry) Snapshot() Snapshot {
	snap := Snapshot{
		ScoresByTier:       make(map[string]float64),
		UnavailableFactors: make(map[string]float64),
	}

	metric := &dto.Metric{}
	if err := r.InsufficientData.Write(metric); err == nil {
		snap.InsufficientData = metric.GetCounter().GetValue()
	}
	if err := r.SectorFallbacks.Write(metric); err == nil {
		snap.SectorFallbacks = metric.GetCounter().GetValue()
	}

	families, err := r.registry.Gather()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to gather metrics for snapshot")
		return snap
	}

	for _, family := range families {
		switch family.GetName() {
		case "alphascore_scores_total":
			for _, m := range family.GetMetric() {
				snap.ScoresByTier[labelValue(m, "tier")] = m.GetCounter().GetValue()
			}
		case "alphascore_unavailable_factors_total":
			for _, m := range family.GetMetric() {
				snap.UnavailableFactors[labelValue(m, "category")] = m.GetCounter().GetValue()
			}
		}
	}

	return snap
}

// Handler serves this registry in Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func labelValue(m *dto.Metric, name string) string {
	for _, pair := range m.GetLabel() {
		if pair.GetName() == name {
			return pair.GetValue()
		}
	}
	return ""
}
