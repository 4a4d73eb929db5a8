package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphascore/alphascore/internal/domain"
)

var snapAsOf = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func scoredResult() *domain.CompositeResult {
	categories := []domain.CategoryScore{
		{
			Category: domain.CategoryValuation,
			Score:    domain.Float(0.61),
			Factors: []domain.FactorResult{
				{Name: "pe_ratio", Value: domain.Float(0.60)},
				{Name: "pb_ratio", Value: nil},
				{Name: "peg_ratio", Value: nil},
			},
		},
		{
			Category: domain.CategoryMomentum,
			Score:    domain.Float(0.55),
			Factors: []domain.FactorResult{
				{Name: "rsi_14", Value: domain.Float(0.55)},
			},
		},
	}

	rec := domain.Recommendation{Tier: domain.TierBuy, Confidence: domain.ConfidenceMedium, Margin: 0.05}
	return domain.NewCompositeResult("ACME", snapAsOf, 0.63, rec, domain.CapLarge, categories, domain.DataQuality{})
}

func TestRegistriesAreIndependent(t *testing.T) {
	first := NewRegistry()
	second := NewRegistry()

	first.RecordSectorFallback()

	assert.Equal(t, 1.0, first.Snapshot().SectorFallbacks)
	assert.Equal(t, 0.0, second.Snapshot().SectorFallbacks)
}

func TestRecordResultCountsTiersAndGaps(t *testing.T) {
	r := NewRegistry()

	r.RecordResult(scoredResult())
	r.RecordResult(scoredResult())

	snap := r.Snapshot()
	assert.Equal(t, 2.0, snap.ScoresByTier["BUY"])
	assert.Zero(t, snap.InsufficientData)
	assert.Equal(t, 4.0, snap.UnavailableFactors["valuation"])
	assert.NotContains(t, snap.UnavailableFactors, "momentum")
}

func TestRecordResultInsufficientData(t *testing.T) {
	r := NewRegistry()

	insufficient := domain.NewInsufficientResult("GHST", snapAsOf, domain.CapUnknown, nil, domain.DataQuality{})
	r.RecordResult(insufficient)
	r.RecordResult(nil)

	snap := r.Snapshot()
	assert.Equal(t, 1.0, snap.InsufficientData)
	assert.Empty(t, snap.ScoresByTier)
}

func TestHandlerServesExposition(t *testing.T) {
	r := NewRegistry()

	timer := r.StartScoreTimer()
	timer.Stop(OutcomeScored)
	r.RecordResult(scoredResult())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	r.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "alphascore_scoring_duration_seconds")
	assert.Contains(t, string(body), `alphascore_scores_total{tier="BUY"} 1`)
}
