package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphascore/alphascore/internal/domain"
)

func TestMapAssignsTiers(t *testing.T) {
	m, err := NewMapper(nil)
	require.NoError(t, err)

	tests := []struct {
		name       string
		score      float64
		tier       domain.Tier
		confidence domain.ConfidenceBand
	}{
		{"floor", 0.0, domain.TierStrongSell, domain.ConfidenceHigh},
		{"deep sell", 0.15, domain.TierStrongSell, domain.ConfidenceHigh},
		{"exactly at sell bound", 0.30, domain.TierSell, domain.ConfidenceLow},
		{"mid hold", 0.50, domain.TierHold, domain.ConfidenceHigh},
		{"exactly at buy bound", 0.58, domain.TierBuy, domain.ConfidenceLow},
		{"buy near strong bound", 0.66, domain.TierBuy, domain.ConfidenceMedium},
		{"strong buy", 0.85, domain.TierStrongBuy, domain.ConfidenceHigh},
		{"ceiling", 1.0, domain.TierStrongBuy, domain.ConfidenceHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := m.Map(tt.score)
			assert.Equal(t, tt.tier, rec.Tier)
			assert.Equal(t, tt.confidence, rec.Confidence)
		})
	}
}

func TestMapMarginIsBoundaryDistance(t *testing.T) {
	m, err := NewMapper(nil)
	require.NoError(t, err)

	rec := m.Map(0.58)
	assert.InDelta(t, 0.0, rec.Margin, 1e-9)

	rec = m.Map(0.64)
	assert.InDelta(t, 0.06, rec.Margin, 1e-9)

	rec = m.Map(0.50)
	assert.InDelta(t, 0.08, rec.Margin, 1e-9)
}

func TestMapMonotonicInScore(t *testing.T) {
	m, err := NewMapper(nil)
	require.NoError(t, err)

	rank := map[domain.Tier]int{}
	for i, tier := range domain.Tiers() {
		rank[tier] = i
	}

	prev := -1
	for score := 0.0; score <= 1.0; score += 0.001 {
		rec := m.Map(score)
		r := rank[rec.Tier]
		assert.GreaterOrEqual(t, r, prev, "tier regressed at score %.3f", score)
		prev = r
	}
}

func TestMapClampsOutOfRangeScores(t *testing.T) {
	m, err := NewMapper(nil)
	require.NoError(t, err)

	assert.Equal(t, domain.TierStrongBuy, m.Map(1.7).Tier)
	assert.Equal(t, domain.TierStrongSell, m.Map(-0.4).Tier)
}

func TestNewMapperRejectsNonAscendingBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds[3].Min = 0.40 // below HOLD's 0.42

	_, err := NewMapper(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strictly ascending")
}

func TestNewMapperRejectsNonZeroFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds[0].Min = 0.05

	_, err := NewMapper(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be 0")
}

func TestNewMapperRejectsReorderedTiers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds[1].Tier = string(domain.TierHold)

	_, err := NewMapper(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected SELL")
}

func TestNewMapperRejectsInvertedConfidenceMargins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Confidence.MediumMargin = 0.10

	_, err := NewMapper(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "medium_margin")
}
