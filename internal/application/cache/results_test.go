package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphascore/alphascore/internal/domain"
)

func testResult(symbol string) *domain.CompositeResult {
	asOf := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := domain.Recommendation{Tier: domain.TierHold, Confidence: domain.ConfidenceHigh, Margin: 0.1}
	return domain.NewCompositeResult(symbol, asOf, 0.5, rec, domain.CapLarge, nil, domain.DataQuality{})
}

func TestCacheRoundTrip(t *testing.T) {
	c := NewResultCache(10, time.Minute)
	defer c.Stop()

	c.Set("k1", testResult("ACME"))

	got, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, "ACME", got.Symbol())

	_, ok = c.Get("k2")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestCacheExpires(t *testing.T) {
	c := NewResultCache(10, 10*time.Millisecond)
	defer c.Stop()

	c.Set("k1", testResult("ACME"))
	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("k1")
	assert.False(t, ok)
}

func TestCacheEvictsLRUWhenFull(t *testing.T) {
	c := NewResultCache(2, time.Minute)
	defer c.Stop()

	c.Set("a", testResult("A"))
	c.Set("b", testResult("B"))

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", testResult("C"))

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestKeyDiscriminatesInputs(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	bundle := &domain.RawSignalBundle{Symbol: "ACME", Sector: "tech"}

	k1, err := Key(bundle, asOf, "2025.3")
	require.NoError(t, err)

	// Same inputs, same key.
	k2, err := Key(bundle, asOf, "2025.3")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	// Different symbol, instant or calibration each change the key.
	other, err := Key(&domain.RawSignalBundle{Symbol: "OTHR", Sector: "tech"}, asOf, "2025.3")
	require.NoError(t, err)
	assert.NotEqual(t, k1, other)

	later, err := Key(bundle, asOf.Add(time.Second), "2025.3")
	require.NoError(t, err)
	assert.NotEqual(t, k1, later)

	recal, err := Key(bundle, asOf, "2025.4")
	require.NoError(t, err)
	assert.NotEqual(t, k1, recal)
}
