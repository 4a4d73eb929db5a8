package prep

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candleSeries(closes []float64, volume float64) []Candle {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	candles := make([]Candle, len(closes))
	for i, c := range closes {
		candles[i] = Candle{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    volume,
		}
	}
	return candles
}

func growthCloses(n int, daily float64) []float64 {
	closes := make([]float64, n)
	price := 100.0
	for i := range closes {
		closes[i] = price
		price *= 1 + daily
	}
	return closes
}

func flatCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100.0
	}
	return closes
}

func TestFromCandlesComputesMomentum(t *testing.T) {
	candles := candleSeries(growthCloses(40, 0.01), 1000)

	td, err := FromCandles(candles)
	require.NoError(t, err)

	require.NotNil(t, td.Momentum1D)
	require.NotNil(t, td.Momentum5D)
	require.NotNil(t, td.Momentum20D)

	assert.InDelta(t, 0.01, *td.Momentum1D, 1e-9)
	assert.InDelta(t, math.Pow(1.01, 5)-1, *td.Momentum5D, 1e-9)
	assert.InDelta(t, math.Pow(1.01, 20)-1, *td.Momentum20D, 1e-9)

	assert.Equal(t, candles[len(candles)-1].Timestamp, td.Timestamp)
}

func TestFromCandlesUptrendIndicators(t *testing.T) {
	td, err := FromCandles(candleSeries(growthCloses(60, 0.01), 1000))
	require.NoError(t, err)

	require.NotNil(t, td.RSI14)
	assert.Greater(t, *td.RSI14, 90.0, "steady uptrend should pin RSI high")

	require.NotNil(t, td.MACDHist)
	assert.Greater(t, *td.MACDHist, 0.0, "uptrend should hold the histogram positive")

	require.NotNil(t, td.VolumeTrend)
	assert.InDelta(t, 1.0, *td.VolumeTrend, 1e-9)
}

func TestFromCandlesFlatSeries(t *testing.T) {
	td, err := FromCandles(candleSeries(flatCloses(60), 1000))
	require.NoError(t, err)

	require.NotNil(t, td.Momentum1D)
	assert.Zero(t, *td.Momentum1D)

	require.NotNil(t, td.Momentum20D)
	assert.Zero(t, *td.Momentum20D)

	if td.MACDHist != nil {
		assert.InDelta(t, 0.0, *td.MACDHist, 1e-12)
	}

	require.NotNil(t, td.VolumeTrend)
	assert.InDelta(t, 1.0, *td.VolumeTrend, 1e-9)
}

func TestFromCandlesVolumeSpike(t *testing.T) {
	candles := candleSeries(flatCloses(60), 1000)
	for i := len(candles) - volumeRecentBars; i < len(candles); i++ {
		candles[i].Volume = 3000
	}

	td, err := FromCandles(candles)
	require.NoError(t, err)

	require.NotNil(t, td.VolumeTrend)
	assert.InDelta(t, 3.0, *td.VolumeTrend, 1e-9)
}

func TestFromCandlesShortHistory(t *testing.T) {
	td, err := FromCandles(candleSeries(flatCloses(3), 1000))
	require.NoError(t, err)

	assert.NotNil(t, td.Momentum1D)
	assert.Nil(t, td.Momentum5D)
	assert.Nil(t, td.Momentum20D)
	assert.Nil(t, td.RSI14)
	assert.Nil(t, td.MACDHist)
	assert.Nil(t, td.VolumeTrend)

	td, err = FromCandles(candleSeries(flatCloses(1), 1000))
	require.NoError(t, err)
	assert.Nil(t, td.Momentum1D)
}

func TestFromCandlesRejectsBadHistory(t *testing.T) {
	_, err := FromCandles(nil)
	assert.ErrorContains(t, err, "empty")

	bad := candleSeries(flatCloses(5), 1000)
	bad[2].Close = 0
	_, err = FromCandles(bad)
	assert.ErrorContains(t, err, "non-positive close")

	scrambled := candleSeries(flatCloses(5), 1000)
	scrambled[3].Timestamp = scrambled[1].Timestamp
	_, err = FromCandles(scrambled)
	assert.ErrorContains(t, err, "chronological")
}
