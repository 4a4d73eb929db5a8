// Package prep derives scoring inputs from raw market history so callers
// holding only candles can still populate a signal bundle.
package prep

import (
	"fmt"
	"math"
	"time"

	talib "github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"github.com/alphascore/alphascore/internal/domain"
)

const (
	rsiPeriod      = 14
	macdFast       = 12
	macdSlow       = 26
	macdSignalSpan = 9

	volumeRecentBars   = 5
	volumeBaselineBars = 20
)

// Candle is one OHLCV bar. History passed to FromCandles must be in
// chronological order, oldest first.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// FromCandles computes the technical signal group from price history.
// Indicators that lack the depth they need come back nil rather than
// failing the whole group; only structurally unusable history is an error.
func FromCandles(candles []Candle) (*domain.TechnicalData, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("candle history is empty")
	}

	for i, c := range candles {
		if c.Close <= 0 {
			return nil, fmt.Errorf("candle %d has non-positive close %.4f", i, c.Close)
		}
		if i > 0 && !c.Timestamp.After(candles[i-1].Timestamp) {
			return nil, fmt.Errorf("candle %d is out of chronological order", i)
		}
	}

	closes := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		volumes[i] = c.Volume
	}

	td := &domain.TechnicalData{
		Timestamp:   candles[len(candles)-1].Timestamp,
		Momentum1D:  momentum(closes, 1),
		Momentum5D:  momentum(closes, 5),
		Momentum20D: momentum(closes, 20),
		RSI14:       rsi(closes),
		MACDHist:    macdHistogram(closes),
		VolumeTrend: volumeTrend(volumes),
	}
	return td, nil
}

// momentum is the fractional price change over the trailing span.
func momentum(closes []float64, span int) *float64 {
	if len(closes) < span+1 {
		return nil
	}

	last := closes[len(closes)-1]
	base := closes[len(closes)-1-span]
	return domain.Float(last/base - 1)
}

func rsi(closes []float64) *float64 {
	if len(closes) < rsiPeriod+1 {
		return nil
	}

	series := talib.Rsi(closes, rsiPeriod)
	return lastValid(series)
}

// macdHistogram returns the MACD histogram as a fraction of the latest
// close, so the value is comparable across price levels.
func macdHistogram(closes []float64) *float64 {
	// Macd needs slow EMA warmup plus the signal span before the
	// histogram stabilizes.
	if len(closes) < macdSlow+macdSignalSpan {
		return nil
	}

	_, _, hist := talib.Macd(closes, macdFast, macdSlow, macdSignalSpan)
	raw := lastValid(hist)
	if raw == nil {
		return nil
	}

	return domain.Float(*raw / closes[len(closes)-1])
}

// volumeTrend compares recent average volume against the preceding
// baseline window. 1.0 means volume is running at its usual level.
func volumeTrend(volumes []float64) *float64 {
	need := volumeRecentBars + volumeBaselineBars
	if len(volumes) < need {
		return nil
	}

	recent := stat.Mean(volumes[len(volumes)-volumeRecentBars:], nil)
	baseline := stat.Mean(volumes[len(volumes)-need:len(volumes)-volumeRecentBars], nil)
	if baseline <= 0 {
		return nil
	}

	return domain.Float(recent / baseline)
}

func lastValid(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}

	last := series[len(series)-1]
	if math.IsNaN(last) || math.IsInf(last, 0) {
		return nil
	}
	return domain.Float(last)
}
