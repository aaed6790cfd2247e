// Package market defines the candle data model shared by the engine,
// indicators and rule compiler.
package market

import (
	"fmt"
	"time"
)

// Candle represents one OHLCV (Open, High, Low, Close, Volume) bar.
// Candles are produced by an external data source and are never mutated
// by the engine.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Validate checks the internal price invariant of a single bar:
// Low <= Open,Close <= High and a non-negative volume.
func (c Candle) Validate() error {
	if c.Low > c.High {
		return fmt.Errorf("candle at %s: low %.6f above high %.6f", c.Time.Format(time.RFC3339), c.Low, c.High)
	}
	if c.Open < c.Low || c.Open > c.High {
		return fmt.Errorf("candle at %s: open %.6f outside [%.6f, %.6f]", c.Time.Format(time.RFC3339), c.Open, c.Low, c.High)
	}
	if c.Close < c.Low || c.Close > c.High {
		return fmt.Errorf("candle at %s: close %.6f outside [%.6f, %.6f]", c.Time.Format(time.RFC3339), c.Close, c.Low, c.High)
	}
	if c.Volume < 0 {
		return fmt.Errorf("candle at %s: negative volume %.6f", c.Time.Format(time.RFC3339), c.Volume)
	}
	return nil
}

// ValidateSeries checks that candles are well-formed and ordered by time.
// Timestamps must be strictly increasing; equal timestamps are accepted
// only when allowDuplicates is set. The series is never reordered.
func ValidateSeries(candles []Candle, allowDuplicates bool) error {
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("bar %d: %w", i, err)
		}
		if i == 0 {
			continue
		}
		prev := candles[i-1].Time
		if c.Time.Before(prev) {
			return fmt.Errorf("bar %d: out-of-order timestamp %s before %s",
				i, c.Time.Format(time.RFC3339), prev.Format(time.RFC3339))
		}
		if !allowDuplicates && c.Time.Equal(prev) {
			return fmt.Errorf("bar %d: duplicate timestamp %s", i, c.Time.Format(time.RFC3339))
		}
	}
	return nil
}
