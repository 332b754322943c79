// Package indicators computes the momentum indicator series the entry signal
// is built from: RSI, a moving average of RSI, and rate-of-change.
package indicators

import (
	"math"

	"github.com/rustyeddy/trendbot/market"
)

// lossEpsilon guards the RS division when the trailing window holds no losses.
const lossEpsilon = 1e-6

// Config selects the trailing window sizes.
type Config struct {
	Period    int // RSI lookback
	MAWindow  int // moving average of RSI
	ROCWindow int // rate-of-change lookback
}

// DefaultConfig returns the production windows: RSI(14), MA(10), ROC(5).
func DefaultConfig() Config {
	return Config{Period: 14, MAWindow: 10, ROCWindow: 5}
}

// Row is one aligned slice across all three series. Entries inside the
// warm-up window are NaN; use Defined before reading them.
type Row struct {
	RSI   float64
	RSIMA float64
	ROC   float64
}

// Set holds the computed series, parallel to the input bars.
type Set struct {
	RSI   []float64
	RSIMA []float64
	ROC   []float64
}

// Defined reports whether an indicator value is past its warm-up window.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

func (s Set) Len() int {
	return len(s.RSI)
}

func (s Set) Row(i int) Row {
	return Row{RSI: s.RSI[i], RSIMA: s.RSIMA[i], ROC: s.ROC[i]}
}

// Last returns the most recent two rows. ok is false when fewer than two
// bars were computed.
func (s Set) Last() (curr, prev Row, ok bool) {
	n := s.Len()
	if n < 2 {
		return Row{}, Row{}, false
	}
	return s.Row(n - 1), s.Row(n - 2), true
}

// Compute derives the full indicator set from a chronological bar sequence.
// It is a pure function: the result depends only on bars and cfg, and it is
// recomputed from scratch on every evaluation cycle.
func Compute(bars []market.Bar, cfg Config) Set {
	closes := market.Closes(bars)
	n := len(closes)

	set := Set{
		RSI:   nanSlice(n),
		RSIMA: nanSlice(n),
		ROC:   nanSlice(n),
	}
	if n == 0 {
		return set
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	// RSI over a simple rolling mean of the trailing Period deltas.
	// The first defined value sits at index Period (Period deltas available).
	for i := cfg.Period; i < n; i++ {
		var sumGain, sumLoss float64
		for j := i - cfg.Period + 1; j <= i; j++ {
			sumGain += gains[j]
			sumLoss += losses[j]
		}
		avgGain := sumGain / float64(cfg.Period)
		avgLoss := sumLoss / float64(cfg.Period)

		switch {
		case avgLoss == 0 && avgGain == 0:
			// Flat window: no movement either way reads as full strength.
			set.RSI[i] = 100
		case avgLoss == 0:
			set.RSI[i] = 100 - 100/(1+avgGain/lossEpsilon)
		default:
			set.RSI[i] = 100 - 100/(1+avgGain/avgLoss)
		}
	}

	// Moving average over the defined RSI values inside the trailing window.
	// Defined as soon as RSI itself is, so a short post-warm-up history still
	// produces a usable trend reference.
	for i := cfg.Period; i < n; i++ {
		var sum float64
		var count int
		for j := i - cfg.MAWindow + 1; j <= i; j++ {
			if j < 0 || !Defined(set.RSI[j]) {
				continue
			}
			sum += set.RSI[j]
			count++
		}
		if count > 0 {
			set.RSIMA[i] = sum / float64(count)
		}
	}

	for i := cfg.ROCWindow; i < n; i++ {
		base := closes[i-cfg.ROCWindow]
		if base == 0 {
			continue
		}
		set.ROC[i] = (closes[i]/base - 1) * 100
	}

	return set
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
