package chart

import (
	"math/rand"
	"time"
)

const (
	seriesWindow   = 24 * time.Hour
	seriesInterval = 30 * time.Minute
)

// Series is a simulated metric history ending at End.
type Series struct {
	Times      []time.Time
	Values     []float64
	AlertIndex int
}

// Simulate builds a 24h series sampled every 30 minutes that crosses threshold.
// A raised series peaks close to the end; a resolved one peaks in the middle,
// decays, and ends below the threshold.
func Simulate(threshold float64, resolved bool, end time.Time, rng *rand.Rand) Series {
	n := int(seriesWindow / seriesInterval)

	base, peak, settled := 50.0, 95.0, 30.0
	if threshold > 0 {
		base, peak, settled = threshold*0.7, threshold*1.2, threshold*0.6
	}

	s := Series{Times: make([]time.Time, n), Values: make([]float64, n)}
	for i := 0; i < n; i++ {
		s.Times[i] = end.Add(-time.Duration(n-1-i) * seriesInterval)
		s.Values[i] = base + rng.Float64()*20 - 10
	}

	if resolved {
		s.AlertIndex = n / 2
	} else {
		lo := n * 8 / 10
		s.AlertIndex = lo + rng.Intn(n-lo)
	}
	s.Values[s.AlertIndex] = peak
	for i := 1; i < 4 && s.AlertIndex-i >= 0; i++ {
		s.Values[s.AlertIndex-i] = peak * (0.9 - float64(i)*0.1)
	}

	if resolved {
		for i := 1; i < 10 && s.AlertIndex+i < n; i++ {
			decay := 1 - float64(i)*0.1
			if decay < 0.4 {
				decay = 0.4
			}
			s.Values[s.AlertIndex+i] = peak * decay
		}
		for i := n - 5; i < n; i++ {
			if i > s.AlertIndex {
				s.Values[i] = settled
			}
		}
	}
	return s
}
