// Package stats computes distribution statistics over profit series.
// Shared by the backtest engine and report generation.
package stats

import (
	"math"
	"sort"
)

// Distribution summarizes a profit series. Order-dependent fields
// (MaxDrawdown, MaxConsecutiveLosses) are computed over the input order,
// which callers must make chronological.
type Distribution struct {
	Count  int
	Wins   int
	Losses int

	WinRate float64
	Sum     float64
	Mean    float64
	Median  float64
	P10     float64
	P90     float64
	Min     float64
	Max     float64
	Stddev  float64

	MaxDrawdown          float64
	MaxConsecutiveLosses int
}

// Compute builds a Distribution from profits in chronological order.
// A profit strictly greater than zero counts as a win.
func Compute(profits []float64) Distribution {
	n := len(profits)
	if n == 0 {
		return Distribution{}
	}

	d := Distribution{Count: n}
	for _, p := range profits {
		d.Sum += p
		if p > 0 {
			d.Wins++
		} else {
			d.Losses++
		}
	}
	d.WinRate = float64(d.Wins) / float64(n)
	d.Mean = d.Sum / float64(n)
	d.Stddev = stddev(profits, d.Mean)

	sorted := make([]float64, n)
	copy(sorted, profits)
	sort.Float64s(sorted)
	d.Min = sorted[0]
	d.Max = sorted[n-1]
	d.Median = Percentile(sorted, 0.50)
	d.P10 = Percentile(sorted, 0.10)
	d.P90 = Percentile(sorted, 0.90)

	d.MaxDrawdown = maxDrawdown(profits)
	d.MaxConsecutiveLosses = maxConsecutiveLosses(profits)
	return d
}

// Percentile uses linear interpolation. sorted must be pre-sorted ASC;
// p is the percentile fraction (0.10 = 10th percentile).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// stddev is the sample standard deviation (n-1 denominator).
func stddev(profits []float64, mean float64) float64 {
	n := len(profits)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, p := range profits {
		diff := p - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// maxDrawdown is the worst peak-to-trough on the cumulative profit curve.
func maxDrawdown(profits []float64) float64 {
	cumulative := 0.0
	peak := 0.0
	worst := 0.0
	for _, p := range profits {
		cumulative += p
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > worst {
			worst = dd
		}
	}
	return worst
}

// maxConsecutiveLosses is the longest run of non-positive profits.
func maxConsecutiveLosses(profits []float64) int {
	longest := 0
	run := 0
	for _, p := range profits {
		if p > 0 {
			run = 0
			continue
		}
		run++
		if run > longest {
			longest = run
		}
	}
	return longest
}
