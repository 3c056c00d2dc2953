// Package stats provides the descriptive statistics shared by the feature,
// forecast and insight stages.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/Priyansh6747/Nutrilio/internal/common"
)

// Epsilon is the near-zero guard used by every ratio in the pipeline.
const Epsilon = common.Epsilon

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Std returns the population standard deviation (ddof=0).
func Std(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(values, nil)
	return std
}

// SampleStd returns the sample standard deviation (ddof=1).
// Fewer than two values yield 0.
func SampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// Median returns the 50th percentile.
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// Percentile returns the p-th percentile (0..100) using linear interpolation
// between closest ranks, rank = p/100*(n-1). stat.Quantile's LinInterp
// interpolates on p*n instead and gives 2.5 as the median of 1..5, so the
// forecast bands keep their own rule. The input slice is not modified.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Clip bounds v to [lo, hi].
func Clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// SafeDiv divides by (den + Epsilon) and maps non-finite results to 0.
func SafeDiv(num, den float64) float64 {
	r := num / (den + Epsilon)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Tail returns the last n values, or all of them when there are fewer.
func Tail(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
