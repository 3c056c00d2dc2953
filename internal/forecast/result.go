package forecast

import (
	"time"

	"github.com/Priyansh6747/Nutrilio/internal/features"
	"github.com/Priyansh6747/Nutrilio/internal/stats"
)

// Statistic selects one summary of the sample distribution.
type Statistic string

// Summary statistics computed across samples.
const (
	StatMedian Statistic = "median"
	StatMean   Statistic = "mean"
	StatLow    Statistic = "p10"
	StatHigh   Statistic = "p90"
)

// Result holds sampled trajectories and their per-step summaries.
// Summaries are indexed [step][feature]; Samples is [sample][step][feature].
type Result struct {
	Start   time.Time
	Schema  *features.Schema
	Median  [][]float64
	Mean    [][]float64
	Low     [][]float64
	High    [][]float64
	Samples [][][]float64
	Horizon int
}

func newResult(schema *features.Schema, start time.Time, samples [][][]float64) *Result {
	horizon := len(samples[0])
	width := schema.Len()

	res := &Result{
		Start:   start,
		Schema:  schema,
		Horizon: horizon,
		Samples: samples,
		Median:  grid(horizon, width),
		Mean:    grid(horizon, width),
		Low:     grid(horizon, width),
		High:    grid(horizon, width),
	}

	column := make([]float64, len(samples))
	for h := 0; h < horizon; h++ {
		for j := 0; j < width; j++ {
			for s := range samples {
				column[s] = samples[s][h][j]
			}
			res.Median[h][j] = stats.Median(column)
			res.Mean[h][j] = stats.Mean(column)
			res.Low[h][j] = stats.Percentile(column, 10)
			res.High[h][j] = stats.Percentile(column, 90)
		}
	}
	return res
}

func grid(rows, cols int) [][]float64 {
	g := make([][]float64, rows)
	for i := range g {
		g[i] = make([]float64, cols)
	}
	return g
}

// Dates returns the forecast days, start+1 through start+Horizon.
func (r *Result) Dates() []time.Time {
	dates := make([]time.Time, r.Horizon)
	for h := range dates {
		dates[h] = r.Start.AddDate(0, 0, h+1)
	}
	return dates
}

// Denormalize returns a copy of r mapped back to the original feature scales.
// Summaries are recomputed from the rescaled samples.
func (r *Result) Denormalize(params features.NormalizationParams) *Result {
	if params.IsEmpty() {
		return r
	}
	samples := make([][][]float64, len(r.Samples))
	for s, traj := range r.Samples {
		samples[s] = make([][]float64, len(traj))
		for h, row := range traj {
			samples[s][h] = params.DenormalizeRow(r.Schema, row)
		}
	}
	return newResult(r.Schema, r.Start, samples)
}

// Matrix exposes one summary statistic as a feature matrix dated over the
// forecast period.
func (r *Result) Matrix(stat Statistic) *features.Matrix {
	var src [][]float64
	switch stat {
	case StatMean:
		src = r.Mean
	case StatLow:
		src = r.Low
	case StatHigh:
		src = r.High
	default:
		src = r.Median
	}
	rows := make([][]float64, len(src))
	for i, row := range src {
		rows[i] = append([]float64(nil), row...)
	}
	return &features.Matrix{
		Schema: r.Schema,
		Dates:  r.Dates(),
		Rows:   rows,
	}
}
