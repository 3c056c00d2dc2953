package forecast

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/Priyansh6747/Nutrilio/internal/stats"
)

// DefaultSamples is the trajectory count of a zero-valued SamplingOracle.
const DefaultSamples = 20

// SamplingOracle is a baseline forecaster: a random walk whose steps are the
// series' mean day-to-day change plus a residual resampled from history.
// Output is a pure function of the seed and the series.
type SamplingOracle struct {
	Samples int
	Seed    uint64
}

// Forecast implements Oracle.
func (o SamplingOracle) Forecast(ctx context.Context, series []float64, horizon int) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := o.Samples
	if n <= 0 {
		n = DefaultSamples
	}

	last := 0.0
	if len(series) > 0 {
		last = series[len(series)-1]
	}

	diffs := make([]float64, 0, len(series))
	for i := 1; i < len(series); i++ {
		diffs = append(diffs, series[i]-series[i-1])
	}
	drift := stats.Mean(diffs)
	residuals := make([]float64, len(diffs))
	for i, d := range diffs {
		residuals[i] = d - drift
	}

	rng := rand.New(rand.NewPCG(o.Seed, seriesHash(series)))

	out := make([][]float64, n)
	for s := range out {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		traj := make([]float64, horizon)
		level := last
		for h := range traj {
			level += drift
			if len(residuals) > 0 {
				level += residuals[rng.IntN(len(residuals))]
			}
			traj[h] = level
		}
		out[s] = traj
	}
	return out, nil
}

func seriesHash(series []float64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range series {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
