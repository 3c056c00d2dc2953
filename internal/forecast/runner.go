package forecast

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Priyansh6747/Nutrilio/internal/common"
	"github.com/Priyansh6747/Nutrilio/internal/features"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel oracle calls when none is configured.
const DefaultConcurrency = 4

// Runner fans a matrix out to the oracle one column at a time.
type Runner struct {
	oracle      Oracle
	logger      *slog.Logger
	concurrency int
}

// NewRunner creates a Runner. A non-positive concurrency uses DefaultConcurrency.
func NewRunner(oracle Oracle, concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Runner{
		oracle:      oracle,
		concurrency: concurrency,
		logger:      slog.Default(),
	}
}

// Run forecasts every column of m for horizon days past its last date.
// Any oracle error, or cancellation of ctx, fails the whole run.
func (r *Runner) Run(ctx context.Context, m *features.Matrix, horizon int) (*Result, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: got %d", common.ErrInvalidHorizon, horizon)
	}
	if m == nil || m.Len() == 0 {
		return nil, common.ErrEmptyRecords
	}

	width := m.Schema.Len()
	if width == 0 {
		return nil, fmt.Errorf("%w: matrix has no feature columns", common.ErrEmptyRecords)
	}
	perColumn := make([][][]float64, width)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for j := 0; j < width; j++ {
		name := m.Schema.Descriptor(j).Name
		series := m.ColumnAt(j)
		g.Go(func() error {
			samples, err := r.oracle.Forecast(gctx, series, horizon)
			if err != nil {
				return fmt.Errorf("%w: feature %q: %w", common.ErrOracleFailed, name, err)
			}
			if err := checkSamples(samples, horizon); err != nil {
				return fmt.Errorf("feature %q: %w", name, err)
			}
			perColumn[j] = samples
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("forecast canceled: %w", err)
	}

	nSamples := len(perColumn[0])
	for j, s := range perColumn {
		if len(s) != nSamples {
			return nil, fmt.Errorf("%w: feature %q returned %d samples, expected %d",
				common.ErrOracleFailed, m.Schema.Descriptor(j).Name, len(s), nSamples)
		}
	}

	samples := make([][][]float64, nSamples)
	for s := range samples {
		samples[s] = make([][]float64, horizon)
		for h := 0; h < horizon; h++ {
			row := make([]float64, width)
			for j := 0; j < width; j++ {
				row[j] = perColumn[j][s][h]
			}
			samples[s][h] = row
		}
	}

	res := newResult(m.Schema, m.LastDate(), samples)

	r.logger.Debug("forecast complete",
		"features", width,
		"horizon", horizon,
		"samples", nSamples)

	return res, nil
}

func checkSamples(samples [][]float64, horizon int) error {
	if len(samples) == 0 {
		return fmt.Errorf("%w: no samples returned", common.ErrOracleFailed)
	}
	for i, traj := range samples {
		if len(traj) != horizon {
			return fmt.Errorf("%w: sample %d has %d steps, expected %d",
				common.ErrHorizonMismatch, i, len(traj), horizon)
		}
	}
	return nil
}
