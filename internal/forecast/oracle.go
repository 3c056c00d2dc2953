// Package forecast runs a probabilistic univariate forecaster over every
// column of a feature matrix and summarizes the sampled trajectories.
package forecast

import "context"

// Oracle produces sampled future trajectories for one univariate series.
// The result is indexed [sample][step] and every trajectory must have
// exactly horizon steps. Implementations must honor ctx cancellation.
type Oracle interface {
	Forecast(ctx context.Context, series []float64, horizon int) ([][]float64, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, series []float64, horizon int) ([][]float64, error)

// Forecast calls f.
func (f OracleFunc) Forecast(ctx context.Context, series []float64, horizon int) ([][]float64, error) {
	return f(ctx, series, horizon)
}
