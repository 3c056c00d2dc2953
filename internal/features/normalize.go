package features

import (
	"github.com/Priyansh6747/Nutrilio/internal/stats"
)

// Stat is the per-column mean and population std used for z-scoring.
type Stat struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// NormalizationParams records how each column was scaled. It is returned by
// Build and owned by the caller; the zero value means no normalization.
type NormalizationParams struct {
	stats map[string]Stat
	order []string
}

func newNormalizationParams(n int) NormalizationParams {
	return NormalizationParams{
		stats: make(map[string]Stat, n),
		order: make([]string, 0, n),
	}
}

func (p *NormalizationParams) set(name string, s Stat) {
	if _, ok := p.stats[name]; !ok {
		p.order = append(p.order, name)
	}
	p.stats[name] = s
}

// IsEmpty reports whether no column was normalized.
func (p NormalizationParams) IsEmpty() bool {
	return len(p.stats) == 0
}

// Len returns the number of recorded columns.
func (p NormalizationParams) Len() int {
	return len(p.stats)
}

// Names returns the normalized column names in schema order.
func (p NormalizationParams) Names() []string {
	return append([]string(nil), p.order...)
}

// Get returns the statistics recorded for name.
func (p NormalizationParams) Get(name string) (Stat, bool) {
	s, ok := p.stats[name]
	return s, ok
}

// Normalize maps a raw value of column name onto its z-score.
// Constant columns map to 0. Unknown columns pass through.
func (p NormalizationParams) Normalize(name string, x float64) float64 {
	s, ok := p.stats[name]
	if !ok {
		return x
	}
	if s.Std < stats.Epsilon {
		return 0
	}
	return (x - s.Mean) / s.Std
}

// Denormalize maps a z-score back to the original scale of column name.
// Constant columns return their mean. Unknown columns pass through.
func (p NormalizationParams) Denormalize(name string, z float64) float64 {
	s, ok := p.stats[name]
	if !ok {
		return z
	}
	if s.Std < stats.Epsilon {
		return s.Mean
	}
	return z*s.Std + s.Mean
}

// DenormalizeRow rescales one row laid out in schema order into a new slice.
func (p NormalizationParams) DenormalizeRow(schema *Schema, row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = p.Denormalize(schema.Descriptor(j).Name, v)
	}
	return out
}

// DenormalizeMatrix returns a rescaled copy of m.
func (p NormalizationParams) DenormalizeMatrix(m *Matrix) *Matrix {
	out := &Matrix{
		Schema: m.Schema,
		Dates:  append(m.Dates[:0:0], m.Dates...),
		Rows:   make([][]float64, len(m.Rows)),
	}
	for i, row := range m.Rows {
		out.Rows[i] = p.DenormalizeRow(m.Schema, row)
	}
	return out
}

// normalizeColumns z-scores every column in place and records its stats.
func normalizeColumns(names []string, cols [][]float64) NormalizationParams {
	params := newNormalizationParams(len(names))
	for j, col := range cols {
		mean := stats.Mean(col)
		std := stats.Std(col)
		params.set(names[j], Stat{Mean: mean, Std: std})
		for i, v := range col {
			if std < stats.Epsilon {
				col[i] = 0
				continue
			}
			col[i] = (v - mean) / std
		}
	}
	return params
}
