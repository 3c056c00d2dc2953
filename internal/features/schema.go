// Package features turns ordered daily records into a named feature matrix
// with rolling, ratio and optional z-score normalized columns.
package features

import (
	"fmt"
	"time"
)

// Kind classifies how a feature column was derived.
type Kind string

// Feature kinds.
const (
	KindBase        Kind = "base"
	KindRollingMean Kind = "rolling_mean"
	KindRollingStd  Kind = "rolling_std"
	KindVariability Kind = "variability"
	KindRatio       Kind = "ratio"
)

// Descriptor names one column of a Matrix.
type Descriptor struct {
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	Source string `json:"source,omitempty"`
}

// Schema is the ordered column list of a Matrix. Downstream stages look
// columns up by name rather than relying on position.
type Schema struct {
	index   map[string]int
	columns []Descriptor
}

// NewSchema builds a schema from descriptors. Duplicate names keep the first occurrence.
func NewSchema(descs ...Descriptor) *Schema {
	s := &Schema{index: make(map[string]int, len(descs))}
	for _, d := range descs {
		s.add(d)
	}
	return s
}

func (s *Schema) add(d Descriptor) bool {
	if _, exists := s.index[d.Name]; exists {
		return false
	}
	s.index[d.Name] = len(s.columns)
	s.columns = append(s.columns, d)
	return true
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.columns)
}

// Index returns the column position of name.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Has reports whether the schema contains name.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Descriptor returns the descriptor at position i.
func (s *Schema) Descriptor(i int) Descriptor {
	return s.columns[i]
}

// Names returns the column names in order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.columns))
	for i, d := range s.columns {
		names[i] = d.Name
	}
	return names
}

// Descriptors returns a copy of the ordered descriptors.
func (s *Schema) Descriptors() []Descriptor {
	out := make([]Descriptor, len(s.columns))
	copy(out, s.columns)
	return out
}

// Matrix is a day-by-feature table. Rows[i] holds the values for Dates[i]
// in Schema order.
type Matrix struct {
	Schema *Schema
	Dates  []time.Time
	Rows   [][]float64
}

// Len returns the number of rows.
func (m *Matrix) Len() int {
	return len(m.Rows)
}

// Column returns a copy of the named column.
func (m *Matrix) Column(name string) ([]float64, bool) {
	j, ok := m.Schema.Index(name)
	if !ok {
		return nil, false
	}
	return m.ColumnAt(j), true
}

// ColumnAt returns a copy of column j.
func (m *Matrix) ColumnAt(j int) []float64 {
	col := make([]float64, len(m.Rows))
	for i, row := range m.Rows {
		col[i] = row[j]
	}
	return col
}

// Value returns the named feature on row i.
func (m *Matrix) Value(i int, name string) (float64, error) {
	j, ok := m.Schema.Index(name)
	if !ok {
		return 0, fmt.Errorf("unknown feature %q", name)
	}
	if i < 0 || i >= len(m.Rows) {
		return 0, fmt.Errorf("row %d out of range [0,%d)", i, len(m.Rows))
	}
	return m.Rows[i][j], nil
}

// Tail returns a matrix sharing the schema with only the last n rows copied.
func (m *Matrix) Tail(n int) *Matrix {
	start := 0
	if n > 0 && n < len(m.Rows) {
		start = len(m.Rows) - n
	}
	out := &Matrix{
		Schema: m.Schema,
		Dates:  append([]time.Time(nil), m.Dates[start:]...),
		Rows:   make([][]float64, 0, len(m.Rows)-start),
	}
	for _, row := range m.Rows[start:] {
		out.Rows = append(out.Rows, append([]float64(nil), row...))
	}
	return out
}

// LastDate returns the date of the final row, or the zero time for an empty matrix.
func (m *Matrix) LastDate() time.Time {
	if len(m.Dates) == 0 {
		return time.Time{}
	}
	return m.Dates[len(m.Dates)-1]
}
