package features

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/Priyansh6747/Nutrilio/internal/common"
	"github.com/Priyansh6747/Nutrilio/internal/model"
	"github.com/Priyansh6747/Nutrilio/internal/stats"
)

// DefaultWindowDays is the rolling window used when Options.WindowDays is unset.
const DefaultWindowDays = 7

// TrackedColumns receive rolling mean, rolling std and variability features.
var TrackedColumns = []string{
	model.KeyCalories,
	model.KeyProtein,
	model.KeyCarbs,
	model.KeyFat,
	model.KeyFiber,
	model.KeyMealCount,
	model.KeyWaterIntake,
}

// Options configures a single Build call.
type Options struct {
	WindowDays    int
	ContextLength int
	Normalize     bool
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.WindowDays < 0 {
		return fmt.Errorf("%w: window days must not be negative", common.ErrInvalidConfig)
	}
	if o.ContextLength < 0 {
		return fmt.Errorf("%w: context length must not be negative", common.ErrInvalidConfig)
	}
	return nil
}

func (o Options) window() int {
	if o.WindowDays <= 0 {
		return DefaultWindowDays
	}
	return o.WindowDays
}

// Builder derives feature matrices from daily records. It holds configuration
// only, so one Builder may serve concurrent calls.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a Builder that logs to the default slog logger.
func NewBuilder() *Builder {
	return &Builder{logger: slog.Default()}
}

// column is a feature under construction.
type column struct {
	values []float64
	desc   Descriptor
}

// Build converts records into a feature matrix. Records must be strictly
// ascending by date. When opts.Normalize is set every column is z-scored
// over the full history before the trailing ContextLength rows are kept,
// and the returned params invert that scaling.
func (b *Builder) Build(records []model.DailyRecord, opts Options) (*Matrix, NormalizationParams, error) {
	if err := opts.Validate(); err != nil {
		return nil, NormalizationParams{}, err
	}
	if len(records) == 0 {
		return nil, NormalizationParams{}, common.ErrEmptyRecords
	}
	if err := checkOrder(records); err != nil {
		return nil, NormalizationParams{}, err
	}

	cols := baseColumns(records)
	present := make(map[string][]float64, len(cols))
	for _, c := range cols {
		present[c.desc.Name] = c.values
	}

	w := opts.window()
	for _, name := range TrackedColumns {
		values, ok := present[name]
		if !ok {
			continue
		}
		cols = append(cols, rollingColumns(name, values, w)...)
	}

	cols = append(cols, ratioColumns(present, len(records))...)

	schema := NewSchema()
	kept := cols[:0]
	for _, c := range cols {
		if schema.add(c.desc) {
			kept = append(kept, c)
		}
	}
	cols = kept

	var params NormalizationParams
	if opts.Normalize {
		values := make([][]float64, len(cols))
		for j, c := range cols {
			values[j] = c.values
		}
		params = normalizeColumns(schema.Names(), values)
	}

	m := &Matrix{
		Schema: schema,
		Dates:  make([]time.Time, len(records)),
		Rows:   make([][]float64, len(records)),
	}
	for i, r := range records {
		m.Dates[i] = r.Date
		row := make([]float64, len(cols))
		for j, c := range cols {
			row[j] = c.values[i]
		}
		m.Rows[i] = row
	}

	if opts.ContextLength > 0 && m.Len() > opts.ContextLength {
		m = m.Tail(opts.ContextLength)
	}

	b.logger.Debug("built feature matrix",
		"rows", m.Len(),
		"features", schema.Len(),
		"normalized", opts.Normalize)

	return m, params, nil
}

func checkOrder(records []model.DailyRecord) error {
	for i := 1; i < len(records); i++ {
		prev := model.TruncateDay(records[i-1].Date)
		cur := model.TruncateDay(records[i].Date)
		if !cur.After(prev) {
			return fmt.Errorf("%w: %s follows %s",
				common.ErrUnorderedRecords, records[i].DateKey(), records[i-1].DateKey())
		}
	}
	return nil
}

// baseColumns lists every key seen in any record, canonical keys first in
// canonical order and the rest sorted. Missing values are 0.
func baseColumns(records []model.DailyRecord) []column {
	seen := make(map[string]bool)
	for _, r := range records {
		for k := range r.Values {
			seen[k] = true
		}
	}

	names := make([]string, 0, len(seen))
	for _, k := range model.CanonicalKeys {
		if seen[k] {
			names = append(names, k)
			delete(seen, k)
		}
	}
	extra := make([]string, 0, len(seen))
	for k := range seen {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	names = append(names, extra...)

	cols := make([]column, len(names))
	for j, name := range names {
		values := make([]float64, len(records))
		for i, r := range records {
			values[i] = r.Get(name)
		}
		cols[j] = column{desc: Descriptor{Name: name, Kind: KindBase}, values: values}
	}
	return cols
}

func rollingColumns(name string, values []float64, w int) []column {
	means := RollingMean(values, w)
	stds := RollingStd(values, w)
	variability := make([]float64, len(values))
	for i := range values {
		if stds[i] < stats.Epsilon && math.Abs(means[i]) < stats.Epsilon {
			continue
		}
		variability[i] = stats.SafeDiv(stds[i], means[i])
	}

	return []column{
		{desc: Descriptor{Name: fmt.Sprintf("%s_roll_mean_%dd", name, w), Kind: KindRollingMean, Source: name}, values: means},
		{desc: Descriptor{Name: fmt.Sprintf("%s_roll_std_%dd", name, w), Kind: KindRollingStd, Source: name}, values: stds},
		{desc: Descriptor{Name: name + "_variability", Kind: KindVariability, Source: name}, values: variability},
	}
}

// RollingMean returns the trailing mean over up to w values ending at each index.
func RollingMean(values []float64, w int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		out[i] = stats.Mean(trailing(values, i, w))
	}
	return out
}

// RollingStd returns the trailing sample std over up to w values ending at
// each index. Windows with fewer than two values yield 0.
func RollingStd(values []float64, w int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		out[i] = stats.SampleStd(trailing(values, i, w))
	}
	return out
}

func trailing(values []float64, i, w int) []float64 {
	start := i - w + 1
	if start < 0 {
		start = 0
	}
	return values[start : i+1]
}
