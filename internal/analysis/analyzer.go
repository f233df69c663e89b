// Package analysis runs descriptive statistics over one database table: trend
// detection, pairwise correlation and 3-sigma anomaly detection.
package analysis

import (
	"context"
	"fmt"

	"github.com/KaramelBytes/tablestat/internal/datasource"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Source is the query surface the Analyzer needs. *datasource.Source
// implements it.
type Source interface {
	Query(ctx context.Context, query string) (*datasource.Table, error)
	ColumnsQuery(table string, types []string) string
	SelectAllQuery(table string) string
}

// ColumnSet is an ordered list of column names.
type ColumnSet []string

// Analyzer analyzes a single table. Schema and rows are fetched lazily on
// first use and cached for the lifetime of the value; the table is assumed to
// be static. An Analyzer is not safe for concurrent use.
type Analyzer struct {
	src   Source
	table string
	log   zerolog.Logger

	raw            *datasource.Table
	numeric        ColumnSet
	numericLoaded  bool
	temporal       ColumnSet
	temporalLoaded bool
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used for cache population messages.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Analyzer) { a.log = l }
}

// New returns an Analyzer for table. It performs no I/O.
func New(src Source, table string, opts ...Option) *Analyzer {
	a := &Analyzer{src: src, table: table, log: zerolog.Nop()}
	for _, o := range opts {
		o(a)
	}
	a.log = a.log.With().Str("analyzer", uuid.NewString()).Str("table", table).Logger()
	return a
}

// Table returns the analyzed table name.
func (a *Analyzer) Table() string { return a.table }

// NumericColumns returns the columns declared with a numeric type.
func (a *Analyzer) NumericColumns(ctx context.Context) (ColumnSet, error) {
	if a.numericLoaded {
		return a.numeric, nil
	}
	cols, err := a.columns(ctx, datasource.NumericTypes)
	if err != nil {
		return nil, fmt.Errorf("numeric columns of %s: %w", a.table, err)
	}
	a.numeric, a.numericLoaded = cols, true
	a.log.Debug().Strs("columns", cols).Msg("numeric columns loaded")
	return a.numeric, nil
}

// TemporalColumns returns the columns declared as time, date or timestamp.
func (a *Analyzer) TemporalColumns(ctx context.Context) (ColumnSet, error) {
	if a.temporalLoaded {
		return a.temporal, nil
	}
	cols, err := a.columns(ctx, datasource.TemporalTypes)
	if err != nil {
		return nil, fmt.Errorf("temporal columns of %s: %w", a.table, err)
	}
	a.temporal, a.temporalLoaded = cols, true
	a.log.Debug().Strs("columns", cols).Msg("temporal columns loaded")
	return a.temporal, nil
}

func (a *Analyzer) columns(ctx context.Context, types []string) (ColumnSet, error) {
	res, err := a.src.Query(ctx, a.src.ColumnsQuery(a.table, types))
	if err != nil {
		return nil, err
	}
	names, ok := res.Column("column_name")
	if !ok && len(res.Columns) > 0 {
		names, _ = res.Column(res.Columns[0])
	}
	out := make(ColumnSet, 0, len(names))
	for _, n := range names {
		switch v := n.(type) {
		case string:
			out = append(out, v)
		case []byte:
			out = append(out, string(v))
		case nil:
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out, nil
}

// RawData returns every row of the table.
func (a *Analyzer) RawData(ctx context.Context) (*datasource.Table, error) {
	if a.raw != nil {
		return a.raw, nil
	}
	t, err := a.src.Query(ctx, a.src.SelectAllQuery(a.table))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a.table, err)
	}
	a.raw = t
	a.log.Debug().Int("rows", t.Len()).Msg("raw data loaded")
	return a.raw, nil
}

// DetectTrendline reports, for every temporal and numeric column pair, a
// positive least-squares slope of the numeric values against row position
// after ordering rows by the temporal column. Tables without a temporal
// column yield a single informational note and no rows are read.
func (a *Analyzer) DetectTrendline(ctx context.Context) (*TrendReport, error) {
	rep := &TrendReport{Table: a.table}
	temporal, err := a.TemporalColumns(ctx)
	if err != nil {
		return nil, err
	}
	if len(temporal) == 0 {
		rep.Notes = append(rep.Notes, noTemporalNote)
		return rep, nil
	}
	data, err := a.RawData(ctx)
	if err != nil {
		return nil, err
	}
	numeric, err := a.NumericColumns(ctx)
	if err != nil {
		return nil, err
	}

	numVals := make([][]float64, len(numeric))
	for j, nc := range numeric {
		col, _ := data.Column(nc)
		numVals[j] = floats(col)
	}
	for _, tc := range temporal {
		keys, ok := data.Column(tc)
		if !ok {
			continue
		}
		order := sortedOrder(keys)
		ys := make([]float64, len(order))
		for j, nc := range numeric {
			if len(numVals[j]) != len(order) {
				continue
			}
			for i, idx := range order {
				ys[i] = numVals[j][idx]
			}
			if slope := trendSlope(ys); slope > 0 {
				rep.Trends = append(rep.Trends, Trend{Temporal: tc, Numeric: nc, Slope: slope})
			}
		}
	}
	return rep, nil
}

// DetectCrossCorrelation reports every unordered pair of numeric columns whose
// Pearson correlation is above 0.8 in absolute value.
func (a *Analyzer) DetectCrossCorrelation(ctx context.Context) (*CorrelationReport, error) {
	rep := &CorrelationReport{Table: a.table}
	data, err := a.RawData(ctx)
	if err != nil {
		return nil, err
	}
	numeric, err := a.NumericColumns(ctx)
	if err != nil {
		return nil, err
	}
	vals := make([][]float64, len(numeric))
	for i, nc := range numeric {
		col, _ := data.Column(nc)
		vals[i] = floats(col)
	}
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			r := pearson(vals[i], vals[j])
			if isCorrelated(r) {
				rep.Pairs = append(rep.Pairs, Correlation{A: numeric[i], B: numeric[j], R: r})
			}
		}
	}
	return rep, nil
}

// DetectAnomalies reports, per numeric column, the values outside mean ± 3σ.
func (a *Analyzer) DetectAnomalies(ctx context.Context) (*AnomalyReport, error) {
	rep := &AnomalyReport{Table: a.table}
	data, err := a.RawData(ctx)
	if err != nil {
		return nil, err
	}
	numeric, err := a.NumericColumns(ctx)
	if err != nil {
		return nil, err
	}
	for _, nc := range numeric {
		col, _ := data.Column(nc)
		if found := AnomaliesInColumn(floats(col)); len(found) > 0 {
			rep.Columns = append(rep.Columns, ColumnAnomalies{Column: nc, Values: found})
		}
	}
	return rep, nil
}

// Analyze runs trend, correlation and anomaly detection in that order and
// stops at the first error.
func (a *Analyzer) Analyze(ctx context.Context) (*Report, error) {
	rep := &Report{Table: a.table}
	var err error
	if rep.Trend, err = a.DetectTrendline(ctx); err != nil {
		return nil, err
	}
	if rep.Correlation, err = a.DetectCrossCorrelation(ctx); err != nil {
		return nil, err
	}
	if rep.Anomalies, err = a.DetectAnomalies(ctx); err != nil {
		return nil, err
	}
	return rep, nil
}
