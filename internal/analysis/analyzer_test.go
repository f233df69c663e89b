package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/tablestat/internal/datasource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves a fixed schema and table and counts queries by kind.
type fakeSource struct {
	numeric  []string
	temporal []string
	data     *datasource.Table
	err      error

	schemaQueries int
	dataQueries   int
}

func (f *fakeSource) ColumnsQuery(table string, types []string) string {
	return "columns:" + table + ":" + strings.Join(types, ",")
}

func (f *fakeSource) SelectAllQuery(table string) string { return "select:" + table }

func (f *fakeSource) Query(_ context.Context, q string) (*datasource.Table, error) {
	if f.err != nil {
		return nil, &datasource.Error{Op: "query", Query: q, Err: f.err}
	}
	switch {
	case strings.HasPrefix(q, "select:"):
		f.dataQueries++
		return f.data, nil
	case strings.HasPrefix(q, "columns:"):
		f.schemaQueries++
		names := f.numeric
		if strings.Contains(q, "timestamp") {
			names = f.temporal
		}
		res := &datasource.Table{Columns: []string{"column_name"}}
		for _, n := range names {
			res.Rows = append(res.Rows, []any{n})
		}
		return res, nil
	}
	return nil, errors.New("unexpected query " + q)
}

func tableOf(cols []string, rows ...[]any) *datasource.Table {
	return &datasource.Table{Columns: cols, Rows: rows}
}

func TestDetectTrendline_ConcreteScenario(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		numeric:  []string{"v"},
		temporal: []string{"t"},
		data:     tableOf([]string{"t", "v"}, []any{int64(1), int64(10)}, []any{int64(2), int64(20)}, []any{int64(3), int64(15)}),
	}
	rep, err := New(src, "readings").DetectTrendline(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Trends, 1)
	assert.Equal(t, "t", rep.Trends[0].Temporal)
	assert.Equal(t, "v", rep.Trends[0].Numeric)
	assert.InDelta(t, 2.5, rep.Trends[0].Slope, 1e-12)
	assert.Empty(t, rep.Notes)
	assert.Contains(t, rep.Text(), "Positive trend detected for v with a slope of 2.5")
}

func TestDetectTrendline_SortsByTemporalColumn(t *testing.T) {
	t.Parallel()
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	// Source order is shuffled; by date, up rises and down falls.
	src := &fakeSource{
		numeric:  []string{"up", "down"},
		temporal: []string{"day"},
		data: tableOf([]string{"day", "up", "down"},
			[]any{day(3), 30.0, 1.0},
			[]any{day(1), 10.0, 3.0},
			[]any{day(4), 40.0, 0.5},
			[]any{day(2), 20.0, 2.0},
		),
	}
	rep, err := New(src, "beer").DetectTrendline(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Trends, 1)
	assert.Equal(t, "up", rep.Trends[0].Numeric)
	assert.InDelta(t, 10.0, rep.Trends[0].Slope, 1e-9)
}

func TestDetectTrendline_StringDatesAndNullKeys(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		numeric:  []string{"v"},
		temporal: []string{"d"},
		data: tableOf([]string{"d", "v"},
			[]any{nil, 100.0},
			[]any{"2024-03-01", 3.0},
			[]any{"2024-01-01", 1.0},
			[]any{"2024-02-01", 2.0},
		),
	}
	// Sorted: 1, 2, 3, then the NULL-dated 100 last.
	rep, err := New(src, "t").DetectTrendline(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Trends, 1)
	assert.Greater(t, rep.Trends[0].Slope, 0.0)
}

func TestDetectTrendline_NoTemporalColumns(t *testing.T) {
	t.Parallel()
	src := &fakeSource{numeric: []string{"a"}, data: tableOf([]string{"a"}, []any{1.0})}
	a := New(src, "happiness")

	rep, err := a.DetectTrendline(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{noTemporalNote}, rep.Notes)
	assert.Empty(t, rep.Trends)
	assert.Equal(t, 0, src.dataQueries, "rows must not be read without a temporal column")
	assert.Equal(t, noTemporalNote+"\n", rep.Text())
}

func TestDetectTrendline_DecreasingNotReported(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		numeric:  []string{"v", "flat"},
		temporal: []string{"t"},
		data: tableOf([]string{"t", "v", "flat"},
			[]any{int64(1), 9.0, 5.0}, []any{int64(2), 7.0, 5.0}, []any{int64(3), 1.0, 5.0},
		),
	}
	rep, err := New(src, "t").DetectTrendline(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.Trends)
	assert.Empty(t, rep.Text())
}

func TestDetectCrossCorrelation(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		numeric: []string{"a", "b", "c", "k"},
		data: tableOf([]string{"a", "b", "c", "k"},
			[]any{1.0, 5.0, 1.0, 7.0},
			[]any{2.0, 4.0, 2.0, 7.0},
			[]any{3.0, 3.0, 3.0, 7.0},
			[]any{4.0, 2.0, 4.0, 7.0},
			[]any{5.0, 1.0, 5.0, 7.0},
		),
	}
	rep, err := New(src, "t").DetectCrossCorrelation(context.Background())
	require.NoError(t, err)

	// k is constant and never correlates; each pair appears once.
	require.Len(t, rep.Pairs, 3)
	assert.Equal(t, "a", rep.Pairs[0].A)
	assert.Equal(t, "b", rep.Pairs[0].B)
	assert.InDelta(t, -1.0, rep.Pairs[0].R, 1e-12)
	assert.Equal(t, Correlation{A: "a", B: "c", R: 1}, rep.Pairs[1])
	assert.Equal(t, "b", rep.Pairs[2].A)
	assert.Equal(t, "c", rep.Pairs[2].B)
	assert.Contains(t, rep.Text(), "found correlation between a and b with a correlation coefficient of -1")
}

func TestDetectCrossCorrelation_WeakPairNotReported(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		numeric: []string{"x", "y"},
		data: tableOf([]string{"x", "y"},
			[]any{1.0, 2.0}, []any{2.0, 9.0}, []any{3.0, 1.0}, []any{4.0, 8.0}, []any{5.0, 3.0},
		),
	}
	rep, err := New(src, "t").DetectCrossCorrelation(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.Pairs)
}

func TestDetectAnomalies(t *testing.T) {
	t.Parallel()
	rows := make([][]any, 0, 21)
	for i := 0; i < 20; i++ {
		rows = append(rows, []any{int64(10), 4.0})
	}
	rows = append(rows, []any{int64(100), 4.0})
	src := &fakeSource{numeric: []string{"spiky", "constant"}, data: tableOf([]string{"spiky", "constant"}, rows...)}

	rep, err := New(src, "beer").DetectAnomalies(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Columns, 1)
	assert.Equal(t, ColumnAnomalies{Column: "spiky", Values: []float64{100}}, rep.Columns[0])
	assert.Equal(t, "Found anomalies in column spiky\n[100]\n", rep.Text())
}

func TestCachesPopulatedOnce(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		numeric:  []string{"a", "b"},
		temporal: []string{"t"},
		data: tableOf([]string{"t", "a", "b"},
			[]any{int64(1), 1.0, 2.0}, []any{int64(2), 2.0, 4.0}, []any{int64(3), 3.0, 6.5},
		),
	}
	a := New(src, "t")
	ctx := context.Background()

	first, err := a.Analyze(ctx)
	require.NoError(t, err)
	second, err := a.Analyze(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Text(), second.Text())
	assert.Equal(t, 1, src.dataQueries)
	assert.Equal(t, 2, src.schemaQueries)
}

func TestEmptySchemaIsNotAnError(t *testing.T) {
	t.Parallel()
	src := &fakeSource{data: tableOf([]string{"name"}, []any{"x"})}
	a := New(src, "words")
	ctx := context.Background()

	cols, err := a.NumericColumns(ctx)
	require.NoError(t, err)
	assert.Empty(t, cols)

	rep, err := a.Analyze(ctx)
	require.NoError(t, err)
	assert.Equal(t, noTemporalNote+"\n", rep.Text())
}

func TestDataSourceFailurePropagates(t *testing.T) {
	t.Parallel()
	src := &fakeSource{err: errors.New("connection refused")}
	a := New(src, "beer")
	ctx := context.Background()

	_, err := a.DetectTrendline(ctx)
	assert.ErrorIs(t, err, datasource.ErrDataSource)
	_, err = a.DetectCrossCorrelation(ctx)
	assert.ErrorIs(t, err, datasource.ErrDataSource)
	_, err = a.DetectAnomalies(ctx)
	assert.ErrorIs(t, err, datasource.ErrDataSource)
	_, err = a.Analyze(ctx)
	assert.ErrorIs(t, err, datasource.ErrDataSource)
}

func TestNumericCellsFromStringsAndMoney(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		numeric: []string{"price", "qty"},
		data: tableOf([]string{"price", "qty"},
			[]any{"$1,000.00", []byte("1")},
			[]any{"$2,000.00", []byte("2")},
			[]any{nil, []byte("9")},
			[]any{"$3,000.00", []byte("3")},
		),
	}
	rep, err := New(src, "orders").DetectCrossCorrelation(context.Background())
	require.NoError(t, err)
	// The NULL price row is skipped, leaving a perfect linear relation.
	require.Len(t, rep.Pairs, 1)
	assert.InDelta(t, 1.0, rep.Pairs[0].R, 1e-12)
}
