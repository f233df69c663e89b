package analysis

import (
	"fmt"
	"strconv"
	"strings"
)

const noTemporalNote = "No time-series columns found, cannot fit a trendline."

// Trend is an upward slope of a numeric column over rows ordered by a
// temporal column.
type Trend struct {
	Temporal string
	Numeric  string
	Slope    float64
}

// TrendReport lists the positive trends of a table. Notes carries the
// informational message emitted when no temporal column exists.
type TrendReport struct {
	Table  string
	Trends []Trend
	Notes  []string
}

// Correlation is a strongly correlated pair of numeric columns.
type Correlation struct {
	A, B string
	R    float64
}

// CorrelationReport lists every pair with |r| above the threshold.
type CorrelationReport struct {
	Table string
	Pairs []Correlation
}

// ColumnAnomalies holds the out-of-band values of one column in row order.
type ColumnAnomalies struct {
	Column string
	Values []float64
}

// AnomalyReport lists only the columns that have anomalies.
type AnomalyReport struct {
	Table   string
	Columns []ColumnAnomalies
}

// Report bundles the three analyses of one table.
type Report struct {
	Table       string
	Trend       *TrendReport
	Correlation *CorrelationReport
	Anomalies   *AnomalyReport
}

// Text renders one line per finding.
func (r *TrendReport) Text() string {
	var b strings.Builder
	for _, n := range r.Notes {
		b.WriteString(n)
		b.WriteString("\n")
	}
	for _, t := range r.Trends {
		b.WriteString(fmt.Sprintf("Positive trend detected for %s with a slope of %s (ordered by %s)\n",
			t.Numeric, formatFloat(t.Slope), t.Temporal))
	}
	return b.String()
}

// Text renders one line per correlated pair.
func (r *CorrelationReport) Text() string {
	var b strings.Builder
	for _, p := range r.Pairs {
		b.WriteString(fmt.Sprintf("found correlation between %s and %s with a correlation coefficient of %s\n",
			p.A, p.B, formatFloat(p.R)))
	}
	return b.String()
}

// Text renders each anomalous column followed by its values.
func (r *AnomalyReport) Text() string {
	var b strings.Builder
	for _, c := range r.Columns {
		b.WriteString("Found anomalies in column " + c.Column + "\n")
		b.WriteString(formatList(c.Values))
		b.WriteString("\n")
	}
	return b.String()
}

// Text concatenates the sections that were computed.
func (r *Report) Text() string {
	var b strings.Builder
	if r.Trend != nil {
		b.WriteString(r.Trend.Text())
	}
	if r.Correlation != nil {
		b.WriteString(r.Correlation.Text())
	}
	if r.Anomalies != nil {
		b.WriteString(r.Anomalies.Text())
	}
	return b.String()
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func formatList(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = formatFloat(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
