package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/KaramelBytes/tablestat/internal/analysis"
	"github.com/spf13/cobra"
)

// textReport is implemented by every analysis report.
type textReport interface{ Text() string }

func newAnalyzer(table string) (*analysis.Analyzer, error) {
	src, err := openSource()
	if err != nil {
		return nil, err
	}
	return analysis.New(src, table, analysis.WithLogger(logger)), nil
}

// runOn builds an analyzer for the table argument, runs fn and prints its report.
func runOn(cmd *cobra.Command, table string, fn func(context.Context, *analysis.Analyzer) (textReport, error)) error {
	a, err := newAnalyzer(table)
	if err != nil {
		return err
	}
	rep, err := fn(cmd.Context(), a)
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), rep)
}

func printReport(w io.Writer, rep textReport) error {
	_, err := io.WriteString(w, rep.Text())
	return err
}

var trendCmd = &cobra.Command{
	Use:   "trend <table>",
	Short: "Report numeric columns trending upward over each time column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOn(cmd, args[0], func(ctx context.Context, a *analysis.Analyzer) (textReport, error) {
			return a.DetectTrendline(ctx)
		})
	},
}

var correlateCmd = &cobra.Command{
	Use:   "correlate <table>",
	Short: "Report numeric column pairs with |r| > 0.8",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOn(cmd, args[0], func(ctx context.Context, a *analysis.Analyzer) (textReport, error) {
			return a.DetectCrossCorrelation(ctx)
		})
	},
}

var anomaliesCmd = &cobra.Command{
	Use:   "anomalies <table>",
	Short: "Report values outside mean ± 3 standard deviations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOn(cmd, args[0], func(ctx context.Context, a *analysis.Analyzer) (textReport, error) {
			return a.DetectAnomalies(ctx)
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <table>",
	Short: "Run trend, correlation and anomaly detection on a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOn(cmd, args[0], func(ctx context.Context, a *analysis.Analyzer) (textReport, error) {
			return a.Analyze(ctx)
		})
	},
}

var columnsCmd = &cobra.Command{
	Use:   "columns <table>",
	Short: "Show the numeric and temporal columns discovered for a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAnalyzer(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		num, err := a.NumericColumns(ctx)
		if err != nil {
			return err
		}
		tmp, err := a.TemporalColumns(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "numeric: %v\n", []string(num))
		fmt.Fprintf(out, "temporal: %v\n", []string(tmp))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trendCmd, correlateCmd, anomaliesCmd, analyzeCmd, columnsCmd)
}
