package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Tables used by the demonstration.
const (
	demoCorrelationTable = "happiness"
	demoTrendTable       = "beer"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the built-in examples against the happiness and beer tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemo(cmd)
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

// runDemo stops at the first failure; later scenarios do not run.
func runDemo(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Cross correlation example with the %s db\n", demoCorrelationTable)
	happiness, err := newAnalyzer(demoCorrelationTable)
	if err != nil {
		return err
	}
	corr, err := happiness.DetectCrossCorrelation(ctx)
	if err != nil {
		return err
	}
	if err := printReport(out, corr); err != nil {
		return err
	}

	beer, err := newAnalyzer(demoTrendTable)
	if err != nil {
		return err
	}
	steps := []struct {
		banner string
		run    func() (textReport, error)
	}{
		{fmt.Sprintf("Trendline example with the %s db", demoTrendTable), func() (textReport, error) { return beer.DetectTrendline(ctx) }},
		{fmt.Sprintf("Cross correlation example with the %s db", demoTrendTable), func() (textReport, error) { return beer.DetectCrossCorrelation(ctx) }},
		{"Finding anomalies", func() (textReport, error) { return beer.DetectAnomalies(ctx) }},
	}
	for _, s := range steps {
		fmt.Fprintln(out, s.banner)
		rep, err := s.run()
		if err != nil {
			return err
		}
		if err := printReport(out, rep); err != nil {
			return err
		}
	}
	return nil
}
