package cmd

import (
	"fmt"
	"strings"
	"time"

	"racestats/cmd/racestats/globals"
	"racestats/cmd/racestats/utils"
	"racestats/internal/analysis"
	"racestats/internal/report"
	"racestats/internal/results"
	"racestats/lib/racetime"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statsFlags struct {
	bin        time.Duration
	categories []string
}

func init() {
	statsCmd.Flags().DurationVar(&statsFlags.bin, "bin", 0, "histogram bin width, overrides analysis.histogram_bin_seconds")
	statsCmd.Flags().StringSliceVar(&statsFlags.categories, "category", nil, "only count these categories")
	rootCmd.AddCommand(statsCmd)
}

const histogramWidth = 40

var statsCmd = &cobra.Command{
	Use:   "stats <key>...",
	Short: "Describe the distribution of finish and split times.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := globals.Get(ctx).Config

		_, rs, err := utils.LoadTable(ctx, args)
		if err != nil {
			return fmt.Errorf("load races: %w", err)
		}
		rs = rs.ByCategory(statsFlags.categories...)

		t := utils.NewTable()
		t.AppendHeader(report.SummaryHeader(""))
		t.AppendRow(report.SummaryRow("Finish", analysis.Describe(rs.FinishTimes())))
		splits := analysis.DescribeSplits(rs)
		for _, name := range results.SplitNames(rs) {
			if s, ok := splits[name]; ok {
				t.AppendRow(report.SummaryRow(name, s))
			}
		}
		t.Render()

		bin := cfg.Analysis.Bin()
		if statsFlags.bin > 0 {
			bin = statsFlags.bin
		}
		bins := analysis.Histogram(rs.FinishTimes(), bin)
		if len(bins) == 0 {
			return nil
		}

		most := 0
		for _, b := range bins {
			most = max(most, b.Count)
		}
		fmt.Println()
		h := utils.NewTable()
		h.SetStyle(table.StyleLight)
		h.AppendHeader(table.Row{"From", "To", "Count", ""})
		for _, b := range bins {
			bar := strings.Repeat("█", b.Count*histogramWidth/most)
			h.AppendRow(table.Row{racetime.Format(b.Start), racetime.Format(b.End), b.Count, bar})
		}
		h.Render()

		return nil
	},
}
