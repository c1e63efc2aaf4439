package cmd

import (
	"fmt"
	"os"

	"racestats/cmd/racestats/utils"
	"racestats/internal/report"

	"github.com/spf13/cobra"
)

var resultsFlags struct {
	categories []string
	team       string
	search     string
	byTime     bool
}

func init() {
	resultsCmd.Flags().StringSliceVar(&resultsFlags.categories, "category", nil, "only show these categories")
	resultsCmd.Flags().StringVar(&resultsFlags.team, "team", "", "only show members of this team")
	resultsCmd.Flags().StringVar(&resultsFlags.search, "search", "", "only show participants whose name contains this")
	resultsCmd.Flags().BoolVar(&resultsFlags.byTime, "by-time", false, "sort by finish time instead of place")
	rootCmd.AddCommand(resultsCmd)
}

var resultsCmd = &cobra.Command{
	Use:   "results <key>...",
	Short: "Show the results of stored races.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		races, rs, err := utils.LoadTable(cmd.Context(), args)
		if err != nil {
			return fmt.Errorf("load races: %w", err)
		}

		rs = rs.ByCategory(resultsFlags.categories...)
		if resultsFlags.team != "" {
			rs = rs.ByTeam(resultsFlags.team)
		}
		if resultsFlags.search != "" {
			rs = rs.Search(resultsFlags.search)
		}
		if resultsFlags.byTime {
			rs = rs.SortByTime()
		} else {
			rs = rs.SortByPlace()
		}

		title := races[0].Title()
		if len(races) > 1 {
			title = "Combined results"
		}
		report.ResultsTable(os.Stdout, title, rs)

		return nil
	},
}
