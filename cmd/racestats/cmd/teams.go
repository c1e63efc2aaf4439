package cmd

import (
	"fmt"
	"os"

	"racestats/cmd/racestats/globals"
	"racestats/cmd/racestats/utils"
	"racestats/internal/analysis"
	"racestats/internal/report"

	"github.com/spf13/cobra"
)

var teamsFlags struct {
	scorers    int
	categories []string
	members    bool
}

func init() {
	teamsCmd.Flags().IntVar(&teamsFlags.scorers, "scorers", 0, "finishers counted per team, overrides analysis.scorers_per_team")
	teamsCmd.Flags().StringSliceVar(&teamsFlags.categories, "category", nil, "only count these categories")
	teamsCmd.Flags().BoolVar(&teamsFlags.members, "members", false, "also list the members of every team")
	rootCmd.AddCommand(teamsCmd)
}

var teamsCmd = &cobra.Command{
	Use:   "teams <key>...",
	Short: "Rank teams and summarize their finish times.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := globals.Get(ctx).Config

		_, rs, err := utils.LoadTable(ctx, args)
		if err != nil {
			return fmt.Errorf("load races: %w", err)
		}
		rs = rs.ByCategory(teamsFlags.categories...)

		scorers := cfg.Analysis.ScorersPerTeam
		if teamsFlags.scorers > 0 {
			scorers = teamsFlags.scorers
		}

		report.RankingsTable(os.Stdout, analysis.TeamRankings(rs, scorers, cfg.Teams.Unattached))
		fmt.Println()

		t := utils.NewTable()
		t.SetTitle("Team finish times")
		t.AppendHeader(report.SummaryHeader("Team"))
		for _, s := range analysis.DescribeTeams(rs) {
			t.AppendRow(report.SummaryRow(s.Team, s.Summary))
		}
		t.Render()

		if !teamsFlags.members {
			return nil
		}
		for _, group := range analysis.GroupByTeam(rs) {
			fmt.Println()
			report.ResultsTable(os.Stdout, group.Team, group.Members)
		}

		return nil
	},
}
