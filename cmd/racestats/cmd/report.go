package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"racestats/cmd/racestats/globals"
	"racestats/cmd/racestats/utils"
	"racestats/internal/analysis"
	"racestats/internal/report"

	"github.com/spf13/cobra"
)

var reportFlags struct {
	email  bool
	to     []string
	charts bool
}

func init() {
	reportCmd.Flags().BoolVar(&reportFlags.email, "email", false, "send the report by email instead of printing it")
	reportCmd.Flags().StringSliceVar(&reportFlags.to, "to", nil, "recipients, overrides report.recipients")
	reportCmd.Flags().BoolVar(&reportFlags.charts, "charts", false, "attach charts to the email")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report <key>...",
	Short: "Render a text report of stored races, optionally sending it by email.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := globals.Get(ctx).Config

		races, rs, err := utils.LoadTable(ctx, args)
		if err != nil {
			return fmt.Errorf("load races: %w", err)
		}

		var body bytes.Buffer
		err = report.Render(&body, report.Input{
			Races:   races,
			Scorers: cfg.Analysis.ScorersPerTeam,
			Exclude: []string{cfg.Teams.Unattached},
		})
		if err != nil {
			return fmt.Errorf("render report: %w", err)
		}

		if !reportFlags.email {
			os.Stdout.Write(body.Bytes())
			return nil
		}

		recipients := cfg.Report.Recipients
		if len(reportFlags.to) > 0 {
			recipients = reportFlags.to
		}

		var attachments []string
		if reportFlags.charts {
			dir, err := os.MkdirTemp("", "racestats-charts-")
			if err != nil {
				return fmt.Errorf("create chart directory: %w", err)
			}
			defer os.RemoveAll(dir)

			attachments, err = renderCharts(ctx, rs, plotOptions{
				dir:    dir,
				format: "png",
				center: analysis.CenterMean,
			})
			if err != nil {
				return fmt.Errorf("draw charts: %w", err)
			}
		}

		titles := make([]string, len(races))
		for i, race := range races {
			titles[i] = race.Title()
		}
		err = report.NewMailer(cfg.Smtp).Send(ctx, report.Message{
			Subject:     fmt.Sprintf("Race report: %s", strings.Join(titles, ", ")),
			Body:        body.String(),
			Recipients:  recipients,
			Attachments: attachments,
		})
		if err != nil {
			return fmt.Errorf("send report: %w", err)
		}

		return nil
	},
}
