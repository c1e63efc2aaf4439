package cmd

import (
	"fmt"

	"racestats/cmd/racestats/globals"
	"racestats/cmd/racestats/utils"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(racesCmd)
	rootCmd.AddCommand(deleteCmd)
}

var racesCmd = &cobra.Command{
	Use:   "races",
	Short: "List stored races.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := globals.Get(ctx).Store(ctx)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		races, err := store.Races(ctx)
		if err != nil {
			return fmt.Errorf("list races: %w", err)
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"Key", "Name", "Category", "Date", "Results", "Fetched"})
		for _, r := range races {
			date := ""
			if !r.Date.IsZero() {
				date = r.Date.Format("2006-01-02")
			}
			t.AppendRow(table.Row{
				r.Key.String(),
				r.Name,
				r.Category,
				date,
				r.Results,
				r.FetchedAt.Local().Format("2006-01-02 15:04"),
			})
		}
		t.Render()

		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <key>...",
	Short: "Delete stored races.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		keys, err := utils.ParseKeys(args)
		if err != nil {
			return fmt.Errorf("invalid race key: %w", err)
		}
		store, err := globals.Get(ctx).Store(ctx)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		for _, key := range keys {
			err := store.DeleteRace(ctx, key)
			if err != nil {
				return fmt.Errorf("delete race: %w", err)
			}
		}

		return nil
	},
}
