package cmd

import (
	"fmt"
	"log/slog"

	"racestats/cmd/racestats/globals"
	"racestats/cmd/racestats/utils"
	"racestats/internal/dataset"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Load csv datasets named <event>_<YYYYMMDD>_<category>.csv into the database.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		value := globals.Get(ctx)

		races, err := dataset.LoadDir(ctx, args[0])
		if err != nil {
			return fmt.Errorf("load datasets: %w", err)
		}
		if len(races) == 0 {
			slog.Warn("no datasets found", "dir", args[0])
			return nil
		}

		store, err := value.Store(ctx)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		canonicalizer := value.Config.Teams.Canonicalizer()

		t := utils.NewTable()
		t.AppendHeader(table.Row{"Key", "Race", "Results"})
		for _, race := range races {
			canonicalizer.Apply(race.Results)
			err := store.SaveRace(ctx, race)
			if err != nil {
				return fmt.Errorf("save race: %w", err)
			}
			t.AppendRow(table.Row{race.Key.String(), race.Title(), len(race.Results)})
		}
		t.Render()

		return nil
	},
}
