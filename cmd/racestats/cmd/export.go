package cmd

import (
	"fmt"

	"racestats/cmd/racestats/utils"
	"racestats/internal/dataset"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <dir> <key>...",
	Short: "Write stored races as csv datasets.",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		races, err := utils.LoadRaces(cmd.Context(), args[1:])
		if err != nil {
			return fmt.Errorf("load races: %w", err)
		}
		for _, race := range races {
			path, err := dataset.WriteFile(args[0], race)
			if err != nil {
				return fmt.Errorf("write dataset: %w", err)
			}
			fmt.Println(path)
		}

		return nil
	},
}
