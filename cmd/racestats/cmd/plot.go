package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"racestats/cmd/racestats/globals"
	"racestats/cmd/racestats/utils"
	"racestats/internal/analysis"
	"racestats/internal/charts"
	"racestats/internal/results"

	"github.com/spf13/cobra"
)

var plotFlags struct {
	out        string
	format     string
	x          string
	y          string
	center     string
	highlight  string
	categories []string
}

func init() {
	plotCmd.Flags().StringVar(&plotFlags.out, "out", "charts", "directory charts are written to")
	plotCmd.Flags().StringVar(&plotFlags.format, "format", "png", "image format: png, svg or pdf")
	plotCmd.Flags().StringVar(&plotFlags.x, "x", "", "split on the x axis of the split scatter plot")
	plotCmd.Flags().StringVar(&plotFlags.y, "y", "", "split on the y axis of the split scatter plot")
	plotCmd.Flags().StringVar(&plotFlags.center, "center", "mean", "guide lines at the mean or median")
	plotCmd.Flags().StringVar(&plotFlags.highlight, "highlight", "", "highlight participants whose name contains this")
	plotCmd.Flags().StringSliceVar(&plotFlags.categories, "category", nil, "only plot these categories")
	rootCmd.AddCommand(plotCmd)
}

type plotOptions struct {
	dir       string
	format    string
	x, y      string
	center    analysis.Center
	highlight string
}

// renderCharts writes every chart that can be drawn from `rs` and returns their paths.
func renderCharts(ctx context.Context, rs analysis.Table, opts plotOptions) ([]string, error) {
	cfg := globals.Get(ctx).Config
	var paths []string

	path := filepath.Join(opts.dir, "finish_times."+opts.format)
	err := charts.FinishHistogram(ctx, rs, cfg.Analysis.Bin(), path)
	if err != nil {
		return paths, err
	}
	paths = append(paths, path)

	path = filepath.Join(opts.dir, "teams."+opts.format)
	err = charts.TeamBars(ctx, analysis.DescribeTeams(rs), path)
	if err != nil && !errors.Is(err, charts.ErrNoData) {
		return paths, err
	}
	if err == nil {
		paths = append(paths, path)
	}

	x, y := opts.x, opts.y
	splits := results.SplitNames(rs)
	if x == "" && y == "" && len(splits) >= 2 {
		x, y = splits[0], splits[len(splits)-1]
		if slices.Contains(splits, "swim") && slices.Contains(splits, "run") {
			x, y = "swim", "run"
		}
	}
	if x == "" || y == "" {
		return paths, nil
	}

	path = filepath.Join(opts.dir, fmt.Sprintf("%s_%s.%s", results.NormalizeSplitName(x), results.NormalizeSplitName(y), opts.format))
	err = charts.SplitScatter(ctx, rs, x, y, opts.center, opts.highlight, path)
	if err != nil {
		return paths, err
	}
	return append(paths, path), nil
}

var plotCmd = &cobra.Command{
	Use:   "plot <key>...",
	Short: "Draw finish time, team and split charts.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		_, rs, err := utils.LoadTable(ctx, args)
		if err != nil {
			return fmt.Errorf("load races: %w", err)
		}
		rs = rs.ByCategory(plotFlags.categories...)

		center, err := analysis.ParseCenter(plotFlags.center)
		if err != nil {
			return fmt.Errorf("invalid --center: %w", err)
		}
		if !slices.Contains([]string{"png", "svg", "pdf"}, plotFlags.format) {
			return fmt.Errorf("invalid --format %q, expected png, svg or pdf", plotFlags.format)
		}

		paths, err := renderCharts(ctx, rs, plotOptions{
			dir:       plotFlags.out,
			format:    plotFlags.format,
			x:         plotFlags.x,
			y:         plotFlags.y,
			center:    center,
			highlight: plotFlags.highlight,
		})
		for _, path := range paths {
			fmt.Println(path)
		}
		if err != nil {
			return fmt.Errorf("draw charts: %w", err)
		}
		slog.Debug("charts written", "count", len(paths))

		return nil
	},
}
