package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"racestats/cmd/racestats/globals"
	"racestats/cmd/racestats/utils"
	"racestats/internal/analysis"
	"racestats/internal/dataset"
	"racestats/internal/results"
	"racestats/internal/scraper"
	"racestats/lib/racetime"
	"racestats/lib/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var scrapeFlags struct {
	keys        []string
	baseUrl     string
	concurrency int
	noStore     bool
	csvDir      string
}

func init() {
	scrapeCmd.Flags().StringArrayVar(&scrapeFlags.keys, "key", nil, "race to fetch as <competition>/<race>/<event>, may be repeated")
	scrapeCmd.Flags().StringVar(&scrapeFlags.baseUrl, "base-url", "", "results site, overrides site.base_url")
	scrapeCmd.Flags().IntVar(&scrapeFlags.concurrency, "concurrency", 4, "number of races fetched at the same time")
	scrapeCmd.Flags().BoolVar(&scrapeFlags.noStore, "no-store", false, "do not save the races to the database")
	scrapeCmd.Flags().StringVar(&scrapeFlags.csvDir, "csv-dir", "", "also write every race as a csv dataset into this directory")
	rootCmd.AddCommand(scrapeCmd)
}

func scrapeKeys(args []string) ([]results.RaceKey, error) {
	var keys []results.RaceKey
	if len(args) > 0 {
		if len(args) < 3 {
			return nil, fmt.Errorf("expected <competition> <race> <event>..., got %d arguments", len(args))
		}
		for _, event := range args[2:] {
			keys = append(keys, results.RaceKey{Competition: args[0], Race: args[1], Event: event})
		}
	}
	flagged, err := utils.ParseKeys(scrapeFlags.keys)
	if err != nil {
		return nil, err
	}
	keys = append(keys, flagged...)
	if len(keys) == 0 {
		return nil, errors.New("no races given, pass <competition> <race> <event>... or --key")
	}
	return keys, nil
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [<competition> <race> <event>...]",
	Short: "Fetch race results from the results site.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		value := globals.Get(ctx)
		cfg := value.Config

		keys, err := scrapeKeys(args)
		if err != nil {
			return fmt.Errorf("invalid arguments: %w", err)
		}

		opts := cfg.Site.ClientOptions()
		if scrapeFlags.baseUrl != "" {
			opts.BaseUrl = scrapeFlags.baseUrl
		}
		if opts.BaseUrl == "" {
			return errors.New("no results site, set site.base_url in the config or pass --base-url")
		}
		if value.DumpHttp != "" {
			output, err := telemetry.NewFilesystemOutput(value.DumpHttp)
			if err != nil {
				return fmt.Errorf("create http dump directory: %w", err)
			}
			opts.HttpOutput = output
		}
		client, err := scraper.NewClient(opts)
		if err != nil {
			return fmt.Errorf("create client: %w", err)
		}

		if value.Telemetry.Enabled() {
			telemetry.InstrumentPerfStats(ctx, time.Second*5)
		}

		races, fetchErr := client.FetchRaces(ctx, keys, scrapeFlags.concurrency)
		if fetchErr != nil {
			slog.Error("some races could not be fetched", "err", fetchErr)
		}
		if len(races) == 0 {
			return fmt.Errorf("nothing was fetched: %w", fetchErr)
		}

		canonicalizer := cfg.Teams.Canonicalizer()
		for i := range races {
			canonicalizer.Apply(races[i].Results)
		}

		if !scrapeFlags.noStore {
			store, err := value.Store(ctx)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			for _, race := range races {
				err := store.SaveRace(ctx, race)
				if err != nil {
					return fmt.Errorf("save race: %w", err)
				}
			}
		}

		if scrapeFlags.csvDir != "" {
			for _, race := range races {
				path, err := dataset.WriteFile(scrapeFlags.csvDir, race)
				if err != nil {
					return fmt.Errorf("write dataset: %w", err)
				}
				slog.Info("wrote dataset", "path", path)
			}
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"Key", "Race", "Results", "Finishers", "Winner", "Time"})
		for _, race := range races {
			rs := analysis.Table(race.Results)
			winner, winnerTime := "", ""
			if podium := rs.Podium(); len(podium) > 0 {
				winner = podium[0].Name
				winnerTime = racetime.FormatPrecise(podium[0].Finish)
			}
			t.AppendRow(table.Row{race.Key.String(), race.Title(), len(race.Results), len(rs.Finishers()), winner, winnerTime})
		}
		t.Render()

		if fetchErr != nil {
			return fmt.Errorf("some races could not be fetched: %w", fetchErr)
		}

		return nil
	},
}
