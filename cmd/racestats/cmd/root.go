package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"racestats/cmd/racestats/globals"
	"racestats/internal/config"
	"racestats/lib/cliutil"
	"racestats/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	dumpHttp   string
	dbPath     string

	// session is set once the config is loaded, it is closed by Execute
	// whether or not the command succeeded.
	session *globals.Value
)

var rootCmd = &cobra.Command{
	Use:   "racestats",
	Short: "racestats scrapes open water swim results and analyzes team rankings and finish times.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dbPath != "" {
			cfg.Store.File = dbPath
			cfg.Store.Url = ""
		}

		tel, err := telemetry.SetupFromEnv(cmd.Context(), "racestats")
		if err != nil {
			slog.Warn("failed to setup telemetry, continuing without it", "err", err)
		}

		session = &globals.Value{
			Config:    cfg,
			Telemetry: tel,
			DumpHttp:  dumpHttp,
		}
		cmd.SetContext(globals.Set(cmd.Context(), session))
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func closeSession(value *globals.Value) {
	if value == nil {
		return
	}
	err := value.Close()
	if err != nil {
		slog.Warn("failed to close database", "err", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	err = value.Telemetry.Shutdown(ctx)
	if err != nil {
		slog.Warn("failed to flush telemetry", "err", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFile, "path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dumpHttp, "dump-http", "", "write every http request and response to this directory")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite database file, overrides the configured store")
}

func run(ctx context.Context, args []string) error {
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	closeSession(session)
	return err
}

func Execute() {
	ctx, cancel := cliutil.SignalContext()
	defer cancel()

	err := run(ctx, os.Args[1:])
	if err != nil {
		slog.Error("racestats failed", "err", err)
		cancel()
		os.Exit(1)
	}
}
