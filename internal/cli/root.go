// Package cli provides the climate command line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/station-climate-etl/internal/adapter/exportfile"
	"github.com/couchcryptid/station-climate-etl/internal/config"
	"github.com/couchcryptid/station-climate-etl/internal/domain"
	"github.com/couchcryptid/station-climate-etl/internal/observability"
)

// Version is set at build time.
var Version = "0.1.0"

// app carries the state every subcommand needs, loaded once by the root
// command before any RunE fires.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

// NewRootCmd builds the climate command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "climate",
		Short: "Analyze weather station hourly exports",
		Long: `Transforms a weather station's hourly export into daily and monthly
aggregate tables, heat and cold wave events, and data quality reports.

The input is a semicolon separated export in Latin-1 with decimal commas,
as published by the INMET station network. Settings come from climate.yaml,
CLIMATE_* environment variables and flags, in rising priority.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(a.cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = observability.NewLogger(cfg.LogFormat, cfg.LogLevel)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./climate.yaml)")
	root.PersistentFlags().String("input", "", "station export file to analyze")
	root.PersistentFlags().String("output-dir", "", "directory for CSV products")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	root.PersistentFlags().String("log-format", "", "log format: text or json")

	root.AddCommand(
		newReportCmd(a),
		newDailyCmd(a),
		newWavesCmd(a),
		newMissingCmd(a),
		newStatsCmd(a),
		newWindowCmd(a),
	)
	return root
}

// Execute runs the CLI until completion or SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// ingest reads the configured export into a time series.
func (a *app) ingest(ctx context.Context) (*domain.TimeSeries, domain.IngestStats, error) {
	reader := exportfile.NewReader(a.cfg.Input, a.cfg.Encoding, a.cfg.RequiredVariables(), a.logger)
	return reader.Read(ctx)
}

// resolveVariable maps a user-supplied name to its stored id, accepting
// catalog ids, aliases and ad-hoc column names alike, and verifies the
// export actually carries it.
func resolveVariable(series *domain.TimeSeries, name string) (domain.VariableID, error) {
	id := domain.ResolveVariable(name)
	if !slices.Contains(series.Variables(), id) {
		return "", fmt.Errorf("variable %q is not in the export", name)
	}
	return id, nil
}
