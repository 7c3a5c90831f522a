package cli

import (
	"github.com/spf13/cobra"

	"github.com/couchcryptid/station-climate-etl/internal/adapter/exportfile"
	"github.com/couchcryptid/station-climate-etl/internal/adapter/report"
	"github.com/couchcryptid/station-climate-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/station-climate-etl/internal/observability"
	"github.com/couchcryptid/station-climate-etl/internal/pipeline"
)

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Run the full pipeline and deliver every product",
		Long: `Runs ingest, aggregation, wave detection and data quality reporting in
one pass and delivers the products to the sinks enabled in the config:
console tables, CSV files in the output directory, and optionally a SQLite
archive.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runReport(cmd)
		},
	}
}

func (a *app) runReport(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg := a.cfg
	metrics := observability.NewMetrics()

	source := exportfile.NewReader(cfg.Input, cfg.Encoding, cfg.RequiredVariables(), a.logger)

	var sinks []pipeline.Sink
	if cfg.Console {
		sinks = append(sinks, report.NewConsoleSink(cmd.OutOrStdout()))
	}
	if cfg.CSV {
		sinks = append(sinks, report.NewCSVSink(cfg.OutputDir, a.logger))
	}
	if cfg.SQLite {
		archive, err := sqlite.Open(cfg.SQLitePath, a.logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := archive.Close(); err != nil {
				a.logger.Error("archive close error", "error", err)
			}
		}()
		sinks = append(sinks, archive)
	}

	p := pipeline.New(source, sinks, cfg.Params(), a.logger, metrics)
	if _, err := p.Run(ctx); err != nil {
		return err
	}

	// A failed push never fails a finished run.
	if url := cfg.Metrics.PushgatewayURL; url != "" {
		if err := observability.PushToGateway(ctx, url); err != nil {
			a.logger.Error("metrics push failed", "url", url, "error", err)
		}
	}
	return nil
}
