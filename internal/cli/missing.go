package cli

import (
	"github.com/spf13/cobra"

	"github.com/couchcryptid/station-climate-etl/internal/adapter/report"
	"github.com/couchcryptid/station-climate-etl/internal/domain"
)

func newMissingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "missing",
		Short: "Report null counts per variable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			series, _, err := a.ingest(cmd.Context())
			if err != nil {
				return err
			}

			rows, err := domain.MissingnessReport(series, series.Variables())
			if err != nil {
				return err
			}

			report.NewConsoleSink(cmd.OutOrStdout()).RenderMissing(rows)
			return nil
		},
	}
}
