package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/station-climate-etl/internal/adapter/report"
	"github.com/couchcryptid/station-climate-etl/internal/domain"
)

func newDailyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "daily",
		Short: "Print the daily aggregate table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			series, _, err := a.ingest(cmd.Context())
			if err != nil {
				return err
			}

			seqs := make([][]domain.DailyAggregate, 0, len(a.cfg.Aggregates))
			for _, req := range a.cfg.Params().Aggregates {
				daily, err := domain.AggregateDaily(series, req.Variable, req.Reducer)
				if err != nil {
					return fmt.Errorf("aggregate %s: %w", req.Variable, err)
				}
				seqs = append(seqs, daily)
			}

			table, err := domain.NewDailyTable(seqs...)
			if err != nil {
				return err
			}

			report.NewConsoleSink(cmd.OutOrStdout()).RenderDaily(table)
			return nil
		},
	}
}
