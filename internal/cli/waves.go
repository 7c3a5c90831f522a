package cli

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/station-climate-etl/internal/adapter/report"
	"github.com/couchcryptid/station-climate-etl/internal/domain"
)

func newWavesCmd(a *app) *cobra.Command {
	var flushOpenRun bool

	cmd := &cobra.Command{
		Use:   "waves",
		Short: "Detect heat and cold waves in the daily means",
		Long: `Scans the wave variable's daily means for runs of at least min_run
consecutive days strictly beyond the configured percentile thresholds and
prints the resulting events.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			series, _, err := a.ingest(cmd.Context())
			if err != nil {
				return err
			}

			params := a.cfg.Params()
			daily, err := domain.AggregateDaily(series, params.WaveVariable, domain.ReduceMean)
			if err != nil {
				return fmt.Errorf("aggregate %s: %w", params.WaveVariable, err)
			}

			heatParams := params.Heat
			heatParams.Kind = domain.HeatWave
			heatParams.FlushOpenRun = flushOpenRun
			coldParams := params.Cold
			coldParams.Kind = domain.ColdWave
			coldParams.FlushOpenRun = flushOpenRun

			heat, err := domain.DetectWaves(daily, heatParams)
			if err != nil {
				return err
			}
			cold, err := domain.DetectWaves(daily, coldParams)
			if err != nil {
				return err
			}

			events := append(append([]domain.ExtremeEvent{}, heat...), cold...)
			slices.SortStableFunc(events, func(x, y domain.ExtremeEvent) int {
				if c := x.StartDate.Compare(y.StartDate); c != 0 {
					return c
				}
				return cmp.Compare(x.Kind, y.Kind)
			})

			report.NewConsoleSink(cmd.OutOrStdout()).RenderEvents(events)
			return nil
		},
	}

	cmd.Flags().BoolVar(&flushOpenRun, "include-open-run", false,
		"count a qualifying run still open at the end of the data as an event")
	return cmd
}
