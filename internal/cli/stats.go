package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/station-climate-etl/internal/adapter/report"
	"github.com/couchcryptid/station-climate-etl/internal/domain"
)

func newStatsCmd(a *app) *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "stats [variable variable]",
		Short: "Print descriptive statistics per variable",
		Long: `Prints count, mean, standard deviation and quartiles for every variable
in the export. Naming two variables additionally prints their Pearson
correlation over the hours where both have values. --profile adds a
variable's mean per hour of day.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("stats takes no arguments or exactly two variables, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			series, _, err := a.ingest(cmd.Context())
			if err != nil {
				return err
			}

			rows, err := domain.Summarize(series, series.Variables())
			if err != nil {
				return err
			}
			sink := report.NewConsoleSink(cmd.OutOrStdout())
			sink.RenderSummary(rows)

			if profile != "" {
				id, err := resolveVariable(series, profile)
				if err != nil {
					return err
				}
				p, err := domain.NewHourlyProfile(series, id)
				if err != nil {
					return err
				}
				sink.RenderHourlyProfile(p)
			}

			if len(args) == 2 {
				va, err := resolveVariable(series, args[0])
				if err != nil {
					return err
				}
				vb, err := resolveVariable(series, args[1])
				if err != nil {
					return err
				}

				r, err := domain.Correlation(series, va, vb)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pearson r(%s, %s) = %.4f\n", va, vb, r)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "also print this variable's mean per hour of day")
	return cmd
}
