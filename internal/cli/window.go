package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/station-climate-etl/internal/domain"
)

func newWindowCmd(a *app) *cobra.Command {
	var (
		variable string
		month    int
		hourFrom int
		hourTo   int
	)

	cmd := &cobra.Command{
		Use:   "window",
		Short: "Hour-over-hour variation inside a month and hour window",
		Long: `Filters one variable to a month and an hour-of-day range, then prints
statistics over the differences between consecutive readings. Month 0 keeps
every month.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := domain.Window{
				Month:    time.Month(month),
				HourFrom: hourFrom,
				HourTo:   hourTo,
			}
			if err := w.Validate(); err != nil {
				return err
			}

			series, _, err := a.ingest(cmd.Context())
			if err != nil {
				return err
			}

			id, err := resolveVariable(series, variable)
			if err != nil {
				return err
			}

			values, err := domain.WindowValues(series, id, w)
			if err != nil {
				return err
			}
			deltas, err := domain.NewDeltaStats(values)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s readings in window: %d\n", id, len(values))
			fmt.Fprintf(out, "deltas: %d\n", deltas.Count)
			fmt.Fprintf(out, "mean:   %.3f\n", deltas.Mean)
			fmt.Fprintf(out, "min:    %.3f\n", deltas.Min)
			fmt.Fprintf(out, "max:    %.3f\n", deltas.Max)
			fmt.Fprintf(out, "std:    %.3f\n", deltas.Std)
			return nil
		},
	}

	cmd.Flags().StringVar(&variable, "variable", string(domain.VarTemperature), "variable to inspect")
	cmd.Flags().IntVar(&month, "month", 0, "calendar month 1-12, 0 for all")
	cmd.Flags().IntVar(&hourFrom, "hour-from", 0, "first UTC hour of the window")
	cmd.Flags().IntVar(&hourTo, "hour-to", 23, "last UTC hour of the window")
	return cmd
}
