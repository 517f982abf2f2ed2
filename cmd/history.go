package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/truckcharge/app"
	"github.com/kilianp07/truckcharge/core/history"
)

var (
	historySince    time.Duration
	historyTruck    string
	historyStrategy string
	historyLimit    int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past scheduling runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			q := history.Query{TruckID: historyTruck, Strategy: historyStrategy, Limit: historyLimit}
			if historySince > 0 {
				q.Start = time.Now().Add(-historySince)
			}
			recs, err := svc.History(ctx, q)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tRUN\tSTRATEGY\tCHARGED\tBOUND\tUNASSIGNED")
			for _, r := range recs {
				bound := "-"
				if r.UpperBound >= 0 {
					bound = fmt.Sprint(r.UpperBound)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\t%d\n",
					r.Timestamp.Format(time.RFC3339), r.RunID, r.Strategy,
					r.Result.FullyChargedCount, r.Result.TotalTrucks, bound, len(r.Result.UnassignedTrucks))
			}
			return tw.Flush()
		})
	},
}

func init() {
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "only runs newer than this duration")
	historyCmd.Flags().StringVar(&historyTruck, "truck", "", "only runs involving this truck")
	historyCmd.Flags().StringVar(&historyStrategy, "strategy", "", "only runs of this strategy")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs, 0 for all")
	rootCmd.AddCommand(historyCmd)
}
