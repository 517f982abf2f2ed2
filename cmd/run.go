package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/truckcharge/app"
	"github.com/kilianp07/truckcharge/pkg/report"
)

var runFormat string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute one schedule and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			run, err := svc.RunOnce(ctx)
			if err != nil {
				return err
			}
			return report.Write(cmd.OutOrStdout(), runFormat, run.Result)
		})
	},
}

func init() {
	runCmd.Flags().StringVarP(&runFormat, "format", "f", report.FormatText, "output format: text, json or csv")
	rootCmd.AddCommand(runCmd)
}
