package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/truckcharge/config"
	"github.com/kilianp07/truckcharge/core/apperr"
	"github.com/kilianp07/truckcharge/core/factory"
	"github.com/kilianp07/truckcharge/core/fleet"
	"github.com/kilianp07/truckcharge/core/scheduler"
	"github.com/kilianp07/truckcharge/infra/fleetfile"
)

var (
	boundFleet   string
	boundHorizon int
)

var boundCmd = &cobra.Command{
	Use:   "bound",
	Short: "Compare every strategy with the LP upper bound",
	Long: "Loads the fleet file and prints, for each registered strategy, the number " +
		"of fully charged trucks next to the LP relaxation bound.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, horizon := boundFleet, boundHorizon
		if path == "" {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return apperr.Invalid("load config: %v", err)
			}
			path = cfg.Fleet.Path
			if horizon <= 0 {
				horizon = cfg.Fleet.HorizonHours
			}
		}
		ctx := cmd.Context()
		snap, err := fleet.WithHorizon(fleetfile.New(path), horizon).Load(ctx)
		if err != nil {
			return err
		}
		bound, err := scheduler.UpperBound(ctx, snap.Trucks, snap.Chargers, snap.HorizonHours)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "upper bound: %d of %d trucks\n", bound, len(snap.Trucks))
		for _, name := range scheduler.Strategies() {
			s, err := scheduler.New(factory.ModuleConfig{Type: name})
			if err != nil {
				return err
			}
			res, err := s.Schedule(ctx, snap.Trucks, snap.Chargers, snap.HorizonHours)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %d fully charged (gap %d)\n", name, res.FullyChargedCount, bound-res.FullyChargedCount)
		}
		return nil
	},
}

func init() {
	boundCmd.Flags().StringVar(&boundFleet, "fleet", "", "fleet file, defaults to fleet.path from the configuration")
	boundCmd.Flags().IntVar(&boundHorizon, "horizon", 0, "override the horizon in hours")
	rootCmd.AddCommand(boundCmd)
}
