package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kmrl/induction/core/engine"
	"github.com/kmrl/induction/core/planner"
	"github.com/kmrl/induction/core/whatif"
	"github.com/kmrl/induction/infra/logger"
	"github.com/kmrl/induction/simulator"
)

var (
	whatifWithdraw []string
	whatifExpire   []string
	whatifBranding float64
	whatifTrains   int
	whatifSeed     int64
	whatifJSON     bool
)

var whatifCmd = &cobra.Command{
	Use:   "whatif",
	Short: "Simulate a scenario against a fresh baseline plan",
	Long: `whatif plans a simulated fleet, applies the scenario flags to a copy,
re-plans it and prints the assignment differences.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.New("whatif")

		opts := simulator.DefaultOptions()
		opts.Depot = cfg.Depot.Name
		opts.Trains = whatifTrains
		opts.Seed = whatifSeed
		snap := simulator.Generate(opts)

		eng, err := engine.New(log, engine.Options{})
		if err != nil {
			return err
		}
		if _, err := eng.GeneratePlan(context.Background(), snap); err != nil {
			return err
		}

		sc := whatif.Scenario{Name: "cli scenario"}
		for _, id := range whatifWithdraw {
			sc.Transforms = append(sc.Transforms, whatif.WithdrawTrain(id))
		}
		for _, id := range whatifExpire {
			sc.Transforms = append(sc.Transforms, whatif.ExpireCertificates(id))
		}
		if cmd.Flags().Changed("branding-weight") {
			w := planner.DefaultWeights()
			w.Branding = whatifBranding
			sc.Weights = &w
		}

		res, err := eng.WhatIf(context.Background(), snap.Depot, snap.ServiceDate, sc)
		if err != nil {
			return err
		}
		if whatifJSON {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
		}
		if len(res.Changes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no assignment changes")
			return nil
		}
		for _, c := range res.Changes {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", c.TrainID, c.From, c.To)
		}
		return nil
	},
}

func init() {
	whatifCmd.Flags().StringSliceVar(&whatifWithdraw, "withdraw", nil, "train IDs to withdraw in the scenario")
	whatifCmd.Flags().StringSliceVar(&whatifExpire, "expire-certs", nil, "train IDs whose certificates expire in the scenario")
	whatifCmd.Flags().Float64Var(&whatifBranding, "branding-weight", 80, "branding weight for the scenario")
	whatifCmd.Flags().IntVar(&whatifTrains, "trains", 25, "simulated fleet size")
	whatifCmd.Flags().Int64Var(&whatifSeed, "seed", 1, "simulation seed")
	whatifCmd.Flags().BoolVar(&whatifJSON, "json", false, "emit the result as JSON")
	rootCmd.AddCommand(whatifCmd)
}
