package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kmrl/induction/core/engine"
	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/infra/logger"
	"github.com/kmrl/induction/simulator"
)

var (
	planTrains   int
	planSeed     int64
	planSnapshot string
	planJSON     bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate one induction plan and print it",
	Long: `plan runs a single planning cycle, either over a snapshot file or a
simulated fleet, and prints the resulting assignments.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.New("plan")

		var snap model.FleetSnapshot
		if planSnapshot != "" {
			b, err := os.ReadFile(planSnapshot)
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			if err := json.Unmarshal(b, &snap); err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}
		} else {
			opts := simulator.DefaultOptions()
			opts.Depot = cfg.Depot.Name
			opts.Trains = planTrains
			opts.Seed = planSeed
			opts.ServiceTarget = cfg.Depot.ServiceTarget
			opts.StandbyMin = cfg.Depot.StandbyMin
			opts.IBLCapacity = cfg.Depot.IBLCapacity
			snap = simulator.Generate(opts)
		}

		eng, err := engine.New(log, engine.Options{})
		if err != nil {
			return err
		}
		plan, err := eng.GeneratePlan(context.Background(), snap)
		if err != nil {
			return err
		}

		if planJSON {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(plan)
		}
		printPlan(cmd, plan)
		return nil
	},
}

func printPlan(cmd *cobra.Command, plan *model.InductionPlan) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "plan %s  depot=%s  date=%s  v%d  mode=%s  degraded=%v\n\n",
		plan.ID, plan.Depot, plan.ServiceDate, plan.Version, plan.Mode, plan.Degraded)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TRAIN\tROLE\tRANK\tTRACK\tSCORE\tREASON")
	for _, a := range plan.Assignments {
		rank := ""
		if a.Rank > 0 {
			rank = fmt.Sprintf("%d", a.Rank)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\t%s\n",
			a.TrainID, a.Type, rank, a.Track, a.Composite, a.Reason)
	}
	w.Flush()

	fmt.Fprintf(out, "\nservice=%d standby=%d ibl=%d out=%d\n",
		plan.Counts.Service, plan.Counts.Standby, plan.Counts.IBL, plan.Counts.OutOfService)
	for _, al := range plan.Alerts {
		fmt.Fprintf(out, "alert [%s] %s\n", al.Severity, al.Message)
	}
	for _, c := range plan.Conflicts {
		fmt.Fprintf(out, "conflict %s %s: %s -> %s\n", c.TrainID, c.Kind, c.Detail, c.Resolution)
	}
}

func init() {
	planCmd.Flags().IntVar(&planTrains, "trains", 25, "simulated fleet size")
	planCmd.Flags().Int64Var(&planSeed, "seed", 1, "simulation seed")
	planCmd.Flags().StringVar(&planSnapshot, "snapshot", "", "plan a snapshot JSON file instead of a simulated fleet")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "emit the plan as JSON")
	rootCmd.AddCommand(planCmd)
}
