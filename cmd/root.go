// Package cmd holds the CLI entrypoints.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kmrl/induction/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "induction",
	Short: "Nightly train induction planner",
	Long: `induction decides which trains enter revenue service, which stay on
standby, and which go to the inspection bay for the next service day.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to a JSON or YAML config file")
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgPath)
}
