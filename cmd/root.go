package cmd

import (
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "evroute",
	Short:        "EV route planner prediction service",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml, json or toml)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }
