package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "blackbox",
	Short:         "Daily-bar backtest engine for model-driven trading strategies",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(backtestCmd)
}
