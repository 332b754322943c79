package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trendbot",
	Short: "A momentum trading bot with trailing-stop risk management",
	Long: `Trendbot watches one equity symbol, evaluates an RSI-based momentum
signal on daily bars, and when the signal fires buys a buying-power-sized
position protected by a trailing-stop sell.

It trades through the Alpaca REST API (paper by default) and journals every
entry and exit.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
