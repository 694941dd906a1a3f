package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	simulateProfit float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Simulate an arbitrage opportunity and trigger the alert path",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateProfit <= 0 {
			return errors.New("--profit must be greater than 0")
		}

		return getApp().SimulateAlert(cmd.Context(), decimal.NewFromFloat(simulateProfit))
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateProfit, "profit", 0, "Profit potential in USD for the simulated opportunity")
}
