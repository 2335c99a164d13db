package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mnp-lab/mnp-cli/internal/model"
	"github.com/mnp-lab/mnp-cli/internal/profit"
)

var (
	projectCarrier     string
	projectLines       int
	projectDevicePrice int64
	projectCashback    int64
	projectOtherCosts  int64
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project net profit for an enrollment scenario",
	Long: `Projects total cost, revenue, and net profit for enrolling one or
more lines with a carrier, including the mandatory maintenance cost
before the lines can be safely cancelled.

Example:
  mnp-cli project --carrier softbank --lines 2 --device-price 50000 --cashback 10000`,
	RunE: func(_ *cobra.Command, _ []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		p := profit.NewProjector(reg, model.CarrierID(cfg.Projection.FallbackCarrier))
		res := p.Project(model.ScenarioConfig{
			Carrier:         model.CarrierID(projectCarrier),
			LineCount:       projectLines,
			DeviceSellPrice: projectDevicePrice,
			CashbackAmount:  projectCashback,
			OtherCosts:      projectOtherCosts,
		})

		fmt.Printf("revenue:          %s\n", formatYen(res.TotalRevenue))
		fmt.Printf("cost:             %s\n", formatYen(res.TotalCost))
		fmt.Printf("  admin fees:     %s\n", formatYen(res.CostBreakdown.AdminFees))
		fmt.Printf("  maintenance:    %s\n", formatYen(res.CostBreakdown.MaintenanceCosts))
		fmt.Printf("  penalties:      %s\n", formatYen(res.CostBreakdown.Penalties))
		fmt.Printf("  others:         %s\n", formatYen(res.CostBreakdown.Others))
		fmt.Printf("net profit:       %s\n", formatYen(res.NetProfit))
		fmt.Printf("profit per line:  %s\n", yen.Sprintf("¥%.0f", res.ProfitPerLine))
		return nil
	},
}

var (
	holdingAdminFee     int64
	holdingDeviceCost   int64
	holdingInitialPlan  int64
	holdingRunningCost  int64
	holdingMonths       int
	holdingCashback     int64
	holdingTerminalSale int64
	holdingFiber        int64
)

var holdingCmd = &cobra.Command{
	Use:   "holding",
	Short: "Project profit for one line held over a maintenance period",
	Long: `Projects a single line's profit over a holding period, splitting
cost into the initial outlay and the monthly run rate.

Example:
  mnp-cli holding --admin-fee 3850 --device-cost 24000 --initial-plan 7315 --running-cost 1078 --months 6 --cashback 40000 --terminal-sale 35000`,
	RunE: func(_ *cobra.Command, _ []string) error {
		res := profit.ProjectHolding(model.HoldingParams{
			AdminFee:          holdingAdminFee,
			DeviceCost:        holdingDeviceCost,
			InitialPlanCost:   holdingInitialPlan,
			RunningCost:       holdingRunningCost,
			Months:            holdingMonths,
			Cashback:          holdingCashback,
			TerminalSalePrice: holdingTerminalSale,
			FiberCommission:   holdingFiber,
		})

		fmt.Printf("cost:        %s (initial %s + running %s)\n",
			formatYen(res.TotalCost), formatYen(res.Breakdown.Initial), formatYen(res.Breakdown.Running))
		fmt.Printf("revenue:     %s\n", formatYen(res.TotalRevenue))
		fmt.Printf("net profit:  %s\n", formatYen(res.NetProfit))
		fmt.Printf("roi:         %.1f%%\n", res.ROI)
		return nil
	},
}

func init() {
	projectCmd.Flags().StringVar(&projectCarrier, "carrier", "", "carrier code")
	projectCmd.Flags().IntVar(&projectLines, "lines", 1, "number of lines")
	projectCmd.Flags().Int64Var(&projectDevicePrice, "device-price", 0, "expected device sell price per line (yen)")
	projectCmd.Flags().Int64Var(&projectCashback, "cashback", 0, "expected cashback per line (yen)")
	projectCmd.Flags().Int64Var(&projectOtherCosts, "other-costs", 0, "additional one-off costs (yen)")

	holdingCmd.Flags().Int64Var(&holdingAdminFee, "admin-fee", 0, "admin fee (yen)")
	holdingCmd.Flags().Int64Var(&holdingDeviceCost, "device-cost", 0, "device cost (yen)")
	holdingCmd.Flags().Int64Var(&holdingInitialPlan, "initial-plan", 0, "first-month plan cost (yen)")
	holdingCmd.Flags().Int64Var(&holdingRunningCost, "running-cost", 0, "monthly running cost after the first (yen)")
	holdingCmd.Flags().IntVar(&holdingMonths, "months", 1, "holding period in months")
	holdingCmd.Flags().Int64Var(&holdingCashback, "cashback", 0, "cashback (yen)")
	holdingCmd.Flags().Int64Var(&holdingTerminalSale, "terminal-sale", 0, "device resale revenue (yen)")
	holdingCmd.Flags().Int64Var(&holdingFiber, "fiber-commission", 0, "fiber contract commission (yen)")

	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(holdingCmd)
}
