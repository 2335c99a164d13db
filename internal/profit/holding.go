package profit

import "github.com/mnp-lab/mnp-cli/internal/model"

// ProjectHolding projects a single line held for a number of months,
// splitting cost into the initial outlay (admin fee + device) and the
// run rate (first-month plan cost, then the running cost for each month
// after). Months below one is clamped to one.
func ProjectHolding(p model.HoldingParams) model.HoldingResult {
	months := p.Months
	if months < 1 {
		months = 1
	}

	initial := p.AdminFee + p.DeviceCost
	running := p.InitialPlanCost + p.RunningCost*int64(months-1)
	totalCost := initial + running

	totalRevenue := p.Cashback + p.TerminalSalePrice + p.FiberCommission
	netProfit := totalRevenue - totalCost

	roi := 0.0
	if totalCost > 0 {
		roi = float64(netProfit) / float64(totalCost) * 100
	}

	return model.HoldingResult{
		TotalCost:    totalCost,
		TotalRevenue: totalRevenue,
		NetProfit:    netProfit,
		ROI:          roi,
		Breakdown: model.HoldingBreakdown{
			Initial: initial,
			Running: running,
			Revenue: totalRevenue,
		},
	}
}

// Stack consolidates per-line net profits and fiber contract commissions
// into one asset-level total.
func Stack(mobileNetProfits []int64, fiberCommissions []int64) model.StackedResult {
	var res model.StackedResult
	for _, p := range mobileNetProfits {
		res.TotalMobileProfit += p
	}
	for _, c := range fiberCommissions {
		res.TotalFiberProfit += c
	}
	res.GrandTotal = res.TotalMobileProfit + res.TotalFiberProfit
	return res
}

// StackContracts is Stack over fiber contract records.
func StackContracts(mobileNetProfits []int64, fibers []model.FiberContract) model.StackedResult {
	commissions := make([]int64, 0, len(fibers))
	for _, f := range fibers {
		commissions = append(commissions, f.Commission)
	}
	return Stack(mobileNetProfits, commissions)
}
