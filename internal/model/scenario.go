package model

// ScenarioConfig is an ephemeral input bundle driving a profit
// projection. It has no identity and is never persisted.
type ScenarioConfig struct {
	Carrier         CarrierID `json:"carrier"`
	LineCount       int       `json:"line_count"`
	DeviceSellPrice int64     `json:"device_sell_price"`
	CashbackAmount  int64     `json:"cashback_amount"`
	OtherCosts      int64     `json:"other_costs"`
}

// CostBreakdown exposes each cost component of a projection separately.
// The fields always sum to ProjectionResult.TotalCost.
type CostBreakdown struct {
	AdminFees        int64 `json:"admin_fees"`
	MaintenanceCosts int64 `json:"maintenance_costs"`
	Penalties        int64 `json:"penalties"`
	Others           int64 `json:"others"`
}

// ProjectionResult is the outcome of a scenario projection. Plain data,
// safe to serialize as-is to a UI or export layer.
type ProjectionResult struct {
	TotalRevenue  int64         `json:"total_revenue"`
	TotalCost     int64         `json:"total_cost"`
	NetProfit     int64         `json:"net_profit"`
	ProfitPerLine float64       `json:"profit_per_line"`
	CostBreakdown CostBreakdown `json:"cost_breakdown"`
}

// HoldingParams drives a single-line projection over a holding period of
// Months, with costs split into an initial outlay and a recurring run rate.
type HoldingParams struct {
	AdminFee          int64 `json:"admin_fee"`
	DeviceCost        int64 `json:"device_cost"`
	InitialPlanCost   int64 `json:"initial_plan_cost"`
	RunningCost       int64 `json:"running_cost"`
	Months            int   `json:"months"`
	Cashback          int64 `json:"cashback"`
	TerminalSalePrice int64 `json:"terminal_sale_price,omitempty"`
	FiberCommission   int64 `json:"fiber_commission,omitempty"`
}

// HoldingBreakdown splits a holding projection into initial outlay,
// recurring cost, and revenue.
type HoldingBreakdown struct {
	Initial int64 `json:"initial"`
	Running int64 `json:"running"`
	Revenue int64 `json:"revenue"`
}

// HoldingResult is the outcome of a holding-period projection.
type HoldingResult struct {
	TotalCost    int64            `json:"total_cost"`
	TotalRevenue int64            `json:"total_revenue"`
	NetProfit    int64            `json:"net_profit"`
	ROI          float64          `json:"roi"` // percent of total cost
	Breakdown    HoldingBreakdown `json:"breakdown"`
}

// StackedResult consolidates mobile line profits and fiber commissions.
type StackedResult struct {
	TotalMobileProfit int64 `json:"total_mobile_profit"`
	TotalFiberProfit  int64 `json:"total_fiber_profit"`
	GrandTotal        int64 `json:"grand_total"`
}
