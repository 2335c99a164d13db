// Package profit projects net profit for MNP enrollment scenarios.
package profit

import (
	"go.uber.org/zap"

	"github.com/mnp-lab/mnp-cli/internal/carrier"
	"github.com/mnp-lab/mnp-cli/internal/model"
)

// DefaultFallback is substituted when a scenario names a carrier outside
// the registry. Rakuten is the cheapest-to-hold template, so the
// substitution under-states profit rather than inflating it.
const DefaultFallback = model.CarrierRakuten

// Projector computes scenario projections against a carrier registry.
// Pure and safe for concurrent use.
type Projector struct {
	reg      *carrier.Registry
	fallback model.CarrierID
}

// NewProjector creates a Projector. An empty fallback selects
// DefaultFallback.
func NewProjector(reg *carrier.Registry, fallback model.CarrierID) *Projector {
	if fallback == "" {
		fallback = DefaultFallback
	}
	return &Projector{reg: reg, fallback: fallback}
}

// Project computes total cost, revenue, and net profit for a multi-line
// scenario. Maintenance cost accrues for the carrier's minimum retention
// period regardless of how long the operator intends to hold the lines;
// that is the unavoidable holding cost before a safe cancellation.
func (p *Projector) Project(s model.ScenarioConfig) model.ProjectionResult {
	rule := p.ruleOrFallback(s.Carrier)
	lines := int64(s.LineCount)

	adminFees := rule.AdminFee * lines
	maintenanceCosts := rule.MonthlyCost * int64(rule.MinMaintenanceMonths) * lines
	penalties := rule.PenaltyFee * lines

	totalRevenue := (s.DeviceSellPrice + s.CashbackAmount) * lines
	totalCost := adminFees + maintenanceCosts + penalties + s.OtherCosts
	netProfit := totalRevenue - totalCost

	perLine := 0.0
	if s.LineCount > 0 {
		perLine = float64(netProfit) / float64(s.LineCount)
	}

	return model.ProjectionResult{
		TotalRevenue:  totalRevenue,
		TotalCost:     totalCost,
		NetProfit:     netProfit,
		ProfitPerLine: perLine,
		CostBreakdown: model.CostBreakdown{
			AdminFees:        adminFees,
			MaintenanceCosts: maintenanceCosts,
			Penalties:        penalties,
			Others:           s.OtherCosts,
		},
	}
}

func (p *Projector) ruleOrFallback(id model.CarrierID) model.CarrierRule {
	rule, err := p.reg.RuleFor(id)
	if err == nil {
		return rule
	}

	zap.L().Warn("profit: unknown scenario carrier, using fallback rule",
		zap.String("carrier", string(id)),
		zap.String("fallback", string(p.fallback)),
	)
	rule, err = p.reg.RuleFor(p.fallback)
	if err != nil {
		// Registry without the fallback carrier; project against a zero
		// rule rather than failing a pure calculation.
		return model.CarrierRule{ID: p.fallback}
	}
	return rule
}
