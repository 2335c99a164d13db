// Package carrier holds the carrier rule registry and the group
// contamination checker.
package carrier

import (
	"github.com/rotisserie/eris"

	"github.com/mnp-lab/mnp-cli/internal/model"
)

// Registry is an immutable lookup table of carrier rules and group
// membership. Construct once at startup and share freely; all methods
// are read-only.
type Registry struct {
	rules  map[model.CarrierID]model.CarrierRule
	groups map[string]model.CarrierGroup
	byID   map[model.CarrierID]string // carrier -> group id
	order  []model.CarrierID          // canonical declaration order
}

// NewRegistry builds a Registry from explicit rule and group tables.
// Every carrier must belong to exactly one group and every group member
// must have a rule.
func NewRegistry(rules []model.CarrierRule, groups []model.CarrierGroup) (*Registry, error) {
	r := &Registry{
		rules:  make(map[model.CarrierID]model.CarrierRule, len(rules)),
		groups: make(map[string]model.CarrierGroup, len(groups)),
		byID:   make(map[model.CarrierID]string, len(rules)),
	}

	for _, rule := range rules {
		if rule.ID == "" {
			return nil, eris.New("carrier: rule with empty id")
		}
		if _, dup := r.rules[rule.ID]; dup {
			return nil, eris.Errorf("carrier: duplicate rule for %q", rule.ID)
		}
		r.rules[rule.ID] = rule
		r.order = append(r.order, rule.ID)
	}

	for _, g := range groups {
		if _, dup := r.groups[g.ID]; dup {
			return nil, eris.Errorf("carrier: duplicate group %q", g.ID)
		}
		r.groups[g.ID] = g
		for _, id := range g.Members {
			if _, ok := r.rules[id]; !ok {
				return nil, eris.Errorf("carrier: group %q references unknown carrier %q", g.ID, id)
			}
			if prev, taken := r.byID[id]; taken {
				return nil, eris.Errorf("carrier: %q belongs to both %q and %q", id, prev, g.ID)
			}
			r.byID[id] = g.ID
		}
	}

	for _, rule := range rules {
		if _, ok := r.byID[rule.ID]; !ok {
			return nil, eris.Errorf("carrier: %q belongs to no group", rule.ID)
		}
	}

	return r, nil
}

// NewDefault builds a Registry from the built-in rule tables.
func NewDefault() *Registry {
	r, err := NewRegistry(DefaultRules(), DefaultGroups())
	if err != nil {
		// The built-in tables are validated by tests; a failure here is
		// a programming error.
		panic(err)
	}
	return r
}

// RuleFor returns the rule for a carrier, or ErrUnknownCarrier.
func (r *Registry) RuleFor(id model.CarrierID) (model.CarrierRule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return model.CarrierRule{}, eris.Wrapf(model.ErrUnknownCarrier, "carrier: %q", id)
	}
	return rule, nil
}

// GroupOf returns the group a carrier belongs to, or ErrUnknownCarrier.
func (r *Registry) GroupOf(id model.CarrierID) (model.CarrierGroup, error) {
	gid, ok := r.byID[id]
	if !ok {
		return model.CarrierGroup{}, eris.Wrapf(model.ErrUnknownCarrier, "carrier: %q", id)
	}
	return r.groups[gid], nil
}

// Canonical returns all rules in declaration order. The order is stable
// across calls and is the tie-breaker for deterministic reselection.
func (r *Registry) Canonical() []model.CarrierRule {
	out := make([]model.CarrierRule, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rules[id])
	}
	return out
}

// DefaultRules returns the built-in carrier rule table.
func DefaultRules() []model.CarrierRule {
	return []model.CarrierRule{
		{ID: model.CarrierDocomo, DisplayName: "docomo", GroupID: "docomo", SafeDurationDays: 365, BLRiskDays: 365, AdminFee: 3850, MonthlyCost: 7315, MinMaintenanceMonths: 6, Color: "#c6002b"},
		{ID: model.CarrierAhamo, DisplayName: "ahamo", GroupID: "docomo", SafeDurationDays: 365, BLRiskDays: 365, AdminFee: 3850, MonthlyCost: 2970, MinMaintenanceMonths: 6, Color: "#00a5bf"},
		{ID: model.CarrierIrumo, DisplayName: "irumo", GroupID: "docomo", SafeDurationDays: 365, BLRiskDays: 365, AdminFee: 3850, MonthlyCost: 880, MinMaintenanceMonths: 6, Color: "#f5a623"},
		{ID: model.CarrierEximo, DisplayName: "eximo", GroupID: "docomo", SafeDurationDays: 365, BLRiskDays: 365, AdminFee: 3850, MonthlyCost: 7315, MinMaintenanceMonths: 6, Color: "#8b5cf6"},
		{ID: model.CarrierAu, DisplayName: "au", GroupID: "au", SafeDurationDays: 211, BLRiskDays: 180, AdminFee: 3850, MonthlyCost: 0, MinMaintenanceMonths: 6, Color: "#ff5722"},
		{ID: model.CarrierPovo, DisplayName: "povo", GroupID: "au", SafeDurationDays: 211, BLRiskDays: 180, AdminFee: 3850, MonthlyCost: 0, MinMaintenanceMonths: 6, Color: "#ffe135"},
		{ID: model.CarrierUQ, DisplayName: "UQ mobile", GroupID: "au", SafeDurationDays: 211, BLRiskDays: 180, AdminFee: 3850, MonthlyCost: 2365, MinMaintenanceMonths: 7, Color: "#e91e8c"},
		{ID: model.CarrierSoftbank, DisplayName: "SoftBank", GroupID: "softbank", SafeDurationDays: 181, BLRiskDays: 180, AdminFee: 3850, MonthlyCost: 7425, MinMaintenanceMonths: 6, Color: "#c0c0c0"},
		{ID: model.CarrierLinemo, DisplayName: "LINEMO", GroupID: "softbank", SafeDurationDays: 181, BLRiskDays: 180, AdminFee: 3850, MonthlyCost: 990, MinMaintenanceMonths: 6, Color: "#06c755"},
		{ID: model.CarrierYmobile, DisplayName: "Y!mobile", GroupID: "softbank", SafeDurationDays: 181, BLRiskDays: 180, AdminFee: 3850, MonthlyCost: 2365, MinMaintenanceMonths: 6, Color: "#ff0033"},
		{ID: model.CarrierRakuten, DisplayName: "Rakuten", GroupID: "rakuten", SafeDurationDays: 365, BLRiskDays: 365, AdminFee: 0, MonthlyCost: 1078, MinMaintenanceMonths: 1, Color: "#bf0000"},
		{ID: model.CarrierMineo, DisplayName: "mineo", GroupID: "mvno", SafeDurationDays: 181, BLRiskDays: 180, AdminFee: 3300, MonthlyCost: 1298, MinMaintenanceMonths: 7, Color: "#8aba00"},
		{ID: model.CarrierIIJmio, DisplayName: "IIJmio", GroupID: "mvno", SafeDurationDays: 181, BLRiskDays: 180, AdminFee: 3300, MonthlyCost: 850, MinMaintenanceMonths: 7, Color: "#7a3e9d"},
		{ID: model.CarrierNifMo, DisplayName: "NifMo", GroupID: "mvno", SafeDurationDays: 181, BLRiskDays: 180, AdminFee: 3300, MonthlyCost: 770, MinMaintenanceMonths: 7, Color: "#006699"},
		{ID: model.CarrierBiglobe, DisplayName: "BIGLOBE", GroupID: "mvno", SafeDurationDays: 181, BLRiskDays: 180, AdminFee: 3300, MonthlyCost: 990, MinMaintenanceMonths: 7, Color: "#0055aa"},
		{ID: model.CarrierAeon, DisplayName: "AEON Mobile", GroupID: "mvno", SafeDurationDays: 181, BLRiskDays: 180, AdminFee: 3300, MonthlyCost: 858, MinMaintenanceMonths: 7, Color: "#f10b54"},
		{ID: model.CarrierJCOM, DisplayName: "J:COM Mobile", GroupID: "mvno", SafeDurationDays: 181, BLRiskDays: 180, AdminFee: 3300, MonthlyCost: 1078, MinMaintenanceMonths: 7, Color: "#00a1e3"},
		{ID: model.CarrierNuro, DisplayName: "NURO Mobile", GroupID: "mvno", SafeDurationDays: 181, BLRiskDays: 180, AdminFee: 3300, MonthlyCost: 792, MinMaintenanceMonths: 7, Color: "#2b2b2b"},
	}
}

// DefaultGroups returns the built-in group table. The mvno bucket is
// exempt from contamination: its members share an administrative group
// without being economically linked.
func DefaultGroups() []model.CarrierGroup {
	return []model.CarrierGroup{
		{ID: "docomo", DisplayName: "NTT docomo", Members: []model.CarrierID{model.CarrierDocomo, model.CarrierAhamo, model.CarrierIrumo, model.CarrierEximo}},
		{ID: "au", DisplayName: "KDDI", Members: []model.CarrierID{model.CarrierAu, model.CarrierPovo, model.CarrierUQ}},
		{ID: "softbank", DisplayName: "SoftBank", Members: []model.CarrierID{model.CarrierSoftbank, model.CarrierLinemo, model.CarrierYmobile}},
		{ID: "rakuten", DisplayName: "Rakuten Mobile", Members: []model.CarrierID{model.CarrierRakuten}},
		{ID: "mvno", DisplayName: "Independent MVNO", Exempt: true, Members: []model.CarrierID{model.CarrierMineo, model.CarrierIIJmio, model.CarrierNifMo, model.CarrierBiglobe, model.CarrierAeon, model.CarrierJCOM, model.CarrierNuro}},
	}
}
