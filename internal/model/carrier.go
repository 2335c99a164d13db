package model

// CarrierID identifies a carrier brand in the fixed registry.
type CarrierID string

const (
	CarrierDocomo   CarrierID = "docomo"
	CarrierAhamo    CarrierID = "ahamo"
	CarrierIrumo    CarrierID = "irumo"
	CarrierEximo    CarrierID = "eximo"
	CarrierAu       CarrierID = "au"
	CarrierPovo     CarrierID = "povo"
	CarrierUQ       CarrierID = "uq"
	CarrierSoftbank CarrierID = "softbank"
	CarrierLinemo   CarrierID = "linemo"
	CarrierYmobile  CarrierID = "ymobile"
	CarrierRakuten  CarrierID = "rakuten"
	CarrierMineo    CarrierID = "mineo"
	CarrierIIJmio   CarrierID = "iijmio"
	CarrierNifMo    CarrierID = "nifmo"
	CarrierBiglobe  CarrierID = "biglobe"
	CarrierAeon     CarrierID = "aeon"
	CarrierJCOM     CarrierID = "jcom"
	CarrierNuro     CarrierID = "nuro"
)

// CarrierRule holds the per-carrier retention window and contract
// economics. Immutable reference data, loaded once at startup.
type CarrierRule struct {
	ID          CarrierID `json:"id" yaml:"id"`
	DisplayName string    `json:"display_name" yaml:"display_name"`
	GroupID     string    `json:"group_id" yaml:"group_id"`

	// Retention window. SafeDurationDays is the contractual minimum
	// before cancellation carries no blacklist risk; BLRiskDays is the
	// trailing window before that during which risk is elevated.
	SafeDurationDays int `json:"safe_duration_days" yaml:"safe_duration_days"`
	BLRiskDays       int `json:"bl_risk_days" yaml:"bl_risk_days"`

	// Economics, in yen.
	AdminFee             int64 `json:"admin_fee" yaml:"admin_fee"`
	MonthlyCost          int64 `json:"monthly_cost" yaml:"monthly_cost"`
	PenaltyFee           int64 `json:"penalty_fee" yaml:"penalty_fee"`
	MinMaintenanceMonths int   `json:"min_maintenance_months" yaml:"min_maintenance_months"`

	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

// CarrierGroup is a set of carriers under one parent operator. Transfers
// inside a non-exempt group are flagged as contaminated. Exempt marks
// administrative buckets (unrelated MVNOs) that share a group without
// being economically linked.
type CarrierGroup struct {
	ID          string      `json:"id" yaml:"id"`
	DisplayName string      `json:"display_name" yaml:"display_name"`
	Members     []CarrierID `json:"members" yaml:"members"`
	Exempt      bool        `json:"exempt" yaml:"exempt"`
}

// ContaminationResult is the outcome of a transfer check between two
// carriers. Reason is empty when the transfer is clean.
type ContaminationResult struct {
	Contaminated bool   `json:"contaminated"`
	Reason       string `json:"reason,omitempty"`
	GroupID      string `json:"group_id,omitempty"`
}
