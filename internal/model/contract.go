package model

import "time"

// CBStatus tracks whether a line's expected cashback has been paid out.
type CBStatus string

const (
	CBPending CBStatus = "pending"
	CBCleared CBStatus = "cleared"
	CBMissed  CBStatus = "missed"
)

// ContractLine is one active subscription registered by the operator.
// Risk and profit components are read-only consumers; the line is
// mutated only by explicit field edits or archival.
type ContractLine struct {
	ID             string    `json:"id"`
	PhoneNumber    string    `json:"phone_number"`
	Carrier        CarrierID `json:"carrier"`
	PlanName       string    `json:"plan_name"`
	ContractDate   time.Time `json:"contract_date"`
	AdminFee       int64     `json:"admin_fee"`
	DeviceCost     int64     `json:"device_cost"`
	RunningCost    int64     `json:"running_cost"`
	CashbackAmount int64     `json:"cashback_amount"`
	CBStatus       CBStatus  `json:"cb_status"`
	Archived       bool      `json:"archived"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FiberContract is a fixed-line contract whose commission stacks on top
// of mobile line profits.
type FiberContract struct {
	ID           string    `json:"id"`
	ProviderName string    `json:"provider_name"`
	ContractDate time.Time `json:"contract_date"`
	Commission   int64     `json:"commission"`
}
