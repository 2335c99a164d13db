package model

import "time"

// PlanFact is the stored baseline for a (carrier, plan) pair's fee.
// Mutated only by first-observation insert or an approved revision.
type PlanFact struct {
	ID        string    `json:"id"`
	Carrier   CarrierID `json:"carrier"`
	PlanName  string    `json:"plan_name"`
	BaseFee   int64     `json:"base_fee"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ObservedFact is a pricing fact observed from an external source. The
// transport that produced it is the caller's concern; the engine only
// diffs it against stored plan facts.
type ObservedFact struct {
	Carrier     CarrierID `json:"carrier" yaml:"carrier"`
	PlanName    string    `json:"plan_name" yaml:"plan_name"`
	BaseFee     int64     `json:"base_fee" yaml:"base_fee"`
	EvidenceURL string    `json:"evidence_url,omitempty" yaml:"evidence_url,omitempty"`
	ObservedAt  time.Time `json:"observed_at" yaml:"observed_at"`
}
