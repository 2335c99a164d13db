package model

import "time"

// ProposalStatus is the lifecycle state of a revision proposal.
type ProposalStatus string

const (
	ProposalPending   ProposalStatus = "pending"
	ProposalApproved  ProposalStatus = "approved"
	ProposalDismissed ProposalStatus = "dismissed"
)

// FieldBaseFee is the only plan fact field subject to revision today.
const FieldBaseFee = "base_fee"

// proposalTransitions is the full transition table. Both targets are
// terminal; anything not listed here is rejected.
var proposalTransitions = map[ProposalStatus][]ProposalStatus{
	ProposalPending: {ProposalApproved, ProposalDismissed},
}

// CanTransition reports whether a proposal may move from one status to
// another.
func CanTransition(from, to ProposalStatus) bool {
	for _, t := range proposalTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status permits no further transitions.
func (s ProposalStatus) Terminal() bool {
	return len(proposalTransitions[s]) == 0
}

// RevisionProposal is a detected discrepancy between a stored plan fact
// and an externally observed value, awaiting operator review. Immutable
// once it leaves pending.
type RevisionProposal struct {
	ID          string         `json:"id"`
	Carrier     CarrierID      `json:"carrier"`
	PlanName    string         `json:"plan_name"`
	TargetField string         `json:"target_field"`
	OldValue    int64          `json:"old_value"`
	NewValue    int64          `json:"new_value"`
	EvidenceURL string         `json:"evidence_url"`
	DetectedAt  time.Time      `json:"detected_at"`
	Status      ProposalStatus `json:"status"`
}
