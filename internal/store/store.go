// Package store persists plan facts, revision proposals, and contract
// lines behind a driver-agnostic interface.
package store

import (
	"context"

	"github.com/mnp-lab/mnp-cli/internal/model"
)

// ProposalFilter specifies criteria for listing revision proposals.
type ProposalFilter struct {
	Status  model.ProposalStatus `json:"status,omitempty"`
	Carrier model.CarrierID      `json:"carrier,omitempty"`
	Limit   int                  `json:"limit,omitempty"`
	Offset  int                  `json:"offset,omitempty"`
}

// Store defines the persistence interface for the engine. All reads and
// writes are bounded by the caller's context and are idempotent at the
// business level, so retrying a failed call is safe.
type Store interface {
	// Plan facts
	GetPlanFact(ctx context.Context, carrier model.CarrierID, planName string) (*model.PlanFact, error)
	UpsertPlanFact(ctx context.Context, fact model.PlanFact) error
	ListPlanFacts(ctx context.Context) ([]model.PlanFact, error)

	// Revision proposals
	CreateProposal(ctx context.Context, p model.RevisionProposal) error
	GetProposal(ctx context.Context, id string) (*model.RevisionProposal, error)
	FindPendingProposal(ctx context.Context, carrier model.CarrierID, targetField string, newValue int64) (*model.RevisionProposal, error)
	// UpdateProposalStatus transitions a proposal between statuses with
	// compare-and-swap semantics: ErrInvalidState when the stored status
	// differs from `from`, ErrNotFound when the id does not exist.
	UpdateProposalStatus(ctx context.Context, id string, from, to model.ProposalStatus) error
	ListProposals(ctx context.Context, filter ProposalFilter) ([]model.RevisionProposal, error)

	// Contract lines
	CreateLine(ctx context.Context, line model.ContractLine) (*model.ContractLine, error)
	GetLine(ctx context.Context, id string) (*model.ContractLine, error)
	UpdateLine(ctx context.Context, line model.ContractLine) error
	ArchiveLine(ctx context.Context, id string) error
	ListLines(ctx context.Context, includeArchived bool) ([]model.ContractLine, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
