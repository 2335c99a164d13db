// Package monitoring watches contract lines and the revision backlog,
// sending webhook alerts when risk windows open or reviews pile up.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/mnp-lab/mnp-cli/internal/carrier"
	"github.com/mnp-lab/mnp-cli/internal/model"
	"github.com/mnp-lab/mnp-cli/internal/risk"
	"github.com/mnp-lab/mnp-cli/internal/store"
)

// LineRisk pairs a line with its current assessment.
type LineRisk struct {
	Line model.ContractLine   `json:"line"`
	Risk model.RiskAssessment `json:"risk"`
}

// Snapshot is the state the alerter evaluates.
type Snapshot struct {
	AsOf             time.Time     `json:"as_of"`
	ActiveLines      int           `json:"active_lines"`
	DangerLines      []LineRisk    `json:"danger_lines"`
	WarningLines     []LineRisk    `json:"warning_lines"`
	NearSafeLines    []LineRisk    `json:"near_safe_lines"` // safe within WarningWindowDays
	PendingProposals int           `json:"pending_proposals"`
	OldestPendingAge time.Duration `json:"oldest_pending_age"`
}

// Collector assembles monitoring snapshots from the store.
type Collector struct {
	store store.Store
	reg   *carrier.Registry
}

// NewCollector creates a Collector.
func NewCollector(st store.Store, reg *carrier.Registry) *Collector {
	return &Collector{store: st, reg: reg}
}

// Collect assesses every active line and counts the pending backlog.
// nearWindowDays widens the "about to be safe" bucket: lines whose
// remaining days fall inside it are worth acting on soon.
func (c *Collector) Collect(ctx context.Context, asOf time.Time, nearWindowDays int) (*Snapshot, error) {
	lines, err := c.store.ListLines(ctx, false)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list lines")
	}

	snap := &Snapshot{AsOf: asOf, ActiveLines: len(lines)}
	for _, line := range lines {
		assessment, err := risk.AssessLine(c.reg, line, asOf)
		if err != nil {
			return nil, eris.Wrap(err, "monitoring: assess line")
		}

		lr := LineRisk{Line: line, Risk: assessment}
		switch assessment.Level {
		case model.RiskDanger:
			snap.DangerLines = append(snap.DangerLines, lr)
		case model.RiskWarning:
			snap.WarningLines = append(snap.WarningLines, lr)
		}
		if assessment.Level != model.RiskSafe && assessment.DaysRemaining <= nearWindowDays {
			snap.NearSafeLines = append(snap.NearSafeLines, lr)
		}
	}

	pending, err := c.store.ListProposals(ctx, store.ProposalFilter{Status: model.ProposalPending})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list pending proposals")
	}
	snap.PendingProposals = len(pending)
	for _, p := range pending {
		if age := asOf.Sub(p.DetectedAt); age > snap.OldestPendingAge {
			snap.OldestPendingAge = age
		}
	}

	return snap, nil
}
