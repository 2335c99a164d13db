// Package revision runs the detect/approve/dismiss workflow that gates
// externally observed pricing facts before they mutate stored plan data.
package revision

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mnp-lab/mnp-cli/internal/model"
	"github.com/mnp-lab/mnp-cli/internal/store"
)

// Workflow ingests observed pricing facts, diffs them against stored
// plan facts, and manages the resulting proposals. Mutating operations
// are serialized per (carrier, planName) key so concurrent detections
// cannot create duplicate proposals and approve/dismiss cannot race a
// detect on the same plan.
type Workflow struct {
	store store.Store
	now   func() time.Time

	mu   sync.Mutex
	keys map[string]*sync.Mutex
}

// New creates a Workflow over the given store.
func New(st store.Store) *Workflow {
	return &Workflow{
		store: st,
		now:   func() time.Time { return time.Now().UTC() },
		keys:  make(map[string]*sync.Mutex),
	}
}

func (w *Workflow) lock(carrier model.CarrierID, planName string) func() {
	key := string(carrier) + "\x00" + planName
	w.mu.Lock()
	m, ok := w.keys[key]
	if !ok {
		m = &sync.Mutex{}
		w.keys[key] = m
	}
	w.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// DetectChanges diffs observed facts against stored plan facts. A fact
// with no stored baseline is inserted as new truth without approval; a
// differing base fee produces a pending proposal unless an identical
// pending one already exists. Returns only the proposals created by
// this call, so repeated runs against an unchanged source return
// nothing after the first.
func (w *Workflow) DetectChanges(ctx context.Context, observed []model.ObservedFact) ([]model.RevisionProposal, error) {
	var created []model.RevisionProposal

	for _, o := range observed {
		p, err := w.detectOne(ctx, o)
		if err != nil {
			return created, err
		}
		if p != nil {
			created = append(created, *p)
		}
	}

	zap.L().Info("revision: detection complete",
		zap.Int("observed", len(observed)),
		zap.Int("proposals_created", len(created)),
	)
	return created, nil
}

func (w *Workflow) detectOne(ctx context.Context, o model.ObservedFact) (*model.RevisionProposal, error) {
	unlock := w.lock(o.Carrier, o.PlanName)
	defer unlock()

	current, err := w.store.GetPlanFact(ctx, o.Carrier, o.PlanName)
	if err != nil {
		return nil, eris.Wrapf(err, "revision: load baseline %s/%s", o.Carrier, o.PlanName)
	}

	// First observation establishes truth; it does not need approval.
	if current == nil {
		fact := model.PlanFact{
			Carrier:   o.Carrier,
			PlanName:  o.PlanName,
			BaseFee:   o.BaseFee,
			UpdatedAt: w.now(),
		}
		if err := w.store.UpsertPlanFact(ctx, fact); err != nil {
			return nil, eris.Wrapf(err, "revision: insert baseline %s/%s", o.Carrier, o.PlanName)
		}
		return nil, nil
	}

	if current.BaseFee == o.BaseFee {
		return nil, nil
	}

	// Duplicate suppression: an equivalent pending proposal means this
	// change was already detected and is awaiting review.
	existing, err := w.store.FindPendingProposal(ctx, o.Carrier, model.FieldBaseFee, o.BaseFee)
	if err != nil {
		return nil, eris.Wrap(err, "revision: dedupe check")
	}
	if existing != nil {
		return nil, nil
	}

	evidence := o.EvidenceURL
	if evidence == "" {
		evidence = fmt.Sprintf("https://www.%s.ne.jp/plan/detail", o.Carrier)
	}

	p := model.RevisionProposal{
		ID:          uuid.New().String(),
		Carrier:     o.Carrier,
		PlanName:    o.PlanName,
		TargetField: model.FieldBaseFee,
		OldValue:    current.BaseFee,
		NewValue:    o.BaseFee,
		EvidenceURL: evidence,
		DetectedAt:  w.now(),
		Status:      model.ProposalPending,
	}
	if err := w.store.CreateProposal(ctx, p); err != nil {
		return nil, eris.Wrapf(err, "revision: create proposal %s/%s", o.Carrier, o.PlanName)
	}

	zap.L().Info("revision: change detected",
		zap.String("carrier", string(o.Carrier)),
		zap.String("plan", o.PlanName),
		zap.Int64("old_value", current.BaseFee),
		zap.Int64("new_value", o.BaseFee),
	)
	return &p, nil
}

// Approve transitions a pending proposal to approved and writes its new
// value into the corresponding plan fact. This is the only write path to
// a plan fact besides first-observation insert.
func (w *Workflow) Approve(ctx context.Context, proposalID string) (*model.RevisionProposal, error) {
	p, err := w.store.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	unlock := w.lock(p.Carrier, p.PlanName)
	defer unlock()

	// Re-read under the lock: the first read raced any approve/dismiss
	// holding this key, and a stale pending status here would let a
	// resolved proposal reach the fact write below.
	if p, err = w.store.GetProposal(ctx, proposalID); err != nil {
		return nil, err
	}
	if !model.CanTransition(p.Status, model.ProposalApproved) {
		return nil, eris.Wrapf(model.ErrInvalidState, "proposal %s is %s", proposalID, p.Status)
	}

	fact := model.PlanFact{
		Carrier:   p.Carrier,
		PlanName:  p.PlanName,
		UpdatedAt: w.now(),
	}
	switch p.TargetField {
	case model.FieldBaseFee:
		fact.BaseFee = p.NewValue
	default:
		return nil, eris.Errorf("revision: proposal %s targets unknown field %q", proposalID, p.TargetField)
	}

	// The fact write lands before the status flip. A failure here leaves
	// the proposal pending, so the approval can simply be retried; the
	// CAS still guards against writers outside this process.
	if err := w.store.UpsertPlanFact(ctx, fact); err != nil {
		return nil, eris.Wrapf(err, "revision: apply proposal %s", proposalID)
	}
	if err := w.store.UpdateProposalStatus(ctx, proposalID, model.ProposalPending, model.ProposalApproved); err != nil {
		return nil, err
	}

	p.Status = model.ProposalApproved
	zap.L().Info("revision: proposal approved",
		zap.String("proposal_id", proposalID),
		zap.String("carrier", string(p.Carrier)),
		zap.String("plan", p.PlanName),
		zap.Int64("new_value", p.NewValue),
	)
	return p, nil
}

// Dismiss transitions a pending proposal to dismissed. No plan data is
// touched.
func (w *Workflow) Dismiss(ctx context.Context, proposalID string) (*model.RevisionProposal, error) {
	p, err := w.store.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	unlock := w.lock(p.Carrier, p.PlanName)
	defer unlock()

	if !model.CanTransition(p.Status, model.ProposalDismissed) {
		return nil, eris.Wrapf(model.ErrInvalidState, "proposal %s is %s", proposalID, p.Status)
	}
	if err := w.store.UpdateProposalStatus(ctx, proposalID, model.ProposalPending, model.ProposalDismissed); err != nil {
		return nil, err
	}

	p.Status = model.ProposalDismissed
	zap.L().Info("revision: proposal dismissed", zap.String("proposal_id", proposalID))
	return p, nil
}

// Pending lists proposals still awaiting review.
func (w *Workflow) Pending(ctx context.Context) ([]model.RevisionProposal, error) {
	return w.store.ListProposals(ctx, store.ProposalFilter{Status: model.ProposalPending})
}
