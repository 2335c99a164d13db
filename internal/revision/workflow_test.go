package revision

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnp-lab/mnp-cli/internal/model"
	"github.com/mnp-lab/mnp-cli/internal/store"
)

// flakyStore fails a configurable number of plan-fact writes before
// delegating to the real store.
type flakyStore struct {
	store.Store
	failUpserts int
}

func (s *flakyStore) UpsertPlanFact(ctx context.Context, f model.PlanFact) error {
	if s.failUpserts > 0 {
		s.failUpserts--
		return eris.New("disk full")
	}
	return s.Store.UpsertPlanFact(ctx, f)
}

func newTestWorkflow(t *testing.T) (*Workflow, store.Store) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	return New(st), st
}

func fact(carrier model.CarrierID, plan string, fee int64) model.ObservedFact {
	return model.ObservedFact{Carrier: carrier, PlanName: plan, BaseFee: fee}
}

func TestDetectFirstObservationEstablishesBaseline(t *testing.T) {
	wf, st := newTestWorkflow(t)
	ctx := context.Background()

	created, err := wf.DetectChanges(ctx, []model.ObservedFact{fact("au", "povo 2.0", 3465)})
	require.NoError(t, err)
	assert.Empty(t, created, "first observation needs no approval")

	stored, err := st.GetPlanFact(ctx, "au", "povo 2.0")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(3465), stored.BaseFee)
}

func TestDetectFeeChangeCreatesProposal(t *testing.T) {
	wf, st := newTestWorkflow(t)
	ctx := context.Background()

	_, err := wf.DetectChanges(ctx, []model.ObservedFact{fact("au", "povo 2.0", 3465)})
	require.NoError(t, err)

	created, err := wf.DetectChanges(ctx, []model.ObservedFact{fact("au", "povo 2.0", 3850)})
	require.NoError(t, err)
	require.Len(t, created, 1)

	p := created[0]
	assert.Equal(t, int64(3465), p.OldValue)
	assert.Equal(t, int64(3850), p.NewValue)
	assert.Equal(t, model.FieldBaseFee, p.TargetField)
	assert.Equal(t, model.ProposalPending, p.Status)
	assert.NotEmpty(t, p.EvidenceURL)

	// The baseline does not move until the proposal is approved.
	stored, err := st.GetPlanFact(ctx, "au", "povo 2.0")
	require.NoError(t, err)
	assert.Equal(t, int64(3465), stored.BaseFee)
}

func TestDetectIdempotent(t *testing.T) {
	wf, st := newTestWorkflow(t)
	ctx := context.Background()

	observed := []model.ObservedFact{fact("au", "povo 2.0", 3465)}
	_, err := wf.DetectChanges(ctx, observed)
	require.NoError(t, err)

	changed := []model.ObservedFact{fact("au", "povo 2.0", 3850)}
	first, err := wf.DetectChanges(ctx, changed)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Re-running against the unchanged source creates nothing new.
	second, err := wf.DetectChanges(ctx, changed)
	require.NoError(t, err)
	assert.Empty(t, second)

	pending, err := st.ListProposals(ctx, store.ProposalFilter{Status: model.ProposalPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestDetectMatchingFeeIsNoop(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	ctx := context.Background()

	observed := []model.ObservedFact{fact("au", "povo 2.0", 3465)}
	_, err := wf.DetectChanges(ctx, observed)
	require.NoError(t, err)

	created, err := wf.DetectChanges(ctx, observed)
	require.NoError(t, err)
	assert.Empty(t, created)

	pending, err := wf.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestApproveAppliesNewValue(t *testing.T) {
	wf, st := newTestWorkflow(t)
	ctx := context.Background()

	_, err := wf.DetectChanges(ctx, []model.ObservedFact{fact("au", "povo 2.0", 3465)})
	require.NoError(t, err)
	created, err := wf.DetectChanges(ctx, []model.ObservedFact{fact("au", "povo 2.0", 3850)})
	require.NoError(t, err)
	require.Len(t, created, 1)

	approved, err := wf.Approve(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalApproved, approved.Status)

	stored, err := st.GetPlanFact(ctx, "au", "povo 2.0")
	require.NoError(t, err)
	assert.Equal(t, int64(3850), stored.BaseFee)
}

func TestApproveRetryableAfterFactWriteFailure(t *testing.T) {
	ctx := context.Background()

	base, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { base.Close() })
	require.NoError(t, base.Migrate(ctx))

	fs := &flakyStore{Store: base}
	wf := New(fs)

	_, err = wf.DetectChanges(ctx, []model.ObservedFact{fact("au", "povo 2.0", 3465)})
	require.NoError(t, err)
	created, err := wf.DetectChanges(ctx, []model.ObservedFact{fact("au", "povo 2.0", 3850)})
	require.NoError(t, err)
	require.Len(t, created, 1)
	id := created[0].ID

	fs.failUpserts = 1
	_, err = wf.Approve(ctx, id)
	require.Error(t, err)

	// The failed apply leaves the proposal pending and the baseline
	// unmoved, never a terminal proposal with a stale fact.
	p, err := base.GetProposal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalPending, p.Status)
	stored, err := base.GetPlanFact(ctx, "au", "povo 2.0")
	require.NoError(t, err)
	assert.Equal(t, int64(3465), stored.BaseFee)

	// A plain retry completes the approval.
	approved, err := wf.Approve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalApproved, approved.Status)
	stored, err = base.GetPlanFact(ctx, "au", "povo 2.0")
	require.NoError(t, err)
	assert.Equal(t, int64(3850), stored.BaseFee)
}

func TestApproveUnknownTargetFieldRejectedBeforeWrite(t *testing.T) {
	wf, st := newTestWorkflow(t)
	ctx := context.Background()

	_, err := wf.DetectChanges(ctx, []model.ObservedFact{fact("au", "povo 2.0", 3465)})
	require.NoError(t, err)

	p := model.RevisionProposal{
		ID:          uuid.New().String(),
		Carrier:     "au",
		PlanName:    "povo 2.0",
		TargetField: "monthly_cost",
		OldValue:    3465,
		NewValue:    4400,
		EvidenceURL: "https://www.au.ne.jp/plan/detail",
		DetectedAt:  time.Now().UTC(),
		Status:      model.ProposalPending,
	}
	require.NoError(t, st.CreateProposal(ctx, p))

	_, err = wf.Approve(ctx, p.ID)
	require.Error(t, err)

	// Rejected before any mutation: still pending, baseline untouched.
	got, err := st.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalPending, got.Status)
	stored, err := st.GetPlanFact(ctx, "au", "povo 2.0")
	require.NoError(t, err)
	assert.Equal(t, int64(3465), stored.BaseFee)
}

func TestApproveTerminalProposalFails(t *testing.T) {
	wf, st := newTestWorkflow(t)
	ctx := context.Background()

	_, err := wf.DetectChanges(ctx, []model.ObservedFact{fact("au", "povo 2.0", 3465)})
	require.NoError(t, err)
	created, err := wf.DetectChanges(ctx, []model.ObservedFact{fact("au", "povo 2.0", 3850)})
	require.NoError(t, err)
	require.Len(t, created, 1)
	id := created[0].ID

	_, err = wf.Approve(ctx, id)
	require.NoError(t, err)

	// Double approve and approve-after-dismiss both hit the terminal guard.
	_, err = wf.Approve(ctx, id)
	assert.ErrorIs(t, err, model.ErrInvalidState)
	_, err = wf.Dismiss(ctx, id)
	assert.ErrorIs(t, err, model.ErrInvalidState)

	// Stored data is untouched by the failed calls.
	stored, err := st.GetPlanFact(ctx, "au", "povo 2.0")
	require.NoError(t, err)
	assert.Equal(t, int64(3850), stored.BaseFee)
}

func TestDismissLeavesDataUnchanged(t *testing.T) {
	wf, st := newTestWorkflow(t)
	ctx := context.Background()

	_, err := wf.DetectChanges(ctx, []model.ObservedFact{fact("au", "povo 2.0", 3465)})
	require.NoError(t, err)
	created, err := wf.DetectChanges(ctx, []model.ObservedFact{fact("au", "povo 2.0", 3850)})
	require.NoError(t, err)
	require.Len(t, created, 1)

	dismissed, err := wf.Dismiss(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalDismissed, dismissed.Status)

	stored, err := st.GetPlanFact(ctx, "au", "povo 2.0")
	require.NoError(t, err)
	assert.Equal(t, int64(3465), stored.BaseFee)

	// After the dismissal the same change can be detected again.
	again, err := wf.DetectChanges(ctx, []model.ObservedFact{fact("au", "povo 2.0", 3850)})
	require.NoError(t, err)
	assert.Len(t, again, 1)
}

func TestApproveUnknownProposal(t *testing.T) {
	wf, _ := newTestWorkflow(t)

	_, err := wf.Approve(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = wf.Dismiss(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDetectConcurrentSameFact(t *testing.T) {
	wf, st := newTestWorkflow(t)
	ctx := context.Background()

	_, err := wf.DetectChanges(ctx, []model.ObservedFact{fact("au", "povo 2.0", 3465)})
	require.NoError(t, err)

	// Concurrent detections of the same change must net exactly one
	// pending proposal.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = wf.DetectChanges(ctx, []model.ObservedFact{fact("au", "povo 2.0", 3850)})
		}()
	}
	wg.Wait()

	pending, err := st.ListProposals(ctx, store.ProposalFilter{Status: model.ProposalPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestConcurrentApproveSingleWinner(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	ctx := context.Background()

	_, err := wf.DetectChanges(ctx, []model.ObservedFact{fact("au", "povo 2.0", 3465)})
	require.NoError(t, err)
	created, err := wf.DetectChanges(ctx, []model.ObservedFact{fact("au", "povo 2.0", 3850)})
	require.NoError(t, err)
	require.Len(t, created, 1)
	id := created[0].ID

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := wf.Approve(ctx, id); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
