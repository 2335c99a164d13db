package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnp-lab/mnp-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLitePlanFacts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	// Absent baseline is nil, nil: the caller decides what absence means.
	got, err := st.GetPlanFact(ctx, "docomo", "irumo 0.5GB")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, st.UpsertPlanFact(ctx, model.PlanFact{
		Carrier: "docomo", PlanName: "irumo 0.5GB", BaseFee: 550,
	}))

	got, err = st.GetPlanFact(ctx, "docomo", "irumo 0.5GB")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(550), got.BaseFee)
	assert.NotEmpty(t, got.ID)

	// Upsert on the same key replaces the fee, keeps one row.
	require.NoError(t, st.UpsertPlanFact(ctx, model.PlanFact{
		Carrier: "docomo", PlanName: "irumo 0.5GB", BaseFee: 880,
	}))
	facts, err := st.ListPlanFacts(ctx)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, int64(880), facts[0].BaseFee)
}

func TestSQLiteProposalCAS(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p := model.RevisionProposal{
		ID:          "p1",
		Carrier:     "au",
		PlanName:    "povo 2.0",
		TargetField: model.FieldBaseFee,
		OldValue:    3465,
		NewValue:    3850,
		DetectedAt:  time.Now().UTC(),
		Status:      model.ProposalPending,
	}
	require.NoError(t, st.CreateProposal(ctx, p))

	// Winning transition.
	require.NoError(t, st.UpdateProposalStatus(ctx, "p1", model.ProposalPending, model.ProposalApproved))

	// Stale precondition reports InvalidState, not NotFound.
	err := st.UpdateProposalStatus(ctx, "p1", model.ProposalPending, model.ProposalDismissed)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidState)

	// Missing row reports NotFound.
	err = st.UpdateProposalStatus(ctx, "missing", model.ProposalPending, model.ProposalApproved)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)

	got, err := st.GetProposal(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, model.ProposalApproved, got.Status)
}

func TestSQLiteFindPendingProposal(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	found, err := st.FindPendingProposal(ctx, "au", model.FieldBaseFee, 3850)
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, st.CreateProposal(ctx, model.RevisionProposal{
		ID: "p1", Carrier: "au", PlanName: "povo 2.0", TargetField: model.FieldBaseFee,
		OldValue: 3465, NewValue: 3850, DetectedAt: time.Now().UTC(), Status: model.ProposalPending,
	}))

	found, err = st.FindPendingProposal(ctx, "au", model.FieldBaseFee, 3850)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "p1", found.ID)

	// A resolved proposal no longer blocks re-detection.
	require.NoError(t, st.UpdateProposalStatus(ctx, "p1", model.ProposalPending, model.ProposalDismissed))
	found, err = st.FindPendingProposal(ctx, "au", model.FieldBaseFee, 3850)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSQLiteListProposalsFilter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	seed := []model.RevisionProposal{
		{ID: "p1", Carrier: "au", PlanName: "a", TargetField: model.FieldBaseFee, NewValue: 1, DetectedAt: base, Status: model.ProposalPending},
		{ID: "p2", Carrier: "docomo", PlanName: "b", TargetField: model.FieldBaseFee, NewValue: 2, DetectedAt: base.Add(time.Minute), Status: model.ProposalPending},
		{ID: "p3", Carrier: "au", PlanName: "c", TargetField: model.FieldBaseFee, NewValue: 3, DetectedAt: base.Add(2 * time.Minute), Status: model.ProposalApproved},
	}
	for _, p := range seed {
		require.NoError(t, st.CreateProposal(ctx, p))
	}

	pending, err := st.ListProposals(ctx, ProposalFilter{Status: model.ProposalPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	au, err := st.ListProposals(ctx, ProposalFilter{Carrier: "au"})
	require.NoError(t, err)
	assert.Len(t, au, 2)

	// Newest first, limit applies after ordering.
	top, err := st.ListProposals(ctx, ProposalFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "p3", top[0].ID)
}

func TestSQLiteLines(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateLine(ctx, model.ContractLine{
		PhoneNumber:  "080-1234-5678",
		Carrier:      "softbank",
		ContractDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		AdminFee:     3850,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.CBPending, created.CBStatus)

	got, err := st.GetLine(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.PhoneNumber, got.PhoneNumber)
	assert.False(t, got.Archived)

	got.CBStatus = model.CBCleared
	require.NoError(t, st.UpdateLine(ctx, *got))

	require.NoError(t, st.ArchiveLine(ctx, created.ID))

	active, err := st.ListLines(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := st.ListLines(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Archived)
	assert.Equal(t, model.CBCleared, all[0].CBStatus)
}

func TestSQLiteLineNotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.GetLine(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.ErrorIs(t, st.ArchiveLine(ctx, "missing"), model.ErrNotFound)
	assert.ErrorIs(t, st.UpdateLine(ctx, model.ContractLine{ID: "missing"}), model.ErrNotFound)

	_, err = st.GetProposal(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
