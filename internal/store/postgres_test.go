package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnp-lab/mnp-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresGetPlanFact(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()

	updated := time.Now().UTC()
	mock.ExpectQuery("SELECT id, carrier, plan_name, base_fee, updated_at FROM plan_facts").
		WithArgs("au", "povo 2.0").
		WillReturnRows(pgxmock.NewRows([]string{"id", "carrier", "plan_name", "base_fee", "updated_at"}).
			AddRow("f1", model.CarrierID("au"), "povo 2.0", int64(3465), updated))

	fact, err := st.GetPlanFact(ctx, "au", "povo 2.0")
	require.NoError(t, err)
	require.NotNil(t, fact)
	assert.Equal(t, int64(3465), fact.BaseFee)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetPlanFactAbsent(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, carrier, plan_name, base_fee, updated_at FROM plan_facts").
		WithArgs("au", "ghost plan").
		WillReturnRows(pgxmock.NewRows([]string{"id", "carrier", "plan_name", "base_fee", "updated_at"}))

	fact, err := st.GetPlanFact(context.Background(), "au", "ghost plan")
	require.NoError(t, err)
	assert.Nil(t, fact)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertPlanFact(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO plan_facts").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := st.UpsertPlanFact(context.Background(), model.PlanFact{
		Carrier: "au", PlanName: "povo 2.0", BaseFee: 3850,
	})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateProposalStatus(t *testing.T) {
	t.Run("winner", func(t *testing.T) {
		st, mock := newMockStore(t)

		mock.ExpectExec("UPDATE revision_proposals SET status").
			WithArgs("approved", "p1", "pending").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := st.UpdateProposalStatus(context.Background(), "p1", model.ProposalPending, model.ProposalApproved)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale status is invalid state", func(t *testing.T) {
		st, mock := newMockStore(t)

		mock.ExpectExec("UPDATE revision_proposals SET status").
			WithArgs("approved", "p1", "pending").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery("SELECT id, carrier, plan_name, target_field").
			WithArgs("p1").
			WillReturnRows(pgxmock.NewRows([]string{"id", "carrier", "plan_name", "target_field", "old_value", "new_value", "evidence_url", "detected_at", "status"}).
				AddRow("p1", model.CarrierID("au"), "povo 2.0", model.FieldBaseFee, int64(3465), int64(3850), "", time.Now().UTC(), model.ProposalDismissed))

		err := st.UpdateProposalStatus(context.Background(), "p1", model.ProposalPending, model.ProposalApproved)
		assert.ErrorIs(t, err, model.ErrInvalidState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing proposal is not found", func(t *testing.T) {
		st, mock := newMockStore(t)

		mock.ExpectExec("UPDATE revision_proposals SET status").
			WithArgs("approved", "missing", "pending").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery("SELECT id, carrier, plan_name, target_field").
			WithArgs("missing").
			WillReturnRows(pgxmock.NewRows([]string{"id", "carrier", "plan_name", "target_field", "old_value", "new_value", "evidence_url", "detected_at", "status"}))

		err := st.UpdateProposalStatus(context.Background(), "missing", model.ProposalPending, model.ProposalApproved)
		assert.ErrorIs(t, err, model.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresListProposalsArgs(t *testing.T) {
	st, mock := newMockStore(t)

	detected := time.Now().UTC()
	mock.ExpectQuery("FROM revision_proposals WHERE 1=1 AND status = \\$1 AND carrier = \\$2 ORDER BY detected_at DESC LIMIT \\$3").
		WithArgs("pending", "au", 5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "carrier", "plan_name", "target_field", "old_value", "new_value", "evidence_url", "detected_at", "status"}).
			AddRow("p1", model.CarrierID("au"), "povo 2.0", model.FieldBaseFee, int64(3465), int64(3850), "", detected, model.ProposalPending))

	out, err := st.ListProposals(context.Background(), ProposalFilter{
		Status: model.ProposalPending, Carrier: "au", Limit: 5,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "p1", out[0].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresArchiveLineNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("UPDATE contract_lines SET archived").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := st.ArchiveLine(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrate(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS plan_facts").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
