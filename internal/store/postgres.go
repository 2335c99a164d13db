package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/mnp-lab/mnp-cli/internal/db"
	"github.com/mnp-lab/mnp-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hottest store operations.
var preparedStatements = map[string]string{
	"get_plan_fact":          `SELECT id, carrier, plan_name, base_fee, updated_at FROM plan_facts WHERE carrier = $1 AND plan_name = $2`,
	"find_pending_proposal":  `SELECT id, carrier, plan_name, target_field, old_value, new_value, evidence_url, detected_at, status FROM revision_proposals WHERE carrier = $1 AND target_field = $2 AND new_value = $3 AND status = $4 LIMIT 1`,
	"update_proposal_status": `UPDATE revision_proposals SET status = $1 WHERE id = $2 AND status = $3`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS plan_facts (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	carrier    TEXT NOT NULL,
	plan_name  TEXT NOT NULL,
	base_fee   BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (carrier, plan_name)
);

CREATE TABLE IF NOT EXISTS revision_proposals (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	carrier      TEXT NOT NULL,
	plan_name    TEXT NOT NULL,
	target_field TEXT NOT NULL,
	old_value    BIGINT NOT NULL,
	new_value    BIGINT NOT NULL,
	evidence_url TEXT NOT NULL DEFAULT '',
	detected_at  TIMESTAMPTZ NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending'
);

CREATE TABLE IF NOT EXISTS contract_lines (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	phone_number    TEXT NOT NULL DEFAULT '',
	carrier         TEXT NOT NULL,
	plan_name       TEXT NOT NULL DEFAULT '',
	contract_date   TIMESTAMPTZ NOT NULL,
	admin_fee       BIGINT NOT NULL DEFAULT 0,
	device_cost     BIGINT NOT NULL DEFAULT 0,
	running_cost    BIGINT NOT NULL DEFAULT 0,
	cashback_amount BIGINT NOT NULL DEFAULT 0,
	cb_status       TEXT NOT NULL DEFAULT 'pending',
	archived        BOOLEAN NOT NULL DEFAULT false,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_proposals_status ON revision_proposals(status);
CREATE INDEX IF NOT EXISTS idx_proposals_dedupe ON revision_proposals(carrier, target_field, new_value, status);
CREATE INDEX IF NOT EXISTS idx_lines_carrier ON contract_lines(carrier);
CREATE INDEX IF NOT EXISTS idx_lines_archived ON contract_lines(archived);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Plan facts ---

func (s *PostgresStore) GetPlanFact(ctx context.Context, carrier model.CarrierID, planName string) (*model.PlanFact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, carrier, plan_name, base_fee, updated_at FROM plan_facts WHERE carrier = $1 AND plan_name = $2`,
		string(carrier), planName,
	)

	var f model.PlanFact
	err := row.Scan(&f.ID, &f.Carrier, &f.PlanName, &f.BaseFee, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get plan fact")
	}
	return &f, nil
}

func (s *PostgresStore) UpsertPlanFact(ctx context.Context, fact model.PlanFact) error {
	if fact.ID == "" {
		fact.ID = uuid.New().String()
	}
	if fact.UpdatedAt.IsZero() {
		fact.UpdatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO plan_facts (id, carrier, plan_name, base_fee, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (carrier, plan_name)
		DO UPDATE SET base_fee = EXCLUDED.base_fee, updated_at = EXCLUDED.updated_at`,
		fact.ID, string(fact.Carrier), fact.PlanName, fact.BaseFee, fact.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: upsert plan fact")
}

func (s *PostgresStore) ListPlanFacts(ctx context.Context) ([]model.PlanFact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, carrier, plan_name, base_fee, updated_at FROM plan_facts ORDER BY carrier, plan_name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list plan facts")
	}
	defer rows.Close()

	var facts []model.PlanFact
	for rows.Next() {
		var f model.PlanFact
		if err := rows.Scan(&f.ID, &f.Carrier, &f.PlanName, &f.BaseFee, &f.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan plan fact")
		}
		facts = append(facts, f)
	}
	return facts, eris.Wrap(rows.Err(), "postgres: iterate plan facts")
}

// --- Revision proposals ---

func (s *PostgresStore) CreateProposal(ctx context.Context, p model.RevisionProposal) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO revision_proposals (id, carrier, plan_name, target_field, old_value, new_value, evidence_url, detected_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, string(p.Carrier), p.PlanName, p.TargetField, p.OldValue, p.NewValue, p.EvidenceURL, p.DetectedAt, string(p.Status),
	)
	return eris.Wrap(err, "postgres: create proposal")
}

func (s *PostgresStore) GetProposal(ctx context.Context, id string) (*model.RevisionProposal, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, carrier, plan_name, target_field, old_value, new_value, evidence_url, detected_at, status
		 FROM revision_proposals WHERE id = $1`, id,
	)

	var p model.RevisionProposal
	err := row.Scan(&p.ID, &p.Carrier, &p.PlanName, &p.TargetField, &p.OldValue, &p.NewValue, &p.EvidenceURL, &p.DetectedAt, &p.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrNotFound, "proposal %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get proposal")
	}
	return &p, nil
}

func (s *PostgresStore) FindPendingProposal(ctx context.Context, carrier model.CarrierID, targetField string, newValue int64) (*model.RevisionProposal, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, carrier, plan_name, target_field, old_value, new_value, evidence_url, detected_at, status
		FROM revision_proposals
		WHERE carrier = $1 AND target_field = $2 AND new_value = $3 AND status = $4
		LIMIT 1`,
		string(carrier), targetField, newValue, string(model.ProposalPending),
	)

	var p model.RevisionProposal
	err := row.Scan(&p.ID, &p.Carrier, &p.PlanName, &p.TargetField, &p.OldValue, &p.NewValue, &p.EvidenceURL, &p.DetectedAt, &p.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find pending proposal")
	}
	return &p, nil
}

func (s *PostgresStore) UpdateProposalStatus(ctx context.Context, id string, from, to model.ProposalStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE revision_proposals SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), id, string(from),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update proposal %s", id)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetProposal(ctx, id); err != nil {
			return err
		}
		return eris.Wrapf(model.ErrInvalidState, "proposal %s is not %s", id, from)
	}
	return nil
}

func (s *PostgresStore) ListProposals(ctx context.Context, filter ProposalFilter) ([]model.RevisionProposal, error) {
	query := `SELECT id, carrier, plan_name, target_field, old_value, new_value, evidence_url, detected_at, status
		FROM revision_proposals WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $1`
	}
	if filter.Carrier != "" {
		args = append(args, string(filter.Carrier))
		query += ` AND carrier = $` + itoa(len(args))
	}
	query += ` ORDER BY detected_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list proposals")
	}
	defer rows.Close()

	var out []model.RevisionProposal
	for rows.Next() {
		var p model.RevisionProposal
		if err := rows.Scan(&p.ID, &p.Carrier, &p.PlanName, &p.TargetField, &p.OldValue, &p.NewValue, &p.EvidenceURL, &p.DetectedAt, &p.Status); err != nil {
			return nil, eris.Wrap(err, "postgres: scan proposal")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate proposals")
}

// --- Contract lines ---

func (s *PostgresStore) CreateLine(ctx context.Context, line model.ContractLine) (*model.ContractLine, error) {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	if line.CBStatus == "" {
		line.CBStatus = model.CBPending
	}
	now := time.Now().UTC()
	line.CreatedAt = now
	line.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO contract_lines (id, phone_number, carrier, plan_name, contract_date, admin_fee, device_cost, running_cost, cashback_amount, cb_status, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		line.ID, line.PhoneNumber, string(line.Carrier), line.PlanName, line.ContractDate,
		line.AdminFee, line.DeviceCost, line.RunningCost, line.CashbackAmount,
		string(line.CBStatus), line.Archived, line.CreatedAt, line.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create line")
	}
	return &line, nil
}

func (s *PostgresStore) GetLine(ctx context.Context, id string) (*model.ContractLine, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, phone_number, carrier, plan_name, contract_date, admin_fee, device_cost, running_cost, cashback_amount, cb_status, archived, created_at, updated_at
		FROM contract_lines WHERE id = $1`, id,
	)

	var l model.ContractLine
	err := row.Scan(&l.ID, &l.PhoneNumber, &l.Carrier, &l.PlanName, &l.ContractDate,
		&l.AdminFee, &l.DeviceCost, &l.RunningCost, &l.CashbackAmount, &l.CBStatus,
		&l.Archived, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrNotFound, "line %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get line")
	}
	return &l, nil
}

func (s *PostgresStore) UpdateLine(ctx context.Context, line model.ContractLine) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE contract_lines
		SET phone_number = $1, carrier = $2, plan_name = $3, contract_date = $4, admin_fee = $5, device_cost = $6, running_cost = $7, cashback_amount = $8, cb_status = $9, updated_at = $10
		WHERE id = $11`,
		line.PhoneNumber, string(line.Carrier), line.PlanName, line.ContractDate,
		line.AdminFee, line.DeviceCost, line.RunningCost, line.CashbackAmount,
		string(line.CBStatus), time.Now().UTC(), line.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update line %s", line.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(model.ErrNotFound, "line %s", line.ID)
	}
	return nil
}

func (s *PostgresStore) ArchiveLine(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE contract_lines SET archived = true, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: archive line %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(model.ErrNotFound, "line %s", id)
	}
	return nil
}

func (s *PostgresStore) ListLines(ctx context.Context, includeArchived bool) ([]model.ContractLine, error) {
	query := `SELECT id, phone_number, carrier, plan_name, contract_date, admin_fee, device_cost, running_cost, cashback_amount, cb_status, archived, created_at, updated_at
		FROM contract_lines`
	if !includeArchived {
		query += ` WHERE archived = false`
	}
	query += ` ORDER BY contract_date`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list lines")
	}
	defer rows.Close()

	var lines []model.ContractLine
	for rows.Next() {
		var l model.ContractLine
		if err := rows.Scan(&l.ID, &l.PhoneNumber, &l.Carrier, &l.PlanName, &l.ContractDate,
			&l.AdminFee, &l.DeviceCost, &l.RunningCost, &l.CashbackAmount, &l.CBStatus,
			&l.Archived, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan line")
		}
		lines = append(lines, l)
	}
	return lines, eris.Wrap(rows.Err(), "postgres: iterate lines")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
