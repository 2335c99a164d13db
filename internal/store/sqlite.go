package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/mnp-lab/mnp-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS plan_facts (
	id         TEXT PRIMARY KEY,
	carrier    TEXT NOT NULL,
	plan_name  TEXT NOT NULL,
	base_fee   INTEGER NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (carrier, plan_name)
);

CREATE TABLE IF NOT EXISTS revision_proposals (
	id           TEXT PRIMARY KEY,
	carrier      TEXT NOT NULL,
	plan_name    TEXT NOT NULL,
	target_field TEXT NOT NULL,
	old_value    INTEGER NOT NULL,
	new_value    INTEGER NOT NULL,
	evidence_url TEXT NOT NULL DEFAULT '',
	detected_at  DATETIME NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending'
);

CREATE TABLE IF NOT EXISTS contract_lines (
	id              TEXT PRIMARY KEY,
	phone_number    TEXT NOT NULL DEFAULT '',
	carrier         TEXT NOT NULL,
	plan_name       TEXT NOT NULL DEFAULT '',
	contract_date   DATETIME NOT NULL,
	admin_fee       INTEGER NOT NULL DEFAULT 0,
	device_cost     INTEGER NOT NULL DEFAULT 0,
	running_cost    INTEGER NOT NULL DEFAULT 0,
	cashback_amount INTEGER NOT NULL DEFAULT 0,
	cb_status       TEXT NOT NULL DEFAULT 'pending',
	archived        INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_plan_facts_key ON plan_facts(carrier, plan_name);
CREATE INDEX IF NOT EXISTS idx_proposals_status ON revision_proposals(status);
CREATE INDEX IF NOT EXISTS idx_proposals_dedupe ON revision_proposals(carrier, target_field, new_value, status);
CREATE INDEX IF NOT EXISTS idx_lines_carrier ON contract_lines(carrier);
CREATE INDEX IF NOT EXISTS idx_lines_archived ON contract_lines(archived);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Plan facts ---

func (s *SQLiteStore) GetPlanFact(ctx context.Context, carrier model.CarrierID, planName string) (*model.PlanFact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, carrier, plan_name, base_fee, updated_at FROM plan_facts WHERE carrier = ? AND plan_name = ?`,
		string(carrier), planName,
	)

	var f model.PlanFact
	err := row.Scan(&f.ID, &f.Carrier, &f.PlanName, &f.BaseFee, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get plan fact")
	}
	return &f, nil
}

func (s *SQLiteStore) UpsertPlanFact(ctx context.Context, fact model.PlanFact) error {
	if fact.ID == "" {
		fact.ID = uuid.New().String()
	}
	if fact.UpdatedAt.IsZero() {
		fact.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plan_facts (id, carrier, plan_name, base_fee, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (carrier, plan_name)
		DO UPDATE SET base_fee = excluded.base_fee, updated_at = excluded.updated_at`,
		fact.ID, string(fact.Carrier), fact.PlanName, fact.BaseFee, fact.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: upsert plan fact")
}

func (s *SQLiteStore) ListPlanFacts(ctx context.Context) ([]model.PlanFact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, carrier, plan_name, base_fee, updated_at FROM plan_facts ORDER BY carrier, plan_name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list plan facts")
	}
	defer rows.Close()

	var facts []model.PlanFact
	for rows.Next() {
		var f model.PlanFact
		if err := rows.Scan(&f.ID, &f.Carrier, &f.PlanName, &f.BaseFee, &f.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan plan fact")
		}
		facts = append(facts, f)
	}
	return facts, eris.Wrap(rows.Err(), "sqlite: iterate plan facts")
}

// --- Revision proposals ---

func (s *SQLiteStore) CreateProposal(ctx context.Context, p model.RevisionProposal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revision_proposals (id, carrier, plan_name, target_field, old_value, new_value, evidence_url, detected_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.Carrier), p.PlanName, p.TargetField, p.OldValue, p.NewValue, p.EvidenceURL, p.DetectedAt, string(p.Status),
	)
	return eris.Wrap(err, "sqlite: create proposal")
}

func (s *SQLiteStore) GetProposal(ctx context.Context, id string) (*model.RevisionProposal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, carrier, plan_name, target_field, old_value, new_value, evidence_url, detected_at, status
		 FROM revision_proposals WHERE id = ?`, id,
	)
	p, err := scanProposal(row)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(model.ErrNotFound, "proposal %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get proposal")
	}
	return p, nil
}

func (s *SQLiteStore) FindPendingProposal(ctx context.Context, carrier model.CarrierID, targetField string, newValue int64) (*model.RevisionProposal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, carrier, plan_name, target_field, old_value, new_value, evidence_url, detected_at, status
		FROM revision_proposals
		WHERE carrier = ? AND target_field = ? AND new_value = ? AND status = ?
		LIMIT 1`,
		string(carrier), targetField, newValue, string(model.ProposalPending),
	)
	p, err := scanProposal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find pending proposal")
	}
	return p, nil
}

func (s *SQLiteStore) UpdateProposalStatus(ctx context.Context, id string, from, to model.ProposalStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE revision_proposals SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update proposal %s", id)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		// Distinguish missing from stale.
		if _, err := s.GetProposal(ctx, id); err != nil {
			return err
		}
		return eris.Wrapf(model.ErrInvalidState, "proposal %s is not %s", id, from)
	}
	return nil
}

func (s *SQLiteStore) ListProposals(ctx context.Context, filter ProposalFilter) ([]model.RevisionProposal, error) {
	query := `SELECT id, carrier, plan_name, target_field, old_value, new_value, evidence_url, detected_at, status
		FROM revision_proposals WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Carrier != "" {
		query += ` AND carrier = ?`
		args = append(args, string(filter.Carrier))
	}
	query += ` ORDER BY detected_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list proposals")
	}
	defer rows.Close()

	var out []model.RevisionProposal
	for rows.Next() {
		var p model.RevisionProposal
		if err := rows.Scan(&p.ID, &p.Carrier, &p.PlanName, &p.TargetField, &p.OldValue, &p.NewValue, &p.EvidenceURL, &p.DetectedAt, &p.Status); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan proposal")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate proposals")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProposal(row rowScanner) (*model.RevisionProposal, error) {
	var p model.RevisionProposal
	err := row.Scan(&p.ID, &p.Carrier, &p.PlanName, &p.TargetField, &p.OldValue, &p.NewValue, &p.EvidenceURL, &p.DetectedAt, &p.Status)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// --- Contract lines ---

func (s *SQLiteStore) CreateLine(ctx context.Context, line model.ContractLine) (*model.ContractLine, error) {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	if line.CBStatus == "" {
		line.CBStatus = model.CBPending
	}
	now := time.Now().UTC()
	line.CreatedAt = now
	line.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contract_lines (id, phone_number, carrier, plan_name, contract_date, admin_fee, device_cost, running_cost, cashback_amount, cb_status, archived, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		line.ID, line.PhoneNumber, string(line.Carrier), line.PlanName, line.ContractDate,
		line.AdminFee, line.DeviceCost, line.RunningCost, line.CashbackAmount,
		string(line.CBStatus), boolToInt(line.Archived), line.CreatedAt, line.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: create line")
	}
	return &line, nil
}

func (s *SQLiteStore) GetLine(ctx context.Context, id string) (*model.ContractLine, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, phone_number, carrier, plan_name, contract_date, admin_fee, device_cost, running_cost, cashback_amount, cb_status, archived, created_at, updated_at
		FROM contract_lines WHERE id = ?`, id,
	)

	var l model.ContractLine
	var archived int
	err := row.Scan(&l.ID, &l.PhoneNumber, &l.Carrier, &l.PlanName, &l.ContractDate,
		&l.AdminFee, &l.DeviceCost, &l.RunningCost, &l.CashbackAmount, &l.CBStatus,
		&archived, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(model.ErrNotFound, "line %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get line")
	}
	l.Archived = archived != 0
	return &l, nil
}

func (s *SQLiteStore) UpdateLine(ctx context.Context, line model.ContractLine) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE contract_lines
		SET phone_number = ?, carrier = ?, plan_name = ?, contract_date = ?, admin_fee = ?, device_cost = ?, running_cost = ?, cashback_amount = ?, cb_status = ?, updated_at = ?
		WHERE id = ?`,
		line.PhoneNumber, string(line.Carrier), line.PlanName, line.ContractDate,
		line.AdminFee, line.DeviceCost, line.RunningCost, line.CashbackAmount,
		string(line.CBStatus), time.Now().UTC(), line.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update line %s", line.ID)
	}
	return checkRowsAffected(res, "line", line.ID)
}

func (s *SQLiteStore) ArchiveLine(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contract_lines SET archived = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: archive line %s", id)
	}
	return checkRowsAffected(res, "line", id)
}

func (s *SQLiteStore) ListLines(ctx context.Context, includeArchived bool) ([]model.ContractLine, error) {
	query := `SELECT id, phone_number, carrier, plan_name, contract_date, admin_fee, device_cost, running_cost, cashback_amount, cb_status, archived, created_at, updated_at
		FROM contract_lines`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY contract_date`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list lines")
	}
	defer rows.Close()

	var lines []model.ContractLine
	for rows.Next() {
		var l model.ContractLine
		var archived int
		if err := rows.Scan(&l.ID, &l.PhoneNumber, &l.Carrier, &l.PlanName, &l.ContractDate,
			&l.AdminFee, &l.DeviceCost, &l.RunningCost, &l.CashbackAmount, &l.CBStatus,
			&archived, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan line")
		}
		l.Archived = archived != 0
		lines = append(lines, l)
	}
	return lines, eris.Wrap(rows.Err(), "sqlite: iterate lines")
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(model.ErrNotFound, "%s %s", kind, id)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
