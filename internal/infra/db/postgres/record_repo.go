package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vericlause/vericlause-ai/internal/domain/analysis"
)

// RecordRepository persists analysis records in PostgreSQL.
type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

var _ analysis.Repository = (*RecordRepository)(nil)

// Save inserts or updates an analysis record.
func (r *RecordRepository) Save(ctx context.Context, rec *analysis.Record) error {
	const q = `
INSERT INTO analyses
  (id, owner_id, owner_email, contract_text, result_json, contract_purpose, overall_risk_level, risk_score, created_at, deleted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  contract_text=EXCLUDED.contract_text,
  result_json=EXCLUDED.result_json,
  contract_purpose=EXCLUDED.contract_purpose,
  overall_risk_level=EXCLUDED.overall_risk_level,
  risk_score=EXCLUDED.risk_score;
`
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = r.db.ExecContext(ctx, q,
		rec.ID, rec.OwnerID, rec.OwnerEmail, rec.ContractText, resultJSON,
		rec.ContractPurpose, rec.OverallRiskLevel, rec.RiskScore, createdAt, rec.DeletedAt)
	return err
}

const recordColumns = `id, owner_id, owner_email, contract_text, result_json, contract_purpose, overall_risk_level, risk_score, created_at, deleted_at`

// Get returns one of the owner's records; sql.ErrNoRows when absent.
func (r *RecordRepository) Get(ctx context.Context, owner string, id analysis.RecordID) (*analysis.Record, error) {
	q := `SELECT ` + recordColumns + ` FROM analyses WHERE owner_id=$1 AND id=$2;`
	return scanRecord(r.db.QueryRowContext(ctx, q, owner, id))
}

// List returns the owner's records, active or trashed, newest first.
func (r *RecordRepository) List(ctx context.Context, owner string, deleted bool) ([]*analysis.Record, error) {
	cond := "deleted_at IS NULL"
	if deleted {
		cond = "deleted_at IS NOT NULL"
	}
	q := `SELECT ` + recordColumns + ` FROM analyses WHERE owner_id=$1 AND ` + cond + ` ORDER BY created_at DESC, id DESC;`

	rows, err := r.db.QueryContext(ctx, q, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*analysis.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SoftDelete stamps deleted_at on an active record. Already-deleted records
// keep their original timestamp; a miss surfaces as sql.ErrNoRows.
func (r *RecordRepository) SoftDelete(ctx context.Context, owner string, id analysis.RecordID, at time.Time) error {
	const q = `UPDATE analyses SET deleted_at=$3 WHERE owner_id=$1 AND id=$2 AND deleted_at IS NULL;`
	res, err := r.db.ExecContext(ctx, q, owner, id, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Restore clears deleted_at. A no-op when the record is not deleted.
func (r *RecordRepository) Restore(ctx context.Context, owner string, id analysis.RecordID) error {
	const q = `UPDATE analyses SET deleted_at=NULL WHERE owner_id=$1 AND id=$2;`
	_, err := r.db.ExecContext(ctx, q, owner, id)
	return err
}

// PurgeExpired permanently deletes records trashed before the cutoff,
// regardless of owner.
func (r *RecordRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM analyses WHERE deleted_at IS NOT NULL AND deleted_at < $1;`
	res, err := r.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AdminList returns the sanitized projection across all owners.
func (r *RecordRepository) AdminList(ctx context.Context) ([]*analysis.AdminRecord, error) {
	const q = `
SELECT id, owner_email, contract_purpose, overall_risk_level, risk_score, created_at, deleted_at
FROM analyses
ORDER BY created_at DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*analysis.AdminRecord
	for rows.Next() {
		var a analysis.AdminRecord
		var deleted sql.NullTime
		if err := rows.Scan(&a.ID, &a.UserEmail, &a.ContractPurpose, &a.OverallRiskLevel, &a.RiskScore, &a.CreatedAt, &deleted); err != nil {
			return nil, err
		}
		if deleted.Valid {
			t := deleted.Time
			a.DeletedAt = &t
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*analysis.Record, error) {
	var rec analysis.Record
	var resultJSON []byte
	var deleted sql.NullTime
	if err := row.Scan(&rec.ID, &rec.OwnerID, &rec.OwnerEmail, &rec.ContractText, &resultJSON,
		&rec.ContractPurpose, &rec.OverallRiskLevel, &rec.RiskScore, &rec.CreatedAt, &deleted); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resultJSON, &rec.Result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	if deleted.Valid {
		t := deleted.Time
		rec.DeletedAt = &t
	}
	return &rec, nil
}
