package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vericlause/vericlause-ai/internal/domain/analysis"
)

// RecordRepository persists analysis records in MySQL. Mirrors the
// postgres repository with driver-appropriate SQL.
type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

var _ analysis.Repository = (*RecordRepository)(nil)

func (r *RecordRepository) Save(ctx context.Context, rec *analysis.Record) error {
	const q = `
INSERT INTO analyses
  (id, owner_id, owner_email, contract_text, result_json, contract_purpose, overall_risk_level, risk_score, created_at, deleted_at)
VALUES (?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  contract_text=VALUES(contract_text),
  result_json=VALUES(result_json),
  contract_purpose=VALUES(contract_purpose),
  overall_risk_level=VALUES(overall_risk_level),
  risk_score=VALUES(risk_score);
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

func (r *RecordRepository) Get(ctx context.Context, owner string, id analysis.RecordID) (*analysis.Record, error) {
	q := `SELECT ` + recordColumns + ` FROM analyses WHERE owner_id=? AND id=?;`
	return scanRecord(r.db.QueryRowContext(ctx, q, owner, id))
}

func (r *RecordRepository) List(ctx context.Context, owner string, deleted bool) ([]*analysis.Record, error) {
	cond := "deleted_at IS NULL"
	if deleted {
		cond = "deleted_at IS NOT NULL"
	}
	q := `SELECT ` + recordColumns + ` FROM analyses WHERE owner_id=? AND ` + cond + ` ORDER BY created_at DESC, id DESC;`

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

func (r *RecordRepository) SoftDelete(ctx context.Context, owner string, id analysis.RecordID, at time.Time) error {
	const q = `UPDATE analyses SET deleted_at=? WHERE owner_id=? AND id=? AND deleted_at IS NULL;`
	res, err := r.db.ExecContext(ctx, q, at, owner, id)
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

func (r *RecordRepository) Restore(ctx context.Context, owner string, id analysis.RecordID) error {
	const q = `UPDATE analyses SET deleted_at=NULL WHERE owner_id=? AND id=?;`
	_, err := r.db.ExecContext(ctx, q, owner, id)
	return err
}

func (r *RecordRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM analyses WHERE deleted_at IS NOT NULL AND deleted_at < ?;`
	res, err := r.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

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
