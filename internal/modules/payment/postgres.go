package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectSQL = `
	SELECT id, order_id, provider, status, amount, currency, refunded_amount,
	       transaction_id, intent_id, details, error_message, created_at, updated_at
	FROM payments`

func (r *postgresRepo) Create(ctx context.Context, p *Payment) error {
	details, err := json.Marshal(p.Details)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO payments
		  (id, order_id, provider, status, amount, currency, refunded_amount,
		   transaction_id, intent_id, details, error_message)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.OrderID, p.Provider, p.Status, p.Amount, p.Currency, p.RefundedAmount,
		nilIfEmpty(p.TransactionID), nilIfEmpty(p.IntentID),
		nullableJSON(details), nilIfEmpty(p.ErrorMessage))
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Payment, error) {
	p, err := r.scan(r.db.QueryRowContext(ctx, selectSQL+` WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *postgresRepo) GetByIntentID(ctx context.Context, provider Provider, intentID string) (*Payment, error) {
	p, err := r.scan(r.db.QueryRowContext(ctx,
		selectSQL+` WHERE provider=$1 AND intent_id=$2`, provider, intentID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *postgresRepo) ListByOrder(ctx context.Context, orderID string) ([]*Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		selectSQL+` WHERE order_id=$1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []*Payment{}
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *postgresRepo) UpdateResult(ctx context.Context, id string, res Result) error {
	details, err := json.Marshal(res.Details)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE payments
		SET status=$1,
		    transaction_id=COALESCE(NULLIF($2,''), transaction_id),
		    intent_id=COALESCE(NULLIF($3,''), intent_id),
		    details=COALESCE($4, details),
		    error_message=NULLIF($5,''),
		    updated_at=$6
		WHERE id=$7`,
		res.Status, res.TransactionID, res.IntentID,
		nullableJSON(details), res.ErrorMessage, time.Now(), id)
	return err
}

func (r *postgresRepo) TransitionStatus(ctx context.Context, id string, from []Status, to Status, transactionID, errorMessage string, details map[string]interface{}) (bool, error) {
	b, err := json.Marshal(details)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status=$1,
		    transaction_id=COALESCE(NULLIF($2,''), transaction_id),
		    error_message=NULLIF($3,''),
		    details=COALESCE($4, details),
		    updated_at=$5
		WHERE id=$6 AND status = ANY($7)`,
		to, transactionID, errorMessage, nullableJSON(b), time.Now(), id, pq.Array(statusStrings(from)))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *postgresRepo) RecordRefund(ctx context.Context, id string, from []Status, to Status, refunded decimal.Decimal, details map[string]interface{}) (bool, error) {
	b, err := json.Marshal(details)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status=$1, refunded_amount=$2, details=COALESCE($3, details), updated_at=$4
		WHERE id=$5 AND status = ANY($6)`,
		to, refunded, nullableJSON(b), time.Now(), id, pq.Array(statusStrings(from)))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ── helpers ──────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scan(row rowScanner) (*Payment, error) {
	p := &Payment{}
	var transactionID, intentID, errorMessage sql.NullString
	var details []byte

	err := row.Scan(
		&p.ID, &p.OrderID, &p.Provider, &p.Status, &p.Amount, &p.Currency, &p.RefundedAmount,
		&transactionID, &intentID, &details, &errorMessage, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if transactionID.Valid {
		p.TransactionID = transactionID.String
	}
	if intentID.Valid {
		p.IntentID = intentID.String
	}
	if errorMessage.Valid {
		p.ErrorMessage = errorMessage.String
	}
	if len(details) > 0 {
		_ = json.Unmarshal(details, &p.Details)
	}
	return p, nil
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	return b
}
