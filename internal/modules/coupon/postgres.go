package coupon

import (
	"context"
	"database/sql"
	"time"
)

// Repository defines data access for coupons.
type Repository interface {
	Create(ctx context.Context, c *Coupon) error
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	List(ctx context.Context) ([]*Coupon, error)
	Deactivate(ctx context.Context, code string) error
	// IncrementUsage bumps used_count only while the coupon is still
	// redeemable; returns false when the usage limit was already reached.
	IncrementUsage(ctx context.Context, code string) (bool, error)
}

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectSQL = `
	SELECT id, code, type, value, min_spend, usage_limit, used_count, is_active, expires_at, created_at, updated_at
	FROM coupons`

func (r *postgresRepo) Create(ctx context.Context, c *Coupon) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO coupons (id, code, type, value, min_spend, usage_limit, is_active, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.Code, c.Type, c.Value, c.MinSpend, c.UsageLimit, c.IsActive, c.ExpiresAt)
	return err
}

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	return r.scan(r.db.QueryRowContext(ctx, selectSQL+` WHERE code=$1`, code))
}

func (r *postgresRepo) List(ctx context.Context) ([]*Coupon, error) {
	rows, err := r.db.QueryContext(ctx, selectSQL+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coupons := []*Coupon{}
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func (r *postgresRepo) Deactivate(ctx context.Context, code string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE coupons SET is_active=false, updated_at=$1 WHERE code=$2`, time.Now(), code)
	return err
}

func (r *postgresRepo) IncrementUsage(ctx context.Context, code string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coupons SET used_count = used_count + 1, updated_at=$1
		WHERE code=$2 AND is_active=true AND (usage_limit = 0 OR used_count < usage_limit)`,
		time.Now(), code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scan(row rowScanner) (*Coupon, error) {
	c := &Coupon{}
	var expiresAt sql.NullTime
	err := row.Scan(&c.ID, &c.Code, &c.Type, &c.Value, &c.MinSpend,
		&c.UsageLimit, &c.UsedCount, &c.IsActive, &expiresAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		c.ExpiresAt = &expiresAt.Time
	}
	return c, nil
}
