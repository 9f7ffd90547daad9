package review

import (
	"context"
	"database/sql"
)

// Repository defines data access for product reviews.
type Repository interface {
	Create(ctx context.Context, rev *Review) error
	GetByID(ctx context.Context, id string) (*Review, error)
	ListByProduct(ctx context.Context, productID string) ([]*Review, error)
	Summarize(ctx context.Context, productID string) (*Summary, error)
	Delete(ctx context.Context, id, userID string) (bool, error)
}

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectSQL = `
	SELECT id, product_id, user_id, rating, title, body, created_at, updated_at
	FROM reviews`

func (r *postgresRepo) Create(ctx context.Context, rev *Review) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, product_id, user_id, rating, title, body)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		rev.ID, rev.ProductID, rev.UserID, rev.Rating,
		nilIfEmpty(rev.Title), nilIfEmpty(rev.Body))
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Review, error) {
	rev, err := r.scan(r.db.QueryRowContext(ctx, selectSQL+` WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return rev, err
}

func (r *postgresRepo) ListByProduct(ctx context.Context, productID string) ([]*Review, error) {
	rows, err := r.db.QueryContext(ctx,
		selectSQL+` WHERE product_id=$1 ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []*Review{}
	for rows.Next() {
		rev, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

func (r *postgresRepo) Summarize(ctx context.Context, productID string) (*Summary, error) {
	s := &Summary{}
	err := r.db.QueryRowContext(ctx, `
		SELECT $1::uuid, COUNT(*), COALESCE(ROUND(AVG(rating), 2), 0)
		FROM reviews WHERE product_id=$1`, productID).
		Scan(&s.ProductID, &s.ReviewCount, &s.AverageRating)
	return s, err
}

// Delete removes a review only when it belongs to the caller.
func (r *postgresRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reviews WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scan(row rowScanner) (*Review, error) {
	rev := &Review{}
	var title, body sql.NullString
	err := row.Scan(&rev.ID, &rev.ProductID, &rev.UserID, &rev.Rating,
		&title, &body, &rev.CreatedAt, &rev.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rev.Title = title.String
	rev.Body = body.String
	return rev, nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
