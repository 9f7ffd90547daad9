package catalog

import (
	"context"
	"database/sql"
	"time"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectSQL = `
	SELECT id, name, description, sku, price, currency, stock, is_active, attributes, created_at, updated_at
	FROM products`

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, sku, price, currency, stock, is_active, attributes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.Name, nilIfEmpty(p.Description), nilIfEmpty(p.SKU),
		p.Price, p.Currency, p.Stock, p.IsActive, nullableJSON(p.Attributes))
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	return r.scan(r.db.QueryRowContext(ctx, selectSQL+` WHERE id=$1`, id))
}

func (r *postgresRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id=$1 AND is_active=true)`, id).Scan(&exists)
	return exists, err
}

func (r *postgresRepo) List(ctx context.Context, activeOnly bool) ([]*Product, error) {
	query := selectSQL
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, p *Product) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name=$1, description=$2, price=$3, stock=$4, is_active=$5, attributes=$6, updated_at=$7
		WHERE id=$8`,
		p.Name, nilIfEmpty(p.Description), p.Price, p.Stock, p.IsActive,
		nullableJSON(p.Attributes), time.Now(), p.ID)
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE products SET is_active=false, updated_at=$1 WHERE id=$2`, time.Now(), id)
	return err
}

// ── helpers ──────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scan(row rowScanner) (*Product, error) {
	p := &Product{}
	var desc, sku sql.NullString
	var attrs []byte
	err := row.Scan(&p.ID, &p.Name, &desc, &sku, &p.Price, &p.Currency,
		&p.Stock, &p.IsActive, &attrs, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		p.Description = desc.String
	}
	if sku.Valid {
		p.SKU = sku.String
	}
	p.Attributes = attrs
	return p, nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
