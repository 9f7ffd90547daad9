package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectSQL = `
	SELECT id, user_id, order_number, status, shipping_address, billing_address,
	       subtotal, tax, shipping, discount, total, currency,
	       paid, paid_at, cancel_reason, cancelled_at, created_at, updated_at
	FROM orders`

// CreateOrder inserts the order and its items and decrements product stock,
// all inside a single transaction.
func (r *postgresRepo) CreateOrder(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
		  (id, user_id, order_number, status, shipping_address, billing_address,
		   subtotal, tax, shipping, discount, total, currency, paid)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		o.ID, o.UserID, o.OrderNumber, o.Status, o.ShippingAddress, o.BillingAddress,
		o.Subtotal, o.Tax, o.Shipping, o.Discount, o.Total, o.Currency, o.Paid)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		attrs, err := json.Marshal(item.Attributes)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, variant_id, quantity, unit_price, line_total, attributes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			item.ID, o.ID, item.ProductID, item.VariantID,
			item.Quantity, item.UnitPrice, item.LineTotal, nullableJSON(attrs))
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $1, updated_at = $2
			WHERE id = $3 AND stock >= $1`,
			item.Quantity, time.Now(), item.ProductID)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("insufficient stock for product %s", item.ProductID)
		}
	}

	return tx.Commit()
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	o, err := r.scanOrder(r.db.QueryRowContext(ctx, selectSQL+` WHERE id=$1`, uid))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	o.Items, err = r.listItems(ctx, o.ID)
	return o, err
}

func (r *postgresRepo) ListOrdersByUser(ctx context.Context, userID string) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, selectSQL+` WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3`,
		status, time.Now(), id)
	return err
}

func (r *postgresRepo) SetPaid(ctx context.Context, id string, paid bool, paidAt *time.Time, status Status) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET paid=$1, paid_at=$2, status=$3, updated_at=$4 WHERE id=$5`,
		paid, paidAt, status, time.Now(), id)
	return err
}

func (r *postgresRepo) SetCancelled(ctx context.Context, id string, reason string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status=$1, cancel_reason=NULLIF($2,''), cancelled_at=$3, updated_at=$4 WHERE id=$5`,
		StatusCancelled, reason, at, time.Now(), id)
	return err
}

func (r *postgresRepo) GetProductSnapshot(ctx context.Context, productID string) (*ProductSnapshot, error) {
	snap := &ProductSnapshot{}
	err := r.db.QueryRowContext(ctx,
		`SELECT price, currency, stock, is_active FROM products WHERE id=$1`,
		productID).Scan(&snap.Price, &snap.Currency, &snap.Stock, &snap.IsActive)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanOrder(row rowScanner) (*Order, error) {
	o := &Order{}
	var paidAt, cancelledAt sql.NullTime
	var cancelReason sql.NullString
	err := row.Scan(
		&o.ID, &o.UserID, &o.OrderNumber, &o.Status, &o.ShippingAddress, &o.BillingAddress,
		&o.Subtotal, &o.Tax, &o.Shipping, &o.Discount, &o.Total, &o.Currency,
		&o.Paid, &paidAt, &cancelReason, &cancelledAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	if cancelledAt.Valid {
		o.CancelledAt = &cancelledAt.Time
	}
	if cancelReason.Valid {
		o.CancelReason = cancelReason.String
	}
	return o, nil
}

func (r *postgresRepo) listItems(ctx context.Context, orderID uuid.UUID) ([]*LineItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, variant_id, quantity, unit_price, line_total, attributes, created_at
		FROM order_items WHERE order_id=$1 ORDER BY created_at ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*LineItem
	for rows.Next() {
		item := &LineItem{}
		var variantID sql.NullString
		var attrs []byte
		var unitPrice, lineTotal decimal.Decimal
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &variantID,
			&item.Quantity, &unitPrice, &lineTotal, &attrs, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.UnitPrice = unitPrice
		item.LineTotal = lineTotal
		if variantID.Valid {
			vid, err := uuid.Parse(variantID.String)
			if err == nil {
				item.VariantID = &vid
			}
		}
		if len(attrs) > 0 {
			_ = json.Unmarshal(attrs, &item.Attributes)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	return b
}
