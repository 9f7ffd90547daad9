package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ProductSnapshot is what checkout needs to know about a product at order time.
type ProductSnapshot struct {
	Price    decimal.Decimal
	Currency string
	Stock    int
	IsActive bool
}

// Repository defines data access for orders.
type Repository interface {
	// CreateOrder inserts the order with its items and decrements product
	// stock inside one transaction; fails if any product lacks stock.
	CreateOrder(ctx context.Context, o *Order) error
	GetOrderByID(ctx context.Context, id string) (*Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	SetPaid(ctx context.Context, id string, paid bool, paidAt *time.Time, status Status) error
	SetCancelled(ctx context.Context, id string, reason string, at time.Time) error
	GetProductSnapshot(ctx context.Context, productID string) (*ProductSnapshot, error)
}
