package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusPending       Status = "PENDING"
	StatusProcessing    Status = "PROCESSING"
	StatusPaid          Status = "PAID"
	StatusPaymentFailed Status = "PAYMENT_FAILED"
	StatusShipped       Status = "SHIPPED"
	StatusDelivered     Status = "DELIVERED"
	StatusCancelled     Status = "CANCELLED"
	StatusRefunded      Status = "REFUNDED"
)

// Order is a customer's checked-out cart with totals and address snapshots.
// Monetary fields are fixed at creation; totals are never recomputed.
type Order struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	OrderNumber string      `json:"order_number"`
	Status      Status      `json:"status"`
	Items       []*LineItem `json:"items,omitempty"`

	// Address snapshots are captured as immutable text at creation time so
	// later profile edits never alter a placed order.
	ShippingAddress string `json:"shipping_address"`
	BillingAddress  string `json:"billing_address"`

	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`

	Paid   bool       `json:"paid"`
	PaidAt *time.Time `json:"paid_at,omitempty"`

	CancelReason string     `json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LineItem is a single product line within an order.
type LineItem struct {
	ID         uuid.UUID         `json:"id"`
	OrderID    uuid.UUID         `json:"order_id"`
	ProductID  uuid.UUID         `json:"product_id"`
	VariantID  *uuid.UUID        `json:"variant_id,omitempty"`
	Quantity   int               `json:"quantity"`
	UnitPrice  decimal.Decimal   `json:"unit_price"`
	LineTotal  decimal.Decimal   `json:"line_total"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// CheckoutRequest converts the caller's cart into an order.
type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address"`
	BillingAddress  string `json:"billing_address,omitempty"`
	CouponCode      string `json:"coupon_code,omitempty"`
}

// UpdateStatusRequest advances an order to a new lifecycle status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// CancelRequest carries the reason an order was cancelled.
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}
