package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bupechanda/shopline-backend/internal/modules/cart"
)

// ErrNotFound is returned when an order id cannot be resolved.
var ErrNotFound = errors.New("order not found")

// CartReader is the slice of the cart module checkout depends on.
type CartReader interface {
	GetCart(ctx context.Context, userID string) (*cart.Cart, error)
	Clear(ctx context.Context, userID string) error
}

// CouponRedeemer validates a coupon code and returns the discount it grants.
type CouponRedeemer interface {
	Redeem(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, error)
}

// Service defines the order management business logic.
type Service interface {
	// Checkout converts the user's cart into an order, decrementing stock and
	// clearing the cart on success.
	Checkout(ctx context.Context, userID string, req CheckoutRequest) (*Order, error)

	// FindOne retrieves a full order with its items. Returns ErrNotFound when
	// the id does not resolve.
	FindOne(ctx context.Context, id string) (*Order, error)

	// ListUserOrders returns all orders placed by a user, newest first.
	ListUserOrders(ctx context.Context, userID string) ([]*Order, error)

	// UpdatePaymentStatus marks the order PAID (with a payment timestamp) or
	// PAYMENT_FAILED. Marking an already-paid order paid again is a no-op.
	UpdatePaymentStatus(ctx context.Context, id string, isPaid bool) (*Order, error)

	// UpdateOrderStatus accepts a canonical status or a webhook-vocabulary
	// alias; unrecognised tokens default to PROCESSING.
	UpdateOrderStatus(ctx context.Context, id string, statusToken string) (*Order, error)

	// UpdateStatus advances the order along the fulfilment state machine.
	UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Order, error)

	// Cancel cancels a not-yet-paid order with an optional reason.
	Cancel(ctx context.Context, id string, reason string) error
}

type service struct {
	repo    Repository
	carts   CartReader
	coupons CouponRedeemer
}

// NewService creates a new order service.
func NewService(repo Repository, carts CartReader, coupons CouponRedeemer) Service {
	return &service{repo: repo, carts: carts, coupons: coupons}
}

var (
	taxRate          = decimal.RequireFromString("0.15")
	flatShippingFee  = decimal.RequireFromString("10.00")
	freeShippingOver = decimal.RequireFromString("100.00")
)

// validTransitions defines the allowed status state machine. The happy path
// is PENDING → PROCESSING → PAID → SHIPPED → DELIVERED; CANCELLED,
// PAYMENT_FAILED and REFUNDED branch off it.
var validTransitions = map[Status][]Status{
	StatusPending:       {StatusProcessing, StatusPaid, StatusPaymentFailed, StatusCancelled},
	StatusProcessing:    {StatusPaid, StatusPaymentFailed, StatusCancelled},
	StatusPaid:          {StatusShipped, StatusRefunded},
	StatusPaymentFailed: {StatusProcessing, StatusPaid, StatusCancelled},
	StatusShipped:       {StatusDelivered, StatusRefunded},
	StatusDelivered:     {StatusRefunded},
	StatusCancelled:     {},
	StatusRefunded:      {},
}

// statusAliases maps provider webhook vocabulary onto canonical statuses.
var statusAliases = map[string]Status{
	"PAID":      StatusPaid,
	"SUCCEEDED": StatusPaid,
	"COMPLETED": StatusPaid,
	"REFUNDED":  StatusRefunded,
	"FAILED":    StatusPaymentFailed,
	"CANCELLED": StatusCancelled,
}

func (s *service) Checkout(ctx context.Context, userID string, req CheckoutRequest) (*Order, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return nil, fmt.Errorf("shipping_address is required")
	}

	c, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}

	// ── Build line items from the cart, validating price and stock ────────────
	var items []*LineItem
	subtotal := decimal.Zero
	currency := ""

	for _, ci := range c.Items {
		if ci.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be > 0 for product %s", ci.ProductID)
		}
		snap, err := s.repo.GetProductSnapshot(ctx, ci.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s not found", ci.ProductID)
		}
		if !snap.IsActive {
			return nil, fmt.Errorf("product %s is no longer available", ci.ProductID)
		}
		if snap.Stock < ci.Quantity {
			return nil, fmt.Errorf("insufficient stock for product %s", ci.ProductID)
		}
		if currency == "" {
			currency = snap.Currency
		}

		pid, err := uuid.Parse(ci.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product id: %w", err)
		}

		lineTotal := snap.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		item := &LineItem{
			ID:         uuid.New(),
			ProductID:  pid,
			Quantity:   ci.Quantity,
			UnitPrice:  snap.Price,
			LineTotal:  lineTotal,
			Attributes: ci.Attributes,
		}
		if ci.VariantID != "" {
			vid, err := uuid.Parse(ci.VariantID)
			if err != nil {
				return nil, fmt.Errorf("invalid variant id: %w", err)
			}
			item.VariantID = &vid
		}
		items = append(items, item)
	}

	// ── Totals: total = subtotal + tax + shipping − discount ──────────────────
	discount := decimal.Zero
	if req.CouponCode != "" {
		discount, err = s.coupons.Redeem(ctx, req.CouponCode, subtotal)
		if err != nil {
			return nil, err
		}
	}

	taxable := subtotal.Sub(discount)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	tax := taxable.Mul(taxRate).Round(2)

	shipping := flatShippingFee
	if subtotal.GreaterThanOrEqual(freeShippingOver) {
		shipping = decimal.Zero
	}

	total := subtotal.Add(tax).Add(shipping).Sub(discount)

	billing := req.BillingAddress
	if billing == "" {
		billing = req.ShippingAddress
	}

	o := &Order{
		ID:              uuid.New(),
		UserID:          uid,
		OrderNumber:     generateOrderNumber(),
		Status:          StatusPending,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  billing,
		Subtotal:        subtotal,
		Tax:             tax,
		Shipping:        shipping,
		Discount:        discount,
		Total:           total,
		Currency:        currency,
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		// The order exists; a stale cart is recoverable.
		slog.Warn("failed to clear cart after checkout", "user_id", userID, "error", err)
	}
	return o, nil
}

func (s *service) FindOne(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

func (s *service) ListUserOrders(ctx context.Context, userID string) ([]*Order, error) {
	return s.repo.ListOrdersByUser(ctx, userID)
}

func (s *service) UpdatePaymentStatus(ctx context.Context, id string, isPaid bool) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if isPaid {
		if o.Paid && o.Status == StatusPaid {
			return o, nil // already paid, duplicate confirmation
		}
		now := time.Now()
		if err := s.repo.SetPaid(ctx, id, true, &now, StatusPaid); err != nil {
			return nil, err
		}
		o.Paid = true
		o.PaidAt = &now
		o.Status = StatusPaid
		return o, nil
	}

	if err := s.repo.SetPaid(ctx, id, false, nil, StatusPaymentFailed); err != nil {
		return nil, err
	}
	o.Paid = false
	o.PaidAt = nil
	o.Status = StatusPaymentFailed
	return o, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, id string, statusToken string) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newStatus := resolveStatusToken(statusToken)
	if o.Status == newStatus {
		return o, nil
	}

	if err := s.repo.UpdateStatus(ctx, id, newStatus); err != nil {
		return nil, err
	}
	o.Status = newStatus
	return o, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newStatus := Status(strings.ToUpper(req.Status))
	if !transitionAllowed(o.Status, newStatus) {
		return nil, fmt.Errorf("cannot transition order from %s to %s", o.Status, newStatus)
	}

	if err := s.repo.UpdateStatus(ctx, id, newStatus); err != nil {
		return nil, err
	}
	o.Status = newStatus
	return o, nil
}

func (s *service) Cancel(ctx context.Context, id string, reason string) error {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return err
	}
	if o.Status != StatusPending && o.Status != StatusProcessing && o.Status != StatusPaymentFailed {
		return fmt.Errorf("only unpaid orders can be cancelled (current: %s)", o.Status)
	}
	return s.repo.SetCancelled(ctx, id, reason, time.Now())
}

// ── helpers ───────────────────────────────────────────────────────────────────

func transitionAllowed(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// resolveStatusToken maps a canonical status or webhook alias to a Status;
// anything unrecognised defaults to PROCESSING.
func resolveStatusToken(token string) Status {
	upper := strings.ToUpper(strings.TrimSpace(token))
	if _, ok := validTransitions[Status(upper)]; ok {
		return Status(upper)
	}
	if alias, ok := statusAliases[upper]; ok {
		return alias
	}
	return StatusProcessing
}

// generateOrderNumber creates a human-readable order number: ORD-YYYYMMDD-XXXX
func generateOrderNumber() string {
	date := time.Now().UTC().Format("20060102")
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("ORD-%s-%s", date, suffix)
}
