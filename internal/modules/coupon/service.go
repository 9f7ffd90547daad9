package coupon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service defines coupon business logic.
type Service interface {
	CreateCoupon(ctx context.Context, req CreateCouponRequest) (*Coupon, error)
	GetCoupon(ctx context.Context, code string) (*Coupon, error)
	ListCoupons(ctx context.Context) ([]*Coupon, error)
	DeactivateCoupon(ctx context.Context, code string) error

	// Redeem validates the code against the given subtotal, consumes one use,
	// and returns the discount amount to subtract from the order.
	Redeem(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, error)
}

type service struct {
	repo Repository
}

// NewService creates a new coupon service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

var oneHundred = decimal.NewFromInt(100)

func (s *service) CreateCoupon(ctx context.Context, req CreateCouponRequest) (*Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, fmt.Errorf("code is required")
	}

	dtype := DiscountType(strings.ToUpper(req.Type))
	switch dtype {
	case DiscountPercent:
		if req.Value.LessThanOrEqual(decimal.Zero) || req.Value.GreaterThan(oneHundred) {
			return nil, fmt.Errorf("percent value must be between 0 and 100")
		}
	case DiscountFixed:
		if req.Value.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("fixed value must be greater than 0")
		}
	default:
		return nil, fmt.Errorf("type must be PERCENT or FIXED")
	}

	c := &Coupon{
		ID:         uuid.New(),
		Code:       code,
		Type:       dtype,
		Value:      req.Value,
		MinSpend:   req.MinSpend,
		UsageLimit: req.UsageLimit,
		IsActive:   true,
		ExpiresAt:  req.ExpiresAt,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if strings.Contains(err.Error(), "unique") || strings.Contains(err.Error(), "duplicate") {
			return nil, fmt.Errorf("coupon code %s already exists", code)
		}
		return nil, err
	}
	return c, nil
}

func (s *service) GetCoupon(ctx context.Context, code string) (*Coupon, error) {
	c, err := s.repo.GetByCode(ctx, strings.ToUpper(code))
	if err != nil {
		return nil, fmt.Errorf("coupon not found: %w", err)
	}
	return c, nil
}

func (s *service) ListCoupons(ctx context.Context) ([]*Coupon, error) {
	return s.repo.List(ctx)
}

func (s *service) DeactivateCoupon(ctx context.Context, code string) error {
	return s.repo.Deactivate(ctx, strings.ToUpper(code))
}

func (s *service) Redeem(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	c, err := s.repo.GetByCode(ctx, strings.ToUpper(code))
	if err != nil {
		return decimal.Zero, fmt.Errorf("coupon not found: %w", err)
	}

	if !c.IsActive {
		return decimal.Zero, fmt.Errorf("coupon %s is no longer active", c.Code)
	}
	if c.ExpiresAt != nil && time.Now().After(*c.ExpiresAt) {
		return decimal.Zero, fmt.Errorf("coupon %s has expired", c.Code)
	}
	if subtotal.LessThan(c.MinSpend) {
		return decimal.Zero, fmt.Errorf("order subtotal is below the coupon minimum spend of %s", c.MinSpend)
	}

	ok, err := s.repo.IncrementUsage(ctx, c.Code)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, fmt.Errorf("coupon %s has reached its usage limit", c.Code)
	}

	return Discount(c, subtotal), nil
}

// Discount computes the discount a coupon grants against a subtotal,
// capped at the subtotal itself.
func Discount(c *Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.Type {
	case DiscountPercent:
		d = subtotal.Mul(c.Value).Div(oneHundred).Round(2)
	case DiscountFixed:
		d = c.Value
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	return d
}
