package coupon

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType distinguishes percentage coupons from fixed-amount coupons.
type DiscountType string

const (
	DiscountPercent DiscountType = "PERCENT"
	DiscountFixed   DiscountType = "FIXED"
)

// Coupon is a redeemable discount code.
type Coupon struct {
	ID         uuid.UUID       `json:"id"`
	Code       string          `json:"code"`
	Type       DiscountType    `json:"type"`
	Value      decimal.Decimal `json:"value"` // percent (0-100) or fixed amount
	MinSpend   decimal.Decimal `json:"min_spend"`
	UsageLimit int             `json:"usage_limit"` // 0 = unlimited
	UsedCount  int             `json:"used_count"`
	IsActive   bool            `json:"is_active"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CreateCouponRequest is the payload for creating a coupon.
type CreateCouponRequest struct {
	Code       string          `json:"code"`
	Type       string          `json:"type"` // PERCENT | FIXED
	Value      decimal.Decimal `json:"value"`
	MinSpend   decimal.Decimal `json:"min_spend,omitempty"`
	UsageLimit int             `json:"usage_limit,omitempty"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
}
