package model

import (
	"time"

	"telegram-credential-broker/internal/domain"
)

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// CouponUse records one redemption for auditing.
type CouponUse struct {
	UserID string    `json:"user_id"`
	UsedAt time.Time `json:"used_at"`
}

// Coupon is an admin-created discount code.
//
// Invariant: Uses never exceeds MaxUses. Uses is incremented when a payment
// carrying the code is approved, not when it is created, so rejected
// payments do not burn redemptions.
type Coupon struct {
	Code            string       `json:"code"`
	Type            DiscountType `json:"type"`
	Value           int64        `json:"value"` // percent (1-100) or cents
	ExpiresAt       time.Time    `json:"expires_at"`
	MaxUses         int          `json:"max_uses"`
	Uses            int          `json:"uses"`
	MinPurchase     int64        `json:"min_purchase"` // cents; 0 = no minimum
	ApplicablePlans []string     `json:"applicable_plans,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UsedBy          []CouponUse  `json:"used_by,omitempty"`
}

func NewCoupon(code string, typ DiscountType, value int64, expiresAt time.Time, maxUses int, minPurchase int64, plans []string) (*Coupon, error) {
	if code == "" || maxUses <= 0 || value <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	switch typ {
	case DiscountPercent:
		if value > 100 {
			return nil, domain.ErrInvalidArgument
		}
	case DiscountFixed:
	default:
		return nil, domain.ErrInvalidArgument
	}
	return &Coupon{
		Code:            code,
		Type:            typ,
		Value:           value,
		ExpiresAt:       expiresAt,
		MaxUses:         maxUses,
		MinPurchase:     minPurchase,
		ApplicablePlans: plans,
		CreatedAt:       time.Now(),
	}, nil
}

// Check validates the coupon against a plan and amount without consuming a
// redemption.
func (c *Coupon) Check(now time.Time, planID string, amount int64) error {
	if !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt) {
		return domain.ErrCouponExpired
	}
	if c.Uses >= c.MaxUses {
		return domain.ErrCouponLimitReached
	}
	if c.MinPurchase > 0 && amount < c.MinPurchase {
		return domain.ErrBelowMinPurchase
	}
	if len(c.ApplicablePlans) > 0 && !contains(c.ApplicablePlans, planID) {
		return domain.ErrInvalidCoupon
	}
	return nil
}

// Discount returns the amount after applying the coupon. Fixed discounts are
// capped so the result never goes below zero.
func (c *Coupon) Discount(amount int64) int64 {
	switch c.Type {
	case DiscountPercent:
		return amount - amount*c.Value/100
	case DiscountFixed:
		if c.Value >= amount {
			return 0
		}
		return amount - c.Value
	}
	return amount
}

// Redeem consumes one use; it fails rather than ever exceeding the limit.
func (c *Coupon) Redeem(userID string, now time.Time) error {
	if c.Uses >= c.MaxUses {
		return domain.ErrCouponLimitReached
	}
	c.Uses++
	c.UsedBy = append(c.UsedBy, CouponUse{UserID: userID, UsedAt: now})
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
