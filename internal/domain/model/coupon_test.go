//go:build !integration

package model_test

import (
	"errors"
	"testing"
	"time"

	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/domain/model"
)

func TestCouponCheck(t *testing.T) {
	now := time.Now()
	mk := func(t *testing.T) *model.Coupon {
		c, err := model.NewCoupon("SAVE10", model.DiscountPercent, 10, now.Add(time.Hour), 2, 500, nil)
		if err != nil {
			t.Fatalf("new coupon: %v", err)
		}
		return c
	}

	t.Run("valid coupon passes", func(t *testing.T) {
		if err := mk(t).Check(now, "plan-1", 1000); err != nil {
			t.Errorf("check: %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		c := mk(t)
		c.ExpiresAt = now.Add(-time.Minute)
		if err := c.Check(now, "plan-1", 1000); !errors.Is(err, domain.ErrCouponExpired) {
			t.Errorf("check: %v, want ErrCouponExpired", err)
		}
	})

	t.Run("at usage limit", func(t *testing.T) {
		c := mk(t)
		c.Uses = c.MaxUses
		if err := c.Check(now, "plan-1", 1000); !errors.Is(err, domain.ErrCouponLimitReached) {
			t.Errorf("check: %v, want ErrCouponLimitReached", err)
		}
	})

	t.Run("below minimum purchase", func(t *testing.T) {
		if err := mk(t).Check(now, "plan-1", 400); !errors.Is(err, domain.ErrBelowMinPurchase) {
			t.Errorf("check: %v, want ErrBelowMinPurchase", err)
		}
	})

	t.Run("wrong plan", func(t *testing.T) {
		c := mk(t)
		c.ApplicablePlans = []string{"plan-2"}
		if err := c.Check(now, "plan-1", 1000); !errors.Is(err, domain.ErrInvalidCoupon) {
			t.Errorf("check: %v, want ErrInvalidCoupon", err)
		}
	})
}

func TestCouponDiscount(t *testing.T) {
	percent, _ := model.NewCoupon("P25", model.DiscountPercent, 25, time.Time{}, 1, 0, nil)
	if got := percent.Discount(1000); got != 750 {
		t.Errorf("25%% of 1000 = %d, want 750", got)
	}

	fixed, _ := model.NewCoupon("F300", model.DiscountFixed, 300, time.Time{}, 1, 0, nil)
	if got := fixed.Discount(1000); got != 700 {
		t.Errorf("fixed 300 off 1000 = %d, want 700", got)
	}
	if got := fixed.Discount(200); got != 0 {
		t.Errorf("fixed 300 off 200 = %d, want 0 (never negative)", got)
	}
}

func TestCouponRedeem(t *testing.T) {
	c, _ := model.NewCoupon("ONCE", model.DiscountPercent, 10, time.Time{}, 1, 0, nil)
	now := time.Now()

	if err := c.Redeem("user-1", now); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if c.Uses != 1 || len(c.UsedBy) != 1 {
		t.Errorf("uses = %d, used_by = %d", c.Uses, len(c.UsedBy))
	}
	if err := c.Redeem("user-2", now); !errors.Is(err, domain.ErrCouponLimitReached) {
		t.Errorf("redeem past limit: %v, want ErrCouponLimitReached", err)
	}
	if c.Uses != 1 {
		t.Errorf("uses after failed redeem = %d, want 1", c.Uses)
	}
}

func TestNewCouponValidation(t *testing.T) {
	cases := []struct {
		name  string
		code  string
		typ   model.DiscountType
		value int64
		max   int
	}{
		{"empty code", "", model.DiscountPercent, 10, 1},
		{"zero max uses", "X", model.DiscountPercent, 10, 0},
		{"percent over 100", "X", model.DiscountPercent, 150, 1},
		{"unknown type", "X", model.DiscountType("weird"), 10, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := model.NewCoupon(tc.code, tc.typ, tc.value, time.Time{}, tc.max, 0, nil); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}
