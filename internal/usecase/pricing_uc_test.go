//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/domain/model"
)

func TestPricingPreview(t *testing.T) {
	ctx := context.Background()

	t.Run("first purchase uses the first-buy price", func(t *testing.T) {
		d := newDeps(t)
		u := d.registerUser(t, 1)
		q, err := d.pricingUC.Preview(ctx, u, d.catalog["basic"], "")
		if err != nil {
			t.Fatalf("preview: %v", err)
		}
		if q.BaseAmount != 700 || q.Amount != 700 {
			t.Errorf("quote = %+v, want 700/700", q)
		}
	})

	t.Run("seasonal discount applies best matching percent", func(t *testing.T) {
		d := newDeps(t)
		u := d.registerUser(t, 1)
		u.FirstBuyDone = true

		if _, err := d.pricingUC.AddSeasonalDiscount(ctx, 10, time.Now().Add(time.Hour), nil); err != nil {
			t.Fatalf("add discount: %v", err)
		}
		if _, err := d.pricingUC.AddSeasonalDiscount(ctx, 20, time.Now().Add(time.Hour), []string{"basic"}); err != nil {
			t.Fatalf("add discount: %v", err)
		}

		q, err := d.pricingUC.Preview(ctx, u, d.catalog["basic"], "")
		if err != nil {
			t.Fatalf("preview: %v", err)
		}
		if q.Amount != 800 { // 1000 minus the better 20%
			t.Errorf("amount = %d, want 800", q.Amount)
		}

		// The premium plan only matches the global 10%.
		q, err = d.pricingUC.Preview(ctx, u, d.catalog["premium"], "")
		if err != nil {
			t.Fatalf("preview: %v", err)
		}
		if q.Amount != 1800 {
			t.Errorf("premium amount = %d, want 1800", q.Amount)
		}
	})

	t.Run("expired seasonal discount is ignored", func(t *testing.T) {
		d := newDeps(t)
		u := d.registerUser(t, 1)
		u.FirstBuyDone = true
		if _, err := d.pricingUC.AddSeasonalDiscount(ctx, 50, time.Now().Add(-time.Minute), nil); err != nil {
			t.Fatalf("add discount: %v", err)
		}
		q, err := d.pricingUC.Preview(ctx, u, d.catalog["basic"], "")
		if err != nil {
			t.Fatalf("preview: %v", err)
		}
		if q.Amount != 1000 {
			t.Errorf("amount = %d, want full 1000", q.Amount)
		}
	})

	t.Run("referred discount waits for the first purchase", func(t *testing.T) {
		d := newDeps(t)
		referrer := d.registerUser(t, 1)
		referred, err := d.userUC.RegisterOrFetch(ctx, 2, "ref", "Ref", referrer.TelegramID)
		if err != nil {
			t.Fatalf("register referred: %v", err)
		}

		// First purchase: first-buy price, no referral percent on top.
		q, err := d.pricingUC.Preview(ctx, referred, d.catalog["basic"], "")
		if err != nil {
			t.Fatalf("preview: %v", err)
		}
		if q.Amount != 700 {
			t.Errorf("first purchase = %d, want 700", q.Amount)
		}

		referred.FirstBuyDone = true
		q, err = d.pricingUC.Preview(ctx, referred, d.catalog["basic"], "")
		if err != nil {
			t.Fatalf("preview: %v", err)
		}
		if q.Amount != 950 { // 1000 minus 5%
			t.Errorf("later purchase = %d, want 950", q.Amount)
		}
	})

	t.Run("coupon applies last", func(t *testing.T) {
		d := newDeps(t)
		u := d.registerUser(t, 1)
		u.FirstBuyDone = true
		if _, err := d.pricingUC.AddSeasonalDiscount(ctx, 10, time.Now().Add(time.Hour), nil); err != nil {
			t.Fatalf("add discount: %v", err)
		}
		if _, err := d.couponUC.Create(ctx, "EXTRA", model.DiscountPercent, 10, time.Time{}, 5, 0, nil); err != nil {
			t.Fatalf("create coupon: %v", err)
		}

		q, err := d.pricingUC.Preview(ctx, u, d.catalog["basic"], "EXTRA")
		if err != nil {
			t.Fatalf("preview: %v", err)
		}
		if q.Amount != 810 { // 1000 -> 900 (seasonal) -> 810 (coupon)
			t.Errorf("amount = %d, want 810", q.Amount)
		}
		if q.Coupon == nil || q.Coupon.Code != "EXTRA" {
			t.Error("coupon not attached to the quote")
		}
	})

	t.Run("coupon minimum checked against the discounted amount", func(t *testing.T) {
		d := newDeps(t)
		u := d.registerUser(t, 1)
		if _, err := d.couponUC.Create(ctx, "BIG", model.DiscountPercent, 10, time.Time{}, 5, 800, nil); err != nil {
			t.Fatalf("create coupon: %v", err)
		}
		// First-buy price 700 is below the 800 minimum.
		_, err := d.pricingUC.Preview(ctx, u, d.catalog["basic"], "BIG")
		if !errors.Is(err, domain.ErrBelowMinPurchase) {
			t.Errorf("err = %v, want ErrBelowMinPurchase", err)
		}
	})
}

func TestSeasonalDiscountAdmin(t *testing.T) {
	ctx := context.Background()
	d := newDeps(t)

	disc, err := d.pricingUC.AddSeasonalDiscount(ctx, 15, time.Now().Add(time.Hour), nil)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	list, err := d.pricingUC.ActiveSeasonalDiscounts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != disc.ID {
		t.Fatalf("list = %v", list)
	}

	if err := d.pricingUC.RemoveSeasonalDiscount(ctx, disc.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := d.pricingUC.RemoveSeasonalDiscount(ctx, disc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second remove: %v, want ErrNotFound", err)
	}

	list, _ = d.pricingUC.ActiveSeasonalDiscounts(ctx)
	if len(list) != 0 {
		t.Errorf("list after remove = %v", list)
	}
}
