//go:build !integration

package usecase_test

import (
	"context"
	"testing"

	"telegram-credential-broker/internal/domain/model"
)

func TestRegisterOrFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("registers once and then fetches", func(t *testing.T) {
		d := newDeps(t)
		u1 := d.registerUser(t, 42)
		u2, err := d.userUC.RegisterOrFetch(ctx, 42, "newname", "User", 0)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if u2.ID != u1.ID {
			t.Error("second call created a new user")
		}
		if u2.Username != "newname" {
			t.Errorf("username not refreshed: %q", u2.Username)
		}
	})

	t.Run("binds a referral only on creation", func(t *testing.T) {
		d := newDeps(t)
		referrer := d.registerUser(t, 1)

		u, err := d.userUC.RegisterOrFetch(ctx, 2, "x", "X", referrer.TelegramID)
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if u.ReferredBy != referrer.ID {
			t.Errorf("referred_by = %q, want %q", u.ReferredBy, referrer.ID)
		}

		// A later /start with a different referrer changes nothing.
		other := d.registerUser(t, 3)
		again, err := d.userUC.RegisterOrFetch(ctx, 2, "x", "X", other.TelegramID)
		if err != nil {
			t.Fatalf("refetch: %v", err)
		}
		if again.ReferredBy != referrer.ID {
			t.Error("existing referral rebound")
		}
	})

	t.Run("ignores self-referral and unknown referrers", func(t *testing.T) {
		d := newDeps(t)
		u, err := d.userUC.RegisterOrFetch(ctx, 5, "x", "X", 5)
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if u.ReferredBy != "" {
			t.Error("self-referral must not bind")
		}
		u2, err := d.userUC.RegisterOrFetch(ctx, 6, "y", "Y", 99999)
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if u2.ReferredBy != "" {
			t.Error("unknown referrer must not bind")
		}
	})
}

func TestBanUser(t *testing.T) {
	ctx := context.Background()

	t.Run("ban cancels subscriptions and reclaims credentials", func(t *testing.T) {
		d := newDeps(t)
		res := d.approvedPurchase(t, 1, "basic")

		banned, err := d.userUC.Ban(ctx, res.Payment.UserID, "chargeback")
		if err != nil {
			t.Fatalf("ban: %v", err)
		}
		if !banned.Banned || banned.BanReason != "chargeback" {
			t.Errorf("user = %+v", banned)
		}

		views, _ := d.subUC.StatusFor(ctx, res.Payment.UserID)
		for _, v := range views {
			if v.Subscription.IsActive() {
				t.Error("active subscription survived the ban")
			}
			if v.Subscription.Status == model.SubscriptionStatusCancelled && v.Subscription.CredentialID != nil {
				t.Error("cancelled subscription still holds a credential")
			}
		}
		counts, _ := d.poolUC.AvailableCounts(ctx)
		if counts["basic"] != 1 {
			t.Errorf("available = %d, want the credential reclaimed", counts["basic"])
		}
	})

	t.Run("unban restores purchasing, not subscriptions", func(t *testing.T) {
		d := newDeps(t)
		res := d.approvedPurchase(t, 1, "basic")
		userID := res.Payment.UserID

		if _, err := d.userUC.Ban(ctx, userID, "spam"); err != nil {
			t.Fatalf("ban: %v", err)
		}
		u, err := d.userUC.Unban(ctx, userID)
		if err != nil {
			t.Fatalf("unban: %v", err)
		}
		if u.Banned {
			t.Error("still banned")
		}

		views, _ := d.subUC.StatusFor(ctx, userID)
		for _, v := range views {
			if v.Subscription.IsActive() {
				t.Error("unban must not resurrect subscriptions")
			}
		}
		if _, err := d.paymentUC.Create(ctx, userID, "basic", ""); err != nil {
			t.Errorf("create after unban: %v", err)
		}
	})
}
