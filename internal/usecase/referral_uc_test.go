//go:build !integration

package usecase_test

import (
	"context"
	"testing"
	"time"

	"telegram-credential-broker/internal/domain/model"
)

func TestReferralCredit(t *testing.T) {
	ctx := context.Background()

	t.Run("first approved payment credits the referrer once", func(t *testing.T) {
		d := newDeps(t)
		referrer := d.registerUser(t, 1)
		referred, err := d.userUC.RegisterOrFetch(ctx, 2, "ref", "Ref", referrer.TelegramID)
		if err != nil {
			t.Fatalf("register referred: %v", err)
		}
		if referred.ReferredBy != referrer.ID {
			t.Fatalf("referral not bound: %+v", referred)
		}

		d.addCredential(t, "basic")
		p := d.createPayment(t, referred.ID, "basic", "")
		if _, err := d.paymentUC.Approve(ctx, p.ID); err != nil {
			t.Fatalf("approve: %v", err)
		}

		balance, err := d.referralUC.BalanceOf(ctx, referrer.ID)
		if err != nil {
			t.Fatalf("balance: %v", err)
		}
		if balance != 70 { // 10% of the 700 first-buy payment
			t.Errorf("balance = %d, want 70", balance)
		}

		got, _ := d.userUC.Find(ctx, referrer.ID)
		if got.SuccessfulReferrals != 1 {
			t.Errorf("successful referrals = %d, want 1", got.SuccessfulReferrals)
		}

		// A renewal by the same referred user must not credit again.
		d.addCredential(t, "basic")
		p2 := d.createPayment(t, referred.ID, "basic", "")
		if _, err := d.paymentUC.Approve(ctx, p2.ID); err != nil {
			t.Fatalf("renewal approve: %v", err)
		}
		balance, _ = d.referralUC.BalanceOf(ctx, referrer.ID)
		if balance != 70 {
			t.Errorf("balance after renewal = %d, want still 70", balance)
		}
	})

	t.Run("milestone extends the referrer's active subscriptions", func(t *testing.T) {
		d := newDeps(t) // FreeMonthAfter = 2
		res := d.approvedPurchase(t, 1, "basic")
		referrerID := res.Payment.UserID
		referrer, _ := d.userUC.Find(ctx, referrerID)
		expiryBefore := *res.Subscription.ExpiresAt

		var lastResult *model.User
		for i := int64(0); i < 2; i++ {
			referred, err := d.userUC.RegisterOrFetch(ctx, 10+i, "ref", "Ref", referrer.TelegramID)
			if err != nil {
				t.Fatalf("register: %v", err)
			}
			d.addCredential(t, "basic")
			p := d.createPayment(t, referred.ID, "basic", "")
			r, err := d.paymentUC.Approve(ctx, p.ID)
			if err != nil {
				t.Fatalf("approve: %v", err)
			}
			lastResult = r.FreeMonthReferrer
		}

		if lastResult == nil || lastResult.ID != referrerID {
			t.Fatal("second referral should report the free-month milestone")
		}

		views, err := d.subUC.StatusFor(ctx, referrerID)
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		var active *model.Subscription
		for _, v := range views {
			if v.Subscription.IsActive() {
				active = v.Subscription
			}
		}
		if active == nil {
			t.Fatal("referrer has no active subscription")
		}
		if got := active.ExpiresAt.Sub(expiryBefore); got != 30*24*time.Hour {
			t.Errorf("extension = %s, want 720h", got)
		}
	})

	t.Run("no referral, no credit", func(t *testing.T) {
		d := newDeps(t)
		res := d.approvedPurchase(t, 1, "basic")
		entries, err := d.referralUC.ListByReferrer(ctx, res.Payment.UserID)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("entries = %v, want none", entries)
		}
	})
}
