//go:build !integration

package model_test

import (
	"errors"
	"testing"
	"time"

	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/domain/model"
)

func testPlan() *model.Plan {
	return &model.Plan{ID: "plan-1", Name: "Basic", DurationDays: 30, RegularPrice: 1000, FirstBuyPrice: 700}
}

func TestSubscriptionLifecycle(t *testing.T) {
	sub, err := model.NewSubscription("user-1", testPlan())
	if err != nil {
		t.Fatalf("new subscription: %v", err)
	}
	if sub.Status != model.SubscriptionStatusPending {
		t.Fatalf("status = %s, want pending", sub.Status)
	}

	sub.Activate("cred-1", 30*24*time.Hour)
	if !sub.IsActive() {
		t.Error("subscription should be active")
	}
	if sub.CredentialID == nil || *sub.CredentialID != "cred-1" {
		t.Error("credential not linked")
	}
	if sub.ExpiresAt == nil || time.Until(*sub.ExpiresAt) < 29*24*time.Hour {
		t.Error("expiry not ~30 days out")
	}

	sub.Expire()
	if sub.Status != model.SubscriptionStatusExpired {
		t.Errorf("status = %s, want expired", sub.Status)
	}
	if sub.CredentialID != nil {
		t.Error("credential link must be cleared on expire")
	}
}

func TestSubscriptionDue(t *testing.T) {
	sub, _ := model.NewSubscription("user-1", testPlan())
	sub.Activate("cred-1", time.Hour)

	if sub.Due(time.Now()) {
		t.Error("fresh subscription is not due")
	}
	past := time.Now().Add(-time.Minute)
	sub.ExpiresAt = &past
	if !sub.Due(time.Now()) {
		t.Error("past-expiry active subscription is due")
	}
	sub.Expire()
	if sub.Due(time.Now()) {
		t.Error("already-expired subscription is not due again")
	}
}

func TestSubscriptionExpiringWithin(t *testing.T) {
	sub, _ := model.NewSubscription("user-1", testPlan())
	sub.Activate("cred-1", 2*24*time.Hour)

	if !sub.ExpiringWithin(time.Now(), 3*24*time.Hour) {
		t.Error("should report expiring within 3 days")
	}
	if sub.ExpiringWithin(time.Now(), 24*time.Hour) {
		t.Error("should not report expiring within 1 day")
	}
	sub.ExpiryWarned = true
	if sub.ExpiringWithin(time.Now(), 3*24*time.Hour) {
		t.Error("warned subscription must not be reported again")
	}
}

func TestSubscriptionExtend(t *testing.T) {
	sub, _ := model.NewSubscription("user-1", testPlan())
	sub.Activate("cred-1", time.Hour)
	before := *sub.ExpiresAt

	sub.Extend(30 * 24 * time.Hour)
	if got := sub.ExpiresAt.Sub(before); got != 30*24*time.Hour {
		t.Errorf("extended by %s, want 720h", got)
	}

	sub.Cancel()
	unchanged := *sub.ExpiresAt
	sub.Extend(time.Hour)
	if !sub.ExpiresAt.Equal(unchanged) {
		t.Error("extend on non-active subscription must be a no-op")
	}
}

func TestNewReferralEntryRejectsSelfReferral(t *testing.T) {
	if _, err := model.NewReferralEntry("user-1", "user-1", 100); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("self-referral: %v, want ErrInvalidArgument", err)
	}
	if _, err := model.NewReferralEntry("", "user-2", 100); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("empty referrer: %v, want ErrInvalidArgument", err)
	}
}

func TestPlanPriceFor(t *testing.T) {
	p := testPlan()
	if got := p.PriceFor(true); got != 700 {
		t.Errorf("first buy price = %d, want 700", got)
	}
	if got := p.PriceFor(false); got != 1000 {
		t.Errorf("regular price = %d, want 1000", got)
	}
	p.FirstBuyPrice = 0
	if got := p.PriceFor(true); got != 1000 {
		t.Errorf("no first-buy pricing: %d, want 1000", got)
	}
}
