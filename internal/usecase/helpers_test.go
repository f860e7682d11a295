//go:build !integration

package usecase_test

import (
	"context"
	"testing"
	"time"

	"telegram-credential-broker/internal/config"
	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/domain/ports/repository"
	"telegram-credential-broker/internal/infra/store"
	"telegram-credential-broker/internal/usecase"

	"github.com/rs/zerolog"
)

// deps wires every use case over a real store in a temp directory, so the
// tests exercise the same transaction and locking paths as production.
type deps struct {
	store    *store.Store
	users    repository.UserRepository
	payments repository.PaymentRepository
	creds    repository.CredentialRepository
	subs     repository.SubscriptionRepository
	coupons  repository.CouponRepository
	refs     repository.ReferralRepository
	settings repository.SettingsRepository

	catalog model.Catalog
	refCfg  config.ReferralConfig

	poolUC     *usecase.PoolUseCase
	pricingUC  *usecase.PricingUseCase
	referralUC *usecase.ReferralUseCase
	paymentUC  *usecase.PaymentUseCase
	subUC      *usecase.SubscriptionUseCase
	userUC     *usecase.UserUseCase
	couponUC   *usecase.CouponUseCase
	salesUC    *usecase.SalesUseCase
}

func newDeps(t *testing.T) *deps {
	t.Helper()
	logger := zerolog.Nop()
	st, err := store.Open(t.TempDir(), time.Second, &logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	d := &deps{
		store:    st,
		users:    store.NewUserRepo(),
		payments: store.NewPaymentRepo(),
		creds:    store.NewCredentialRepo(),
		subs:     store.NewSubscriptionRepo(),
		coupons:  store.NewCouponRepo(),
		refs:     store.NewReferralRepo(),
		settings: store.NewSettingsRepo(),
		catalog: model.Catalog{
			"basic":   {ID: "basic", Name: "Basic", DurationDays: 30, RegularPrice: 1000, FirstBuyPrice: 700},
			"premium": {ID: "premium", Name: "Premium", DurationDays: 30, RegularPrice: 2000},
		},
		refCfg: config.ReferralConfig{
			ReferrerRewardPercent:   10,
			ReferredDiscountPercent: 5,
			FreeMonthAfter:          2,
		},
	}

	d.poolUC = usecase.NewPoolUseCase(d.creds, d.catalog, st, &logger)
	d.pricingUC = usecase.NewPricingUseCase(d.coupons, d.settings, d.refCfg, st, &logger)
	d.referralUC = usecase.NewReferralUseCase(d.refs, d.users, d.subs, d.refCfg, st, &logger)
	d.paymentUC = usecase.NewPaymentUseCase(d.payments, d.subs, d.users, d.coupons, d.poolUC, d.pricingUC, d.referralUC, d.catalog, st, &logger)
	d.subUC = usecase.NewSubscriptionUseCase(d.subs, d.creds, d.poolUC, st, &logger)
	d.userUC = usecase.NewUserUseCase(d.users, d.subs, d.poolUC, st, &logger)
	d.couponUC = usecase.NewCouponUseCase(d.coupons, st, &logger)
	d.salesUC = usecase.NewSalesUseCase(d.settings, st, &logger)
	return d
}

func (d *deps) registerUser(t *testing.T, tgID int64) *model.User {
	t.Helper()
	u, err := d.userUC.RegisterOrFetch(context.Background(), tgID, "user", "User", 0)
	if err != nil {
		t.Fatalf("register user %d: %v", tgID, err)
	}
	return u
}

func (d *deps) addCredential(t *testing.T, planID string) *model.Credential {
	t.Helper()
	c, err := d.poolUC.AddCredential(context.Background(), planID, "login", "secret", "")
	if err != nil {
		t.Fatalf("add credential: %v", err)
	}
	return c
}

func (d *deps) createPayment(t *testing.T, userID, planID, coupon string) *model.Payment {
	t.Helper()
	p, err := d.paymentUC.Create(context.Background(), userID, planID, coupon)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	return p
}

// approvedPurchase runs the full happy path: register, fund the pool, create
// and approve one payment. Returns the approval result.
func (d *deps) approvedPurchase(t *testing.T, tgID int64, planID string) *usecase.ApprovalResult {
	t.Helper()
	u := d.registerUser(t, tgID)
	d.addCredential(t, planID)
	p := d.createPayment(t, u.ID, planID, "")
	res, err := d.paymentUC.Approve(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	return res
}
