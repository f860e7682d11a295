package application

import (
	"context"
	"time"

	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/usecase"
)

// Core composes the usecases into the operation set the transports call.
// The Telegram bot and the admin web panel both talk to this facade only;
// neither touches a usecase or repository directly.
type Core struct {
	UserUC     *usecase.UserUseCase
	PoolUC     *usecase.PoolUseCase
	PaymentUC  *usecase.PaymentUseCase
	SubUC      *usecase.SubscriptionUseCase
	CouponUC   *usecase.CouponUseCase
	ReferralUC *usecase.ReferralUseCase
	PricingUC  *usecase.PricingUseCase
	SalesUC    *usecase.SalesUseCase
	StatsUC    *usecase.StatsUseCase

	Catalog model.Catalog
}

func NewCore(
	userUC *usecase.UserUseCase,
	poolUC *usecase.PoolUseCase,
	paymentUC *usecase.PaymentUseCase,
	subUC *usecase.SubscriptionUseCase,
	couponUC *usecase.CouponUseCase,
	referralUC *usecase.ReferralUseCase,
	pricingUC *usecase.PricingUseCase,
	salesUC *usecase.SalesUseCase,
	statsUC *usecase.StatsUseCase,
	catalog model.Catalog,
) *Core {
	return &Core{
		UserUC:     userUC,
		PoolUC:     poolUC,
		PaymentUC:  paymentUC,
		SubUC:      subUC,
		CouponUC:   couponUC,
		ReferralUC: referralUC,
		PricingUC:  pricingUC,
		SalesUC:    salesUC,
		StatsUC:    statsUC,
		Catalog:    catalog,
	}
}

// ---- user flows ----

func (c *Core) RegisterOrFetch(ctx context.Context, tgID int64, username, firstName string, referrerTgID int64) (*model.User, error) {
	return c.UserUC.RegisterOrFetch(ctx, tgID, username, firstName, referrerTgID)
}

func (c *Core) UserByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	return c.UserUC.FindByTelegramID(ctx, tgID)
}

// QuotePurchase prices a plan for the user without committing anything.
func (c *Core) QuotePurchase(ctx context.Context, user *model.User, planID, couponCode string) (*usecase.Quote, error) {
	plan, ok := c.Catalog.Get(planID)
	if !ok {
		return nil, planNotFound(planID)
	}
	return c.PricingUC.Preview(ctx, user, plan, couponCode)
}

// CreatePayment opens a pending payment for the user.
func (c *Core) CreatePayment(ctx context.Context, userID, planID, couponCode string) (*model.Payment, error) {
	return c.PaymentUC.Create(ctx, userID, planID, couponCode)
}

// SubscriptionStatus returns the user's subscriptions with credentials
// attached to the active ones.
func (c *Core) SubscriptionStatus(ctx context.Context, userID string) ([]*usecase.SubscriptionView, error) {
	return c.SubUC.StatusFor(ctx, userID)
}

func (c *Core) CancelSubscription(ctx context.Context, userID, planID string) (*model.Subscription, error) {
	return c.SubUC.Cancel(ctx, userID, planID)
}

func (c *Core) ReferralBalance(ctx context.Context, userID string) (int64, error) {
	return c.ReferralUC.BalanceOf(ctx, userID)
}

// ---- admin: payments ----

func (c *Core) ApprovePayment(ctx context.Context, paymentID string) (*usecase.ApprovalResult, error) {
	return c.PaymentUC.Approve(ctx, paymentID)
}

func (c *Core) RejectPayment(ctx context.Context, paymentID, reason string) (*model.Payment, error) {
	return c.PaymentUC.Reject(ctx, paymentID, reason)
}

func (c *Core) PendingPayments(ctx context.Context) ([]*model.Payment, error) {
	return c.PaymentUC.ListPending(ctx)
}

// ---- admin: credential pool ----

func (c *Core) AddCredential(ctx context.Context, planID, username, password, notes string) (*model.Credential, error) {
	return c.PoolUC.AddCredential(ctx, planID, username, password, notes)
}

func (c *Core) AddCredentialBatch(ctx context.Context, planID string, entries []usecase.BatchEntry) (int, error) {
	return c.PoolUC.AddBatch(ctx, planID, entries)
}

func (c *Core) ReclaimCredential(ctx context.Context, credentialID string) error {
	return c.PoolUC.ReclaimByID(ctx, credentialID)
}

func (c *Core) PoolCounts(ctx context.Context) (map[string]int, error) {
	return c.PoolUC.AvailableCounts(ctx)
}

func (c *Core) ListCredentials(ctx context.Context) ([]*model.Credential, error) {
	return c.PoolUC.ListCredentials(ctx)
}

// ---- admin: coupons and discounts ----

func (c *Core) CreateCoupon(ctx context.Context, code string, typ model.DiscountType, value int64, expiresAt time.Time, maxUses int, minPurchase int64, plans []string) (*model.Coupon, error) {
	return c.CouponUC.Create(ctx, code, typ, value, expiresAt, maxUses, minPurchase, plans)
}

func (c *Core) DeleteCoupon(ctx context.Context, code string) error {
	return c.CouponUC.Delete(ctx, code)
}

func (c *Core) ListCoupons(ctx context.Context) ([]*model.Coupon, error) {
	return c.CouponUC.List(ctx)
}

func (c *Core) AddSeasonalDiscount(ctx context.Context, percent int64, expiresAt time.Time, plans []string) (*model.SeasonalDiscount, error) {
	return c.PricingUC.AddSeasonalDiscount(ctx, percent, expiresAt, plans)
}

func (c *Core) RemoveSeasonalDiscount(ctx context.Context, id string) error {
	return c.PricingUC.RemoveSeasonalDiscount(ctx, id)
}

func (c *Core) ListSeasonalDiscounts(ctx context.Context) ([]*model.SeasonalDiscount, error) {
	return c.PricingUC.ActiveSeasonalDiscounts(ctx)
}

// ---- admin: users and sales ----

func (c *Core) BanUser(ctx context.Context, userID, reason string) (*model.User, error) {
	return c.UserUC.Ban(ctx, userID, reason)
}

func (c *Core) UnbanUser(ctx context.Context, userID string) (*model.User, error) {
	return c.UserUC.Unban(ctx, userID)
}

func (c *Core) ListUsers(ctx context.Context) ([]*model.User, error) {
	return c.UserUC.List(ctx)
}

func (c *Core) SuspendSales(ctx context.Context) error { return c.SalesUC.Suspend(ctx) }
func (c *Core) ResumeSales(ctx context.Context) error  { return c.SalesUC.Resume(ctx) }
func (c *Core) SalesEnabled(ctx context.Context) (bool, error) {
	return c.SalesUC.Enabled(ctx)
}

func (c *Core) Stats(ctx context.Context) (*usecase.Stats, error) {
	return c.StatsUC.Snapshot(ctx)
}
