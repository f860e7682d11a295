package usecase

import (
	"context"
	"errors"
	"time"

	"telegram-credential-broker/internal/config"
	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Quote is the priced outcome of a purchase request before it becomes a
// payment.
type Quote struct {
	BaseAmount int64
	Amount     int64
	Coupon     *model.Coupon
}

// PricingUseCase computes what a user owes for a plan. Adjustments apply in
// a fixed order: first-purchase price, best seasonal discount, referral
// discount, coupon.
type PricingUseCase struct {
	coupons  repository.CouponRepository
	settings repository.SettingsRepository
	referral config.ReferralConfig
	tm       repository.TxRunner
	log      *zerolog.Logger
}

func NewPricingUseCase(coupons repository.CouponRepository, settings repository.SettingsRepository, referral config.ReferralConfig, tm repository.TxRunner, logger *zerolog.Logger) *PricingUseCase {
	l := logger.With().Str("component", "pricing").Logger()
	return &PricingUseCase{coupons: coupons, settings: settings, referral: referral, tm: tm, log: &l}
}

// QuoteTx prices the purchase inside the caller's transaction, which must
// span the coupons and settings collections. The coupon is validated but not
// redeemed; redemption happens at approval.
func (uc *PricingUseCase) QuoteTx(ctx context.Context, tx repository.Tx, user *model.User, plan *model.Plan, couponCode string) (*Quote, error) {
	now := time.Now()
	base := plan.PriceFor(!user.FirstBuyDone)
	amount := base

	settings, err := uc.settings.Get(ctx, tx)
	if err != nil {
		return nil, err
	}
	if pct := bestSeasonalPercent(settings, now, plan.ID); pct > 0 {
		amount -= amount * pct / 100
	}

	// Referral discount kicks in only after the first purchase, so it never
	// stacks with first-buy pricing.
	if user.ReferredBy != "" && user.FirstBuyDone && uc.referral.ReferredDiscountPercent > 0 {
		amount -= amount * uc.referral.ReferredDiscountPercent / 100
	}

	q := &Quote{BaseAmount: base, Amount: amount}
	if couponCode == "" {
		return q, nil
	}

	coupon, err := uc.coupons.FindByCode(ctx, tx, couponCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCoupon
		}
		return nil, err
	}
	if err := coupon.Check(now, plan.ID, amount); err != nil {
		return nil, err
	}
	q.Amount = coupon.Discount(amount)
	q.Coupon = coupon
	return q, nil
}

// Preview prices a purchase outside any payment flow (the bot shows it
// before the user commits).
func (uc *PricingUseCase) Preview(ctx context.Context, user *model.User, plan *model.Plan, couponCode string) (*Quote, error) {
	var q *Quote
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		q, err = uc.QuoteTx(ctx, tx, user, plan, couponCode)
		return err
	}, repository.ColCoupons, repository.ColSettings)
	return q, err
}

func bestSeasonalPercent(s *model.Settings, now time.Time, planID string) int64 {
	var best int64
	for _, d := range s.SeasonalDiscounts {
		if d.Active(now, planID) && d.Percent > best {
			best = d.Percent
		}
	}
	return best
}

// ---- seasonal discount administration ----

func (uc *PricingUseCase) AddSeasonalDiscount(ctx context.Context, percent int64, expiresAt time.Time, plans []string) (*model.SeasonalDiscount, error) {
	d := model.NewSeasonalDiscount(percent, expiresAt, plans)
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		settings, err := uc.settings.Get(ctx, tx)
		if err != nil {
			return err
		}
		if settings.SeasonalDiscounts == nil {
			settings.SeasonalDiscounts = map[string]*model.SeasonalDiscount{}
		}
		settings.SeasonalDiscounts[d.ID] = d
		return uc.settings.Save(ctx, tx, settings)
	}, repository.ColSettings)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("discount_id", d.ID).Int64("percent", d.Percent).Msg("seasonal discount added")
	return d, nil
}

func (uc *PricingUseCase) RemoveSeasonalDiscount(ctx context.Context, id string) error {
	return uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		settings, err := uc.settings.Get(ctx, tx)
		if err != nil {
			return err
		}
		if _, ok := settings.SeasonalDiscounts[id]; !ok {
			return domain.ErrNotFound
		}
		delete(settings.SeasonalDiscounts, id)
		return uc.settings.Save(ctx, tx, settings)
	}, repository.ColSettings)
}

// ActiveSeasonalDiscounts drops expired entries from the result (they stay
// stored until removed).
func (uc *PricingUseCase) ActiveSeasonalDiscounts(ctx context.Context) ([]*model.SeasonalDiscount, error) {
	var out []*model.SeasonalDiscount
	now := time.Now()
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		settings, err := uc.settings.Get(ctx, tx)
		if err != nil {
			return err
		}
		for _, d := range settings.SeasonalDiscounts {
			if d.ExpiresAt.IsZero() || now.Before(d.ExpiresAt) {
				out = append(out, d)
			}
		}
		return nil
	}, repository.ColSettings)
	return out, err
}
