package usecase

import (
	"context"
	"time"

	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// CouponUseCase is the admin surface for discount codes.
type CouponUseCase struct {
	coupons repository.CouponRepository
	tm      repository.TxRunner
	log     *zerolog.Logger
}

func NewCouponUseCase(coupons repository.CouponRepository, tm repository.TxRunner, logger *zerolog.Logger) *CouponUseCase {
	l := logger.With().Str("component", "coupons").Logger()
	return &CouponUseCase{coupons: coupons, tm: tm, log: &l}
}

// Create registers a new coupon; a taken code fails with
// domain.ErrDuplicateCode.
func (uc *CouponUseCase) Create(ctx context.Context, code string, typ model.DiscountType, value int64, expiresAt time.Time, maxUses int, minPurchase int64, plans []string) (*model.Coupon, error) {
	coupon, err := model.NewCoupon(code, typ, value, expiresAt, maxUses, minPurchase, plans)
	if err != nil {
		return nil, err
	}
	err = uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return uc.coupons.Create(ctx, tx, coupon)
	}, repository.ColCoupons)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("code", code).Int("max_uses", maxUses).Msg("coupon created")
	return coupon, nil
}

func (uc *CouponUseCase) Delete(ctx context.Context, code string) error {
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return uc.coupons.Delete(ctx, tx, code)
	}, repository.ColCoupons)
	if err != nil {
		return err
	}
	uc.log.Info().Str("code", code).Msg("coupon deleted")
	return nil
}

func (uc *CouponUseCase) Find(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon *model.Coupon
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		coupon, err = uc.coupons.FindByCode(ctx, tx, code)
		return err
	}, repository.ColCoupons)
	return coupon, err
}

func (uc *CouponUseCase) List(ctx context.Context) ([]*model.Coupon, error) {
	var coupons []*model.Coupon
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		coupons, err = uc.coupons.List(ctx, tx)
		return err
	}, repository.ColCoupons)
	return coupons, err
}
