package store

import (
	"context"
	"errors"
	"sort"

	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/domain/ports/repository"
)

var _ repository.CouponRepository = (*couponRepo)(nil)

type couponRepo struct{}

func NewCouponRepo() *couponRepo { return &couponRepo{} }

func (r *couponRepo) Create(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	if c == nil || c.Code == "" {
		return domain.ErrInvalidArgument
	}
	_, err := get[model.Coupon](tx, repository.ColCoupons, c.Code)
	if err == nil {
		return domain.ErrDuplicateCode
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return put(tx, repository.ColCoupons, c.Code, c)
}

func (r *couponRepo) Save(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	if c == nil || c.Code == "" {
		return domain.ErrInvalidArgument
	}
	return put(tx, repository.ColCoupons, c.Code, c)
}

func (r *couponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	return get[model.Coupon](tx, repository.ColCoupons, code)
}

func (r *couponRepo) Delete(ctx context.Context, tx repository.Tx, code string) error {
	return remove(tx, repository.ColCoupons, code)
}

func (r *couponRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Coupon, error) {
	coupons, err := all[model.Coupon](tx, repository.ColCoupons)
	if err != nil {
		return nil, err
	}
	sort.Slice(coupons, func(i, j int) bool { return coupons[i].Code < coupons[j].Code })
	return coupons, nil
}
