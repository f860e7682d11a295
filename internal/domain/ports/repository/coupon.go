package repository

import (
	"context"

	"telegram-credential-broker/internal/domain/model"
)

type CouponRepository interface {
	// Create fails with domain.ErrDuplicateCode when the code is taken.
	Create(ctx context.Context, tx Tx, c *model.Coupon) error
	Save(ctx context.Context, tx Tx, c *model.Coupon) error
	FindByCode(ctx context.Context, tx Tx, code string) (*model.Coupon, error)
	Delete(ctx context.Context, tx Tx, code string) error
	List(ctx context.Context, tx Tx) ([]*model.Coupon, error)
}
