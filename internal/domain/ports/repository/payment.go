package repository

import (
	"context"
	"time"

	"telegram-credential-broker/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	// FindPendingByUser returns the user's open payment, ErrNotFound if none.
	FindPendingByUser(ctx context.Context, tx Tx, userID string) (*model.Payment, error)
	ListPending(ctx context.Context, tx Tx) ([]*model.Payment, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time) ([]*model.Payment, error)
}
