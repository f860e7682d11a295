package repository

import (
	"context"

	"telegram-credential-broker/internal/domain/model"
)

type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	// FindActiveByUserAndPlan returns ErrNotFound when the user holds no
	// active subscription for the plan.
	FindActiveByUserAndPlan(ctx context.Context, tx Tx, userID, planID string) (*model.Subscription, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Subscription, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Subscription, error)
}
