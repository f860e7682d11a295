package store

import (
	"context"
	"sort"

	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{}

func NewSubscriptionRepo() *subscriptionRepo { return &subscriptionRepo{} }

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if s == nil || s.ID == "" {
		return domain.ErrInvalidArgument
	}
	return put(tx, repository.ColSubscriptions, s.ID, s)
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	return get[model.Subscription](tx, repository.ColSubscriptions, id)
}

func (r *subscriptionRepo) FindActiveByUserAndPlan(ctx context.Context, tx repository.Tx, userID, planID string) (*model.Subscription, error) {
	subs, err := all[model.Subscription](tx, repository.ColSubscriptions)
	if err != nil {
		return nil, err
	}
	for _, s := range subs {
		if s.UserID == userID && s.PlanID == planID && s.IsActive() {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *subscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	return r.list(tx, func(s *model.Subscription) bool { return s.UserID == userID })
}

func (r *subscriptionRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Subscription, error) {
	return r.list(tx, (*model.Subscription).IsActive)
}

func (r *subscriptionRepo) list(tx repository.Tx, keep func(*model.Subscription) bool) ([]*model.Subscription, error) {
	subs, err := all[model.Subscription](tx, repository.ColSubscriptions)
	if err != nil {
		return nil, err
	}
	out := subs[:0]
	for _, s := range subs {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
