package store

import (
	"context"
	"sort"
	"time"

	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{}

func NewPaymentRepo() *paymentRepo { return &paymentRepo{} }

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if p == nil || p.ID == "" {
		return domain.ErrInvalidArgument
	}
	return put(tx, repository.ColPayments, p.ID, p)
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	return get[model.Payment](tx, repository.ColPayments, id)
}

func (r *paymentRepo) FindPendingByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Payment, error) {
	payments, err := all[model.Payment](tx, repository.ColPayments)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		if p.UserID == userID && p.Pending() {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *paymentRepo) ListPending(ctx context.Context, tx repository.Tx) ([]*model.Payment, error) {
	return r.listPending(tx, func(p *model.Payment) bool { return p.Pending() })
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time) ([]*model.Payment, error) {
	return r.listPending(tx, func(p *model.Payment) bool {
		return p.Pending() && p.CreatedAt.Before(olderThan)
	})
}

func (r *paymentRepo) listPending(tx repository.Tx, keep func(*model.Payment) bool) ([]*model.Payment, error) {
	payments, err := all[model.Payment](tx, repository.ColPayments)
	if err != nil {
		return nil, err
	}
	out := payments[:0]
	for _, p := range payments {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
