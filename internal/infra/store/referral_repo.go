package store

import (
	"context"
	"errors"
	"sort"

	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/domain/ports/repository"
)

var _ repository.ReferralRepository = (*referralRepo)(nil)

// Entries are keyed by referred user ID: the collection itself enforces the
// one-entry-per-referred-user invariant.
type referralRepo struct{}

func NewReferralRepo() *referralRepo { return &referralRepo{} }

func (r *referralRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, e *model.ReferralEntry) (bool, error) {
	if e == nil || e.ReferredID == "" {
		return false, domain.ErrInvalidArgument
	}
	_, err := get[model.ReferralEntry](tx, repository.ColReferrals, e.ReferredID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if err := put(tx, repository.ColReferrals, e.ReferredID, e); err != nil {
		return false, err
	}
	return true, nil
}

func (r *referralRepo) FindByReferred(ctx context.Context, tx repository.Tx, referredID string) (*model.ReferralEntry, error) {
	return get[model.ReferralEntry](tx, repository.ColReferrals, referredID)
}

func (r *referralRepo) ListByReferrer(ctx context.Context, tx repository.Tx, referrerID string) ([]*model.ReferralEntry, error) {
	entries, err := all[model.ReferralEntry](tx, repository.ColReferrals)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if e.ReferrerID == referrerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
