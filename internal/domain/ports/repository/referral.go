package repository

import (
	"context"

	"telegram-credential-broker/internal/domain/model"
)

// ReferralRepository stores the ledger keyed by referred user ID, which is
// what makes "a user is referred once" structural rather than checked.
type ReferralRepository interface {
	// CreateIfAbsent stores the entry unless the referred user already has
	// one; it reports whether the entry was created.
	CreateIfAbsent(ctx context.Context, tx Tx, e *model.ReferralEntry) (bool, error)
	FindByReferred(ctx context.Context, tx Tx, referredID string) (*model.ReferralEntry, error)
	ListByReferrer(ctx context.Context, tx Tx, referrerID string) ([]*model.ReferralEntry, error)
}
