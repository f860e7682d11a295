package repository

import (
	"context"

	"telegram-credential-broker/internal/domain/model"
)

type CredentialRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Credential) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Credential, error)
	// FindOldestAvailable returns the available credential with the smallest
	// ID (ULIDs sort by creation time), ErrNotFound when the pool is empty.
	FindOldestAvailable(ctx context.Context, tx Tx, planID string) (*model.Credential, error)
	CountAvailableByPlan(ctx context.Context, tx Tx) (map[string]int, error)
	List(ctx context.Context, tx Tx) ([]*model.Credential, error)
}
