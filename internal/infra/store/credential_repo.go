package store

import (
	"context"
	"sort"

	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/domain/ports/repository"
)

var _ repository.CredentialRepository = (*credentialRepo)(nil)

type credentialRepo struct{}

func NewCredentialRepo() *credentialRepo { return &credentialRepo{} }

func (r *credentialRepo) Save(ctx context.Context, tx repository.Tx, c *model.Credential) error {
	if c == nil || c.ID == "" {
		return domain.ErrInvalidArgument
	}
	return put(tx, repository.ColCredentials, c.ID, c)
}

func (r *credentialRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Credential, error) {
	return get[model.Credential](tx, repository.ColCredentials, id)
}

func (r *credentialRepo) FindOldestAvailable(ctx context.Context, tx repository.Tx, planID string) (*model.Credential, error) {
	creds, err := all[model.Credential](tx, repository.ColCredentials)
	if err != nil {
		return nil, err
	}
	var oldest *model.Credential
	for _, c := range creds {
		if c.PlanID != planID || !c.Available() {
			continue
		}
		// ULID order is creation order
		if oldest == nil || c.ID < oldest.ID {
			oldest = c
		}
	}
	if oldest == nil {
		return nil, domain.ErrNotFound
	}
	return oldest, nil
}

func (r *credentialRepo) CountAvailableByPlan(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	creds, err := all[model.Credential](tx, repository.ColCredentials)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, c := range creds {
		if c.Available() {
			counts[c.PlanID]++
		}
	}
	return counts, nil
}

func (r *credentialRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Credential, error) {
	creds, err := all[model.Credential](tx, repository.ColCredentials)
	if err != nil {
		return nil, err
	}
	sort.Slice(creds, func(i, j int) bool { return creds[i].ID < creds[j].ID })
	return creds, nil
}
