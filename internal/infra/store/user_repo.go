package store

import (
	"context"
	"sort"

	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct{}

func NewUserRepo() *userRepo { return &userRepo{} }

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if u.IsZero() {
		return domain.ErrInvalidArgument
	}
	return put(tx, repository.ColUsers, u.ID, u)
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	return get[model.User](tx, repository.ColUsers, id)
}

func (r *userRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	users, err := all[model.User](tx, repository.ColUsers)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.TelegramID == tgID {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *userRepo) List(ctx context.Context, tx repository.Tx) ([]*model.User, error) {
	users, err := all[model.User](tx, repository.ColUsers)
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].RegisteredAt.Before(users[j].RegisteredAt) })
	return users, nil
}
