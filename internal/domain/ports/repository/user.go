package repository

import (
	"context"

	"telegram-credential-broker/internal/domain/model"
)

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByTelegramID(ctx context.Context, tx Tx, tgID int64) (*model.User, error)
	List(ctx context.Context, tx Tx) ([]*model.User, error)
}
