package store

import (
	"context"
	"errors"

	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/domain/ports/repository"
)

var _ repository.SettingsRepository = (*settingsRepo)(nil)

const settingsKey = "settings"

type settingsRepo struct{}

func NewSettingsRepo() *settingsRepo { return &settingsRepo{} }

func (r *settingsRepo) Get(ctx context.Context, tx repository.Tx) (*model.Settings, error) {
	s, err := get[model.Settings](tx, repository.ColSettings, settingsKey)
	if errors.Is(err, domain.ErrNotFound) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *settingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.Settings) error {
	if s == nil {
		return domain.ErrInvalidArgument
	}
	return put(tx, repository.ColSettings, settingsKey, s)
}
