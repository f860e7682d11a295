package repository

import (
	"context"

	"telegram-credential-broker/internal/domain/model"
)

// SettingsRepository holds the single operational settings record.
type SettingsRepository interface {
	// Get returns the settings, falling back to defaults when none are
	// stored yet.
	Get(ctx context.Context, tx Tx) (*model.Settings, error)
	Save(ctx context.Context, tx Tx, s *model.Settings) error
}
