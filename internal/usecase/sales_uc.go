package usecase

import (
	"context"

	"telegram-credential-broker/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// SalesUseCase toggles the global sales switch. Suspension blocks new
// payments only; existing subscriptions and pending payments are untouched.
type SalesUseCase struct {
	settings repository.SettingsRepository
	tm       repository.TxRunner
	log      *zerolog.Logger
}

func NewSalesUseCase(settings repository.SettingsRepository, tm repository.TxRunner, logger *zerolog.Logger) *SalesUseCase {
	l := logger.With().Str("component", "sales").Logger()
	return &SalesUseCase{settings: settings, tm: tm, log: &l}
}

func (uc *SalesUseCase) Suspend(ctx context.Context) error {
	return uc.set(ctx, false)
}

func (uc *SalesUseCase) Resume(ctx context.Context) error {
	return uc.set(ctx, true)
}

func (uc *SalesUseCase) set(ctx context.Context, enabled bool) error {
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		settings, err := uc.settings.Get(ctx, tx)
		if err != nil {
			return err
		}
		settings.SalesEnabled = enabled
		return uc.settings.Save(ctx, tx, settings)
	}, repository.ColSettings)
	if err != nil {
		return err
	}
	uc.log.Info().Bool("enabled", enabled).Msg("sales switch changed")
	return nil
}

// Enabled reports whether new purchases are accepted.
func (uc *SalesUseCase) Enabled(ctx context.Context) (bool, error) {
	var enabled bool
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		settings, err := uc.settings.Get(ctx, tx)
		if err != nil {
			return err
		}
		enabled = settings.SalesEnabled
		return nil
	}, repository.ColSettings)
	return enabled, err
}
