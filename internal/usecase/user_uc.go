package usecase

import (
	"context"
	"errors"

	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// UserUseCase manages user registration and the ban lifecycle.
type UserUseCase struct {
	users repository.UserRepository
	subs  repository.SubscriptionRepository
	pool  *PoolUseCase
	tm    repository.TxRunner
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, subs repository.SubscriptionRepository, pool *PoolUseCase, tm repository.TxRunner, logger *zerolog.Logger) *UserUseCase {
	l := logger.With().Str("component", "users").Logger()
	return &UserUseCase{users: users, subs: subs, pool: pool, tm: tm, log: &l}
}

// RegisterOrFetch returns the user for the Telegram account, creating it on
// first contact. referrerTgID comes from a /start deep link; it binds the
// referral only on creation and only when it names another, known user.
func (uc *UserUseCase) RegisterOrFetch(ctx context.Context, tgID int64, username, firstName string, referrerTgID int64) (*model.User, error) {
	var user *model.User
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		existing, err := uc.users.FindByTelegramID(ctx, tx, tgID)
		if err == nil {
			existing.Touch()
			existing.Username = username
			user = existing
			return uc.users.Save(ctx, tx, existing)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		user, err = model.NewUser("", tgID, username, firstName)
		if err != nil {
			return err
		}
		if referrerTgID > 0 && referrerTgID != tgID {
			referrer, err := uc.users.FindByTelegramID(ctx, tx, referrerTgID)
			switch {
			case err == nil:
				user.ReferredBy = referrer.ID
			case errors.Is(err, domain.ErrNotFound):
				// Dead link; register without the referral.
			default:
				return err
			}
		}
		uc.log.Info().Int64("tg_id", tgID).Str("user_id", user.ID).Msg("user registered")
		return uc.users.Save(ctx, tx, user)
	}, repository.ColUsers)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByTelegramID resolves the Telegram account to the stored user.
func (uc *UserUseCase) FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	var user *model.User
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		user, err = uc.users.FindByTelegramID(ctx, tx, tgID)
		return err
	}, repository.ColUsers)
	return user, err
}

// Find returns a user by internal ID.
func (uc *UserUseCase) Find(ctx context.Context, userID string) (*model.User, error) {
	var user *model.User
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		user, err = uc.users.FindByID(ctx, tx, userID)
		return err
	}, repository.ColUsers)
	return user, err
}

// Ban blocks the user and, in the same transaction, cancels their active
// subscriptions and returns the credentials to their pools.
func (uc *UserUseCase) Ban(ctx context.Context, userID, reason string) (*model.User, error) {
	var user *model.User
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		user, err = uc.users.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user.Banned {
			return nil
		}
		user.Ban(reason)
		if err := uc.users.Save(ctx, tx, user); err != nil {
			return err
		}

		subs, err := uc.subs.ListByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		for _, s := range subs {
			if !s.IsActive() {
				continue
			}
			if s.CredentialID != nil {
				if err := uc.pool.Reclaim(ctx, tx, *s.CredentialID); err != nil {
					return err
				}
			}
			s.Cancel()
			if err := uc.subs.Save(ctx, tx, s); err != nil {
				return err
			}
		}
		return nil
	}, repository.ColCredentials, repository.ColSubscriptions, repository.ColUsers)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", userID).Str("reason", reason).Msg("user banned")
	return user, nil
}

// Unban lifts the ban. Cancelled subscriptions stay cancelled; the user buys
// again to get a new credential.
func (uc *UserUseCase) Unban(ctx context.Context, userID string) (*model.User, error) {
	var user *model.User
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		user, err = uc.users.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		user.Unban()
		return uc.users.Save(ctx, tx, user)
	}, repository.ColUsers)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", userID).Msg("user unbanned")
	return user, nil
}

// List returns every registered user.
func (uc *UserUseCase) List(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		users, err = uc.users.List(ctx, tx)
		return err
	}, repository.ColUsers)
	return users, err
}
