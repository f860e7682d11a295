package usecase

import (
	"context"
	"time"

	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/domain/ports/repository"
	"telegram-credential-broker/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// SubscriptionView is a subscription joined with the credential it holds,
// for the status surfaces.
type SubscriptionView struct {
	Subscription *model.Subscription
	Credential   *model.Credential
}

// SubscriptionUseCase reads subscription state and runs the lifecycle sweep
// that expires lapsed subscriptions and returns their credentials to the
// pool.
type SubscriptionUseCase struct {
	subs  repository.SubscriptionRepository
	creds repository.CredentialRepository
	pool  *PoolUseCase
	tm    repository.TxRunner
	log   *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, creds repository.CredentialRepository, pool *PoolUseCase, tm repository.TxRunner, logger *zerolog.Logger) *SubscriptionUseCase {
	l := logger.With().Str("component", "subscriptions").Logger()
	return &SubscriptionUseCase{subs: subs, creds: creds, pool: pool, tm: tm, log: &l}
}

// StatusFor returns the user's subscriptions newest first, with credential
// details attached to the active ones.
func (uc *SubscriptionUseCase) StatusFor(ctx context.Context, userID string) ([]*SubscriptionView, error) {
	var views []*SubscriptionView
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		subs, err := uc.subs.ListByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		for _, s := range subs {
			v := &SubscriptionView{Subscription: s}
			if s.IsActive() && s.CredentialID != nil {
				cred, err := uc.creds.FindByID(ctx, tx, *s.CredentialID)
				if err != nil {
					return err
				}
				v.Credential = cred
			}
			views = append(views, v)
		}
		return nil
	}, repository.ColCredentials, repository.ColSubscriptions)
	return views, err
}

// Cancel deactivates the user's active subscription for the plan and returns
// its credential to the pool.
func (uc *SubscriptionUseCase) Cancel(ctx context.Context, userID, planID string) (*model.Subscription, error) {
	var sub *model.Subscription
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		sub, err = uc.subs.FindActiveByUserAndPlan(ctx, tx, userID, planID)
		if err != nil {
			return err
		}
		if sub.CredentialID != nil {
			if err := uc.pool.Reclaim(ctx, tx, *sub.CredentialID); err != nil {
				return err
			}
		}
		sub.Cancel()
		return uc.subs.Save(ctx, tx, sub)
	}, repository.ColCredentials, repository.ColSubscriptions)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("subscription_id", sub.ID).Str("user_id", userID).Msg("subscription cancelled")
	return sub, nil
}

// SweepExpired expires every active subscription past its expiry and
// reclaims its credential, one transaction per subscription so a single bad
// record cannot block the rest of the sweep. Returns the expired
// subscriptions for user notification.
func (uc *SubscriptionUseCase) SweepExpired(ctx context.Context) ([]*model.Subscription, error) {
	now := time.Now()

	var active []*model.Subscription
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		active, err = uc.subs.ListActive(ctx, tx)
		return err
	}, repository.ColSubscriptions)
	if err != nil {
		return nil, err
	}

	var expired []*model.Subscription
	for _, s := range active {
		if !s.Due(now) {
			continue
		}
		if err := uc.expireOne(ctx, s.ID); err != nil {
			metrics.IncSweepItemFailures()
			uc.log.Error().Err(err).Str("subscription_id", s.ID).Msg("expire failed, skipping")
			continue
		}
		expired = append(expired, s)
	}

	metrics.IncSweepRuns()
	if len(expired) > 0 {
		metrics.AddSubscriptionsExpired(len(expired))
		uc.log.Info().Int("count", len(expired)).Msg("subscriptions expired")
	}
	return expired, nil
}

func (uc *SubscriptionUseCase) expireOne(ctx context.Context, subID string) error {
	return uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		sub, err := uc.subs.FindByID(ctx, tx, subID)
		if err != nil {
			return err
		}
		// Re-check under the lock: an admin or a renewal may have settled it
		// between the listing and now.
		if !sub.Due(time.Now()) {
			return nil
		}
		if sub.CredentialID != nil {
			if err := uc.pool.Reclaim(ctx, tx, *sub.CredentialID); err != nil {
				return err
			}
		}
		sub.Expire()
		return uc.subs.Save(ctx, tx, sub)
	}, repository.ColCredentials, repository.ColSubscriptions)
}

// WarnExpiring returns active subscriptions lapsing within the window that
// have not been warned yet, marking each so it is returned only once.
func (uc *SubscriptionUseCase) WarnExpiring(ctx context.Context, window time.Duration) ([]*model.Subscription, error) {
	now := time.Now()
	var expiring []*model.Subscription
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		active, err := uc.subs.ListActive(ctx, tx)
		if err != nil {
			return err
		}
		for _, s := range active {
			if !s.ExpiringWithin(now, window) {
				continue
			}
			s.ExpiryWarned = true
			if err := uc.subs.Save(ctx, tx, s); err != nil {
				return err
			}
			expiring = append(expiring, s)
		}
		return nil
	}, repository.ColSubscriptions)
	return expiring, err
}
