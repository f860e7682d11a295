package usecase

import (
	"context"
	"time"

	"telegram-credential-broker/internal/config"
	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// ReferralUseCase manages the referral ledger: crediting referrers when the
// user they brought in makes their first purchase, and the free-month reward
// every N successful referrals.
type ReferralUseCase struct {
	entries repository.ReferralRepository
	users   repository.UserRepository
	subs    repository.SubscriptionRepository
	cfg     config.ReferralConfig
	tm      repository.TxRunner
	log     *zerolog.Logger
}

func NewReferralUseCase(entries repository.ReferralRepository, users repository.UserRepository, subs repository.SubscriptionRepository, cfg config.ReferralConfig, tm repository.TxRunner, logger *zerolog.Logger) *ReferralUseCase {
	l := logger.With().Str("component", "referrals").Logger()
	return &ReferralUseCase{entries: entries, users: users, subs: subs, cfg: cfg, tm: tm, log: &l}
}

// CreditTx credits the referrer for the referred user's first approved
// payment. It runs inside the caller's transaction, which must span the
// referrals, users and subscriptions collections.
//
// The ledger is keyed by the referred user, so calling this twice for the
// same user credits the referrer only once. When the referral count reaches
// a free-month milestone the referrer's active subscriptions are extended by
// 30 days and the referrer is returned so transports can notify them.
func (uc *ReferralUseCase) CreditTx(ctx context.Context, tx repository.Tx, referred *model.User, paidAmount int64) (*model.User, error) {
	reward := paidAmount * uc.cfg.ReferrerRewardPercent / 100
	entry, err := model.NewReferralEntry(referred.ReferredBy, referred.ID, reward)
	if err != nil {
		return nil, err
	}
	created, err := uc.entries.CreateIfAbsent(ctx, tx, entry)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil
	}

	referrer, err := uc.users.FindByID(ctx, tx, referred.ReferredBy)
	if err != nil {
		return nil, err
	}
	referrer.SuccessfulReferrals++
	if err := uc.users.Save(ctx, tx, referrer); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("referrer_id", referrer.ID).
		Str("referred_id", referred.ID).
		Int64("reward", reward).
		Msg("referral credited")

	if uc.cfg.FreeMonthAfter > 0 && referrer.SuccessfulReferrals%uc.cfg.FreeMonthAfter == 0 {
		if err := uc.grantFreeMonth(ctx, tx, referrer); err != nil {
			return nil, err
		}
		return referrer, nil
	}
	return nil, nil
}

func (uc *ReferralUseCase) grantFreeMonth(ctx context.Context, tx repository.Tx, referrer *model.User) error {
	subs, err := uc.subs.ListByUser(ctx, tx, referrer.ID)
	if err != nil {
		return err
	}
	extended := 0
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		s.Extend(30 * 24 * time.Hour)
		if err := uc.subs.Save(ctx, tx, s); err != nil {
			return err
		}
		extended++
	}
	uc.log.Info().
		Str("referrer_id", referrer.ID).
		Int("referrals", referrer.SuccessfulReferrals).
		Int("subscriptions_extended", extended).
		Msg("free month granted")
	return nil
}

// BalanceOf sums the referrer's unsettled ledger credits.
func (uc *ReferralUseCase) BalanceOf(ctx context.Context, referrerID string) (int64, error) {
	var balance int64
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		entries, err := uc.entries.ListByReferrer(ctx, tx, referrerID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if !e.Settled {
				balance += e.Amount
			}
		}
		return nil
	}, repository.ColReferrals)
	return balance, err
}

// ListByReferrer returns the referrer's ledger entries.
func (uc *ReferralUseCase) ListByReferrer(ctx context.Context, referrerID string) ([]*model.ReferralEntry, error) {
	var entries []*model.ReferralEntry
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		entries, err = uc.entries.ListByReferrer(ctx, tx, referrerID)
		return err
	}, repository.ColReferrals)
	return entries, err
}
