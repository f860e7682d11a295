package usecase

import (
	"context"

	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Stats is the admin dashboard snapshot.
type Stats struct {
	Users               int            `json:"users"`
	BannedUsers         int            `json:"banned_users"`
	ActiveSubscriptions int            `json:"active_subscriptions"`
	PendingPayments     int            `json:"pending_payments"`
	AvailableByPlan     map[string]int `json:"available_by_plan"`
}

// StatsUseCase aggregates counts across collections for the admin panel.
type StatsUseCase struct {
	users    repository.UserRepository
	subs     repository.SubscriptionRepository
	payments repository.PaymentRepository
	creds    repository.CredentialRepository
	tm       repository.TxRunner
	log      *zerolog.Logger
}

func NewStatsUseCase(users repository.UserRepository, subs repository.SubscriptionRepository, payments repository.PaymentRepository, creds repository.CredentialRepository, tm repository.TxRunner, logger *zerolog.Logger) *StatsUseCase {
	l := logger.With().Str("component", "stats").Logger()
	return &StatsUseCase{users: users, subs: subs, payments: payments, creds: creds, tm: tm, log: &l}
}

// Snapshot reads all counts in one transaction so the numbers are mutually
// consistent.
func (uc *StatsUseCase) Snapshot(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		users, err := uc.users.List(ctx, tx)
		if err != nil {
			return err
		}
		stats.Users = len(users)
		for _, u := range users {
			if u.Banned {
				stats.BannedUsers++
			}
		}

		active, err := uc.subs.ListActive(ctx, tx)
		if err != nil {
			return err
		}
		stats.ActiveSubscriptions = countActive(active)

		pending, err := uc.payments.ListPending(ctx, tx)
		if err != nil {
			return err
		}
		stats.PendingPayments = len(pending)

		stats.AvailableByPlan, err = uc.creds.CountAvailableByPlan(ctx, tx)
		return err
	}, repository.ColPayments, repository.ColCredentials, repository.ColSubscriptions, repository.ColUsers)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func countActive(subs []*model.Subscription) int {
	n := 0
	for _, s := range subs {
		if s.IsActive() {
			n++
		}
	}
	return n
}
