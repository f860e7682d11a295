package sched

import (
	"context"
	"time"

	"telegram-credential-broker/internal/usecase"

	"github.com/rs/zerolog"
)

// PaymentReaper periodically rejects payments that stayed pending past the
// timeout, so abandoned purchases do not pile up in the admin queue. This
// also covers callbacks lost to a crash mid-approval: the payment simply
// times out and the user retries.
type PaymentReaper struct {
	interval   time.Duration
	pendingTTL time.Duration
	payUC      *usecase.PaymentUseCase
	notifier   Notifier
	log        *zerolog.Logger
}

func NewPaymentReaper(interval, pendingTTL time.Duration, payUC *usecase.PaymentUseCase, notifier Notifier, logger *zerolog.Logger) *PaymentReaper {
	l := logger.With().Str("component", "PaymentReaper").Logger()
	if interval <= 0 {
		interval = time.Minute
	}
	if pendingTTL <= 0 {
		pendingTTL = 10 * time.Minute
	}
	return &PaymentReaper{
		interval:   interval,
		pendingTTL: pendingTTL,
		payUC:      payUC,
		notifier:   notifier,
		log:        &l,
	}
}

func (w *PaymentReaper) Run(ctx context.Context) error {
	w.log.Info().Dur("pending_ttl", w.pendingTTL).Msg("starting payment reaper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping payment reaper")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReaper) tick(ctx context.Context) {
	reaped, err := w.payUC.ReapStale(ctx, w.pendingTTL)
	if err != nil {
		w.log.Error().Err(err).Msg("reap pass failed")
		return
	}
	for _, p := range reaped {
		if w.notifier != nil {
			w.notifier.NotifyPaymentReaped(ctx, p)
		}
	}
}
