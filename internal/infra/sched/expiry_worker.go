package sched

import (
	"context"
	"time"

	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/infra/metrics"
	"telegram-credential-broker/internal/usecase"

	"github.com/rs/zerolog"
)

// Notifier is how the workers reach users and admins. The Telegram adapter
// implements it; a nil-safe no-op is used in tests.
type Notifier interface {
	NotifySubscriptionExpired(ctx context.Context, sub *model.Subscription)
	NotifySubscriptionExpiring(ctx context.Context, sub *model.Subscription)
	NotifyPaymentReaped(ctx context.Context, p *model.Payment)
	NotifyAdminsLowAvailability(ctx context.Context, counts map[string]int)
}

// ExpiryWorker runs the lifecycle sweep on a ticker: expire lapsed
// subscriptions (returning their credentials to the pool), warn users whose
// subscriptions lapse soon, and alert admins when the pool runs low. The
// low-availability alert is observational; it never suspends sales by
// itself.
type ExpiryWorker struct {
	interval      time.Duration
	warnWindow    time.Duration
	lowThreshold  int
	subUC         *usecase.SubscriptionUseCase
	poolUC        *usecase.PoolUseCase
	notifier      Notifier
	log           *zerolog.Logger
	lowAlertedAt  time.Time
	lowAlertEvery time.Duration
}

func NewExpiryWorker(interval, warnWindow time.Duration, lowThreshold int, subUC *usecase.SubscriptionUseCase, poolUC *usecase.PoolUseCase, notifier Notifier, logger *zerolog.Logger) *ExpiryWorker {
	l := logger.With().Str("component", "ExpiryWorker").Logger()
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpiryWorker{
		interval:      interval,
		warnWindow:    warnWindow,
		lowThreshold:  lowThreshold,
		subUC:         subUC,
		poolUC:        poolUC,
		notifier:      notifier,
		log:           &l,
		lowAlertEvery: time.Hour,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting expiry worker")
	// One sweep at startup, then on every tick.
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	expired, err := w.subUC.SweepExpired(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("expiry sweep failed")
	}
	for _, s := range expired {
		if w.notifier != nil {
			w.notifier.NotifySubscriptionExpired(ctx, s)
		}
	}

	if w.warnWindow > 0 {
		expiring, err := w.subUC.WarnExpiring(ctx, w.warnWindow)
		if err != nil {
			w.log.Error().Err(err).Msg("expiry warning pass failed")
		}
		for _, s := range expiring {
			if w.notifier != nil {
				w.notifier.NotifySubscriptionExpiring(ctx, s)
			}
		}
	}

	w.checkAvailability(ctx)
}

func (w *ExpiryWorker) checkAvailability(ctx context.Context) {
	counts, err := w.poolUC.AvailableCounts(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("pool count failed")
		return
	}
	metrics.SetPoolAvailable(counts)

	if w.lowThreshold <= 0 {
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total >= w.lowThreshold {
		w.lowAlertedAt = time.Time{}
		return
	}

	// Re-alert at most once per lowAlertEvery while the pool stays low.
	if !w.lowAlertedAt.IsZero() && time.Since(w.lowAlertedAt) < w.lowAlertEvery {
		return
	}
	w.lowAlertedAt = time.Now()
	w.log.Warn().Int("available", total).Int("threshold", w.lowThreshold).Msg("credential pool running low")
	if w.notifier != nil {
		w.notifier.NotifyAdminsLowAvailability(ctx, counts)
	}
}
