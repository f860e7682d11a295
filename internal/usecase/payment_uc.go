package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/domain/ports/repository"
	"telegram-credential-broker/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// ApprovalResult carries everything the transports need after an approval:
// the credential to deliver, and whether the referrer just earned a free
// month.
type ApprovalResult struct {
	Payment      *model.Payment
	Subscription *model.Subscription
	Credential   *model.Credential

	// FreeMonthReferrer is set when this approval pushed the referrer over a
	// free-month milestone; transports notify that user.
	FreeMonthReferrer *model.User
}

// PaymentUseCase drives the payment state machine. A payment starts pending
// and ends approved or rejected exactly once; approval is the single point
// where a credential is allocated, the subscription activated, the coupon
// redeemed and the referral credited, all in one transaction.
type PaymentUseCase struct {
	payments repository.PaymentRepository
	subs     repository.SubscriptionRepository
	users    repository.UserRepository
	coupons  repository.CouponRepository

	pool     *PoolUseCase
	pricing  *PricingUseCase
	referral *ReferralUseCase

	catalog model.Catalog
	tm      repository.TxRunner
	log     *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	coupons repository.CouponRepository,
	pool *PoolUseCase,
	pricing *PricingUseCase,
	referral *ReferralUseCase,
	catalog model.Catalog,
	tm repository.TxRunner,
	logger *zerolog.Logger,
) *PaymentUseCase {
	l := logger.With().Str("component", "payments").Logger()
	return &PaymentUseCase{
		payments: payments,
		subs:     subs,
		users:    users,
		coupons:  coupons,
		pool:     pool,
		pricing:  pricing,
		referral: referral,
		catalog:  catalog,
		tm:       tm,
		log:      &l,
	}
}

// Create opens a pending payment for the user and plan. It refuses when the
// user is banned, sales are suspended, the plan is unknown, or the user
// already has an open payment.
func (uc *PaymentUseCase) Create(ctx context.Context, userID, planID, couponCode string) (*model.Payment, error) {
	plan, ok := uc.catalog.Get(planID)
	if !ok {
		return nil, fmt.Errorf("plan %q: %w", planID, domain.ErrNotFound)
	}

	var payment *model.Payment
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		user, err := uc.users.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user.Banned {
			return domain.ErrUserBanned
		}

		settings, err := uc.pricing.settings.Get(ctx, tx)
		if err != nil {
			return err
		}
		if !settings.SalesEnabled {
			return domain.ErrSalesSuspended
		}

		if _, err := uc.payments.FindPendingByUser(ctx, tx, userID); err == nil {
			return domain.ErrPendingPayment
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		quote, err := uc.pricing.QuoteTx(ctx, tx, user, plan, couponCode)
		if err != nil {
			return err
		}

		payment, err = model.NewPayment(userID, planID, quote.BaseAmount, quote.Amount, couponCode)
		if err != nil {
			return err
		}
		return uc.payments.Save(ctx, tx, payment)
	}, repository.ColPayments, repository.ColUsers, repository.ColCoupons, repository.ColSettings)
	if err != nil {
		return nil, err
	}

	metrics.IncPayments("pending")
	uc.log.Info().
		Str("payment_id", payment.ID).
		Str("user_id", userID).
		Str("plan", planID).
		Int64("amount", payment.Amount).
		Msg("payment created")
	return payment, nil
}

// Approve settles a pending payment. In one transaction it allocates the
// oldest available credential, activates (or reuses and re-arms) the
// subscription, marks the payment approved, redeems the coupon and credits
// the referrer. Any failure, including an exhausted pool or a coupon at its
// limit, leaves the payment pending and the pool untouched.
func (uc *PaymentUseCase) Approve(ctx context.Context, paymentID string) (*ApprovalResult, error) {
	res := &ApprovalResult{}
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		payment, err := uc.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if !payment.Pending() {
			return domain.ErrInvalidTransition
		}
		plan, ok := uc.catalog.Get(payment.PlanID)
		if !ok {
			return fmt.Errorf("plan %q: %w", payment.PlanID, domain.ErrNotFound)
		}
		user, err := uc.users.FindByID(ctx, tx, payment.UserID)
		if err != nil {
			return err
		}

		// Reuse an existing active subscription for the same plan: the renewal
		// gets a fresh credential and the old one goes back to the pool.
		sub, err := uc.subs.FindActiveByUserAndPlan(ctx, tx, payment.UserID, payment.PlanID)
		switch {
		case err == nil:
			if sub.CredentialID != nil {
				if err := uc.pool.Reclaim(ctx, tx, *sub.CredentialID); err != nil {
					return err
				}
			}
		case errors.Is(err, domain.ErrNotFound):
			sub, err = model.NewSubscription(payment.UserID, plan)
			if err != nil {
				return err
			}
		default:
			return err
		}

		cred, err := uc.pool.Allocate(ctx, tx, payment.PlanID, sub.ID)
		if err != nil {
			return err
		}
		sub.Activate(cred.ID, plan.Duration())
		if err := uc.subs.Save(ctx, tx, sub); err != nil {
			return err
		}

		if err := payment.Approve(sub.ID); err != nil {
			return err
		}
		if err := uc.payments.Save(ctx, tx, payment); err != nil {
			return err
		}

		if payment.CouponCode != "" {
			coupon, err := uc.coupons.FindByCode(ctx, tx, payment.CouponCode)
			if err != nil {
				return err
			}
			if err := coupon.Redeem(payment.UserID, time.Now()); err != nil {
				return err
			}
			if err := uc.coupons.Save(ctx, tx, coupon); err != nil {
				return err
			}
		}

		firstApproved := !user.FirstBuyDone
		user.FirstBuyDone = true
		if err := uc.users.Save(ctx, tx, user); err != nil {
			return err
		}

		if firstApproved && user.ReferredBy != "" {
			referrer, err := uc.referral.CreditTx(ctx, tx, user, payment.Amount)
			if err != nil {
				return err
			}
			res.FreeMonthReferrer = referrer
		}

		res.Payment = payment
		res.Subscription = sub
		res.Credential = cred
		return nil
	},
		repository.ColPayments, repository.ColCredentials, repository.ColSubscriptions,
		repository.ColUsers, repository.ColCoupons, repository.ColReferrals)
	if err != nil {
		return nil, err
	}

	metrics.IncPayments("approved")
	uc.log.Info().
		Str("payment_id", paymentID).
		Str("user_id", res.Payment.UserID).
		Str("subscription_id", res.Subscription.ID).
		Str("credential_id", res.Credential.ID).
		Msg("payment approved")
	return res, nil
}

// Reject moves a pending payment to rejected. Nothing else changes; no
// credential was ever held.
func (uc *PaymentUseCase) Reject(ctx context.Context, paymentID, reason string) (*model.Payment, error) {
	var payment *model.Payment
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		payment, err = uc.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if err := payment.Reject(reason); err != nil {
			return err
		}
		return uc.payments.Save(ctx, tx, payment)
	}, repository.ColPayments)
	if err != nil {
		return nil, err
	}

	metrics.IncPayments("rejected")
	uc.log.Info().
		Str("payment_id", paymentID).
		Str("reason", reason).
		Msg("payment rejected")
	return payment, nil
}

// ReapStale rejects pending payments older than ttl and returns them so the
// transports can notify their owners. Each payment is settled in its own
// transaction so one bad record cannot wedge the sweep.
func (uc *PaymentUseCase) ReapStale(ctx context.Context, ttl time.Duration) ([]*model.Payment, error) {
	cutoff := time.Now().Add(-ttl)

	var stale []*model.Payment
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		stale, err = uc.payments.ListPendingOlderThan(ctx, tx, cutoff)
		return err
	}, repository.ColPayments)
	if err != nil {
		return nil, err
	}

	var reaped []*model.Payment
	for _, p := range stale {
		payment, err := uc.Reject(ctx, p.ID, "payment window expired")
		if err != nil {
			// Already settled by an admin in the meantime; skip it.
			if errors.Is(err, domain.ErrInvalidTransition) {
				continue
			}
			uc.log.Error().Err(err).Str("payment_id", p.ID).Msg("reap failed")
			continue
		}
		reaped = append(reaped, payment)
	}
	if len(reaped) > 0 {
		metrics.AddPaymentsReaped(len(reaped))
		uc.log.Info().Int("count", len(reaped)).Msg("stale payments reaped")
	}
	return reaped, nil
}

// Find returns a payment by ID.
func (uc *PaymentUseCase) Find(ctx context.Context, paymentID string) (*model.Payment, error) {
	var payment *model.Payment
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		payment, err = uc.payments.FindByID(ctx, tx, paymentID)
		return err
	}, repository.ColPayments)
	return payment, err
}

// ListPending returns every open payment, for the admin review queue.
func (uc *PaymentUseCase) ListPending(ctx context.Context) ([]*model.Payment, error) {
	var pending []*model.Payment
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		pending, err = uc.payments.ListPending(ctx, tx)
		return err
	}, repository.ColPayments)
	return pending, err
}
