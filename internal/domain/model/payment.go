package model

import (
	"time"

	"telegram-credential-broker/internal/domain"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// Payment records one purchase request. It is created pending and moves to
// exactly one of the terminal states: approved (by an admin, triggering
// credential allocation) or rejected (by an admin or the timeout reaper).
type Payment struct {
	ID     string        `json:"id"`
	UserID string        `json:"user_id"`
	PlanID string        `json:"plan_id"`
	Status PaymentStatus `json:"status"`

	// BaseAmount is the catalog price before adjustments; Amount is what the
	// user actually owes after first-buy, seasonal, referral and coupon
	// discounts. Cents.
	BaseAmount int64 `json:"base_amount"`
	Amount     int64 `json:"amount"`

	CouponCode string `json:"coupon_code,omitempty"`

	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	RejectedAt   *time.Time `json:"rejected_at,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty"`

	// SubscriptionID links the subscription activated by approval.
	SubscriptionID *string `json:"subscription_id,omitempty"`
}

func NewPayment(userID, planID string, baseAmount, amount int64, couponCode string) (*Payment, error) {
	if userID == "" || planID == "" || amount < 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Payment{
		ID:         uuid.NewString(),
		UserID:     userID,
		PlanID:     planID,
		Status:     PaymentStatusPending,
		BaseAmount: baseAmount,
		Amount:     amount,
		CouponCode: couponCode,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (p *Payment) Pending() bool { return p.Status == PaymentStatusPending }

// Approve transitions pending -> approved.
func (p *Payment) Approve(subscriptionID string) error {
	if !p.Pending() {
		return domain.ErrInvalidTransition
	}
	now := time.Now()
	p.Status = PaymentStatusApproved
	p.ApprovedAt = &now
	p.UpdatedAt = now
	p.SubscriptionID = &subscriptionID
	return nil
}

// Reject transitions pending -> rejected.
func (p *Payment) Reject(reason string) error {
	if !p.Pending() {
		return domain.ErrInvalidTransition
	}
	now := time.Now()
	p.Status = PaymentStatusRejected
	p.RejectedAt = &now
	p.RejectReason = reason
	p.UpdatedAt = now
	return nil
}

// Stale reports whether a pending payment has outlived ttl.
func (p *Payment) Stale(now time.Time, ttl time.Duration) bool {
	return p.Pending() && now.Sub(p.CreatedAt) > ttl
}
