package model

import (
	"time"

	"telegram-credential-broker/internal/domain"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription is one user's entitlement to a plan's credential.
//
// Invariant: CredentialID is non-nil exactly while Status is active.
type Subscription struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id"`
	PlanID       string             `json:"plan_id"`
	Status       SubscriptionStatus `json:"status"`
	CredentialID *string            `json:"credential_id,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	StartAt      *time.Time         `json:"start_at,omitempty"`
	ExpiresAt    *time.Time         `json:"expires_at,omitempty"`
	// ExpiryWarned is set once the monitor has flagged this subscription as
	// expiring soon, so the transport warns the user only once.
	ExpiryWarned bool `json:"expiry_warned"`
}

func NewSubscription(userID string, plan *Plan) (*Subscription, error) {
	if userID == "" || plan == nil {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscription{
		ID:        uuid.NewString(),
		UserID:    userID,
		PlanID:    plan.ID,
		Status:    SubscriptionStatusPending,
		CreatedAt: time.Now(),
	}, nil
}

// Activate links the allocated credential and starts the clock.
func (s *Subscription) Activate(credentialID string, duration time.Duration) {
	now := time.Now()
	expires := now.Add(duration)
	s.Status = SubscriptionStatusActive
	s.CredentialID = &credentialID
	s.StartAt = &now
	s.ExpiresAt = &expires
	s.ExpiryWarned = false
}

// Expire clears the credential link; the caller is responsible for reclaiming
// the credential itself under the same transaction.
func (s *Subscription) Expire() {
	s.Status = SubscriptionStatusExpired
	s.CredentialID = nil
}

// Cancel mirrors Expire for manual deactivation (admin action, ban).
func (s *Subscription) Cancel() {
	s.Status = SubscriptionStatusCancelled
	s.CredentialID = nil
}

// Extend pushes the expiry of an active subscription out by d (referral
// free-month reward).
func (s *Subscription) Extend(d time.Duration) {
	if s.Status != SubscriptionStatusActive || s.ExpiresAt == nil {
		return
	}
	extended := s.ExpiresAt.Add(d)
	s.ExpiresAt = &extended
	s.ExpiryWarned = false
}

func (s *Subscription) IsActive() bool { return s.Status == SubscriptionStatusActive }

// Due reports whether an active subscription has passed its expiry.
func (s *Subscription) Due(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// ExpiringWithin reports whether the subscription will lapse within d and has
// not been warned about yet.
func (s *Subscription) ExpiringWithin(now time.Time, d time.Duration) bool {
	if s.Status != SubscriptionStatusActive || s.ExpiresAt == nil || s.ExpiryWarned {
		return false
	}
	left := s.ExpiresAt.Sub(now)
	return left > 0 && left <= d
}
