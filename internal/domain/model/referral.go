package model

import (
	"time"

	"telegram-credential-broker/internal/domain"

	"github.com/google/uuid"
)

// ReferralEntry is one row in the referral ledger.
//
// The ledger is keyed by the referred user's ID, so a user can only ever be
// credited once regardless of how many times the credit path runs.
type ReferralEntry struct {
	ID         string    `json:"id"`
	ReferrerID string    `json:"referrer_id"`
	ReferredID string    `json:"referred_id"`
	Amount     int64     `json:"amount"` // cents
	Settled    bool      `json:"settled"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewReferralEntry(referrerID, referredID string, amount int64) (*ReferralEntry, error) {
	if referrerID == "" || referredID == "" || referrerID == referredID {
		return nil, domain.ErrInvalidArgument
	}
	return &ReferralEntry{
		ID:         uuid.NewString(),
		ReferrerID: referrerID,
		ReferredID: referredID,
		Amount:     amount,
		CreatedAt:  time.Now(),
	}, nil
}
