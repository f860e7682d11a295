package model

import (
	"time"

	"telegram-credential-broker/internal/domain"

	"github.com/google/uuid"
)

// User is a domain entity representing a Telegram user in our system.
// Users are never deleted, only banned (which deactivates their access).
type User struct {
	ID           string `json:"id"`
	TelegramID   int64  `json:"telegram_id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
	LastActiveAt time.Time `json:"last_active_at"`

	Banned    bool       `json:"banned"`
	BanReason string     `json:"ban_reason,omitempty"`
	BannedAt  *time.Time `json:"banned_at,omitempty"`

	// ReferredBy holds the internal ID of the user that referred this one,
	// empty if the user signed up without a referral link.
	ReferredBy string `json:"referred_by,omitempty"`
	// FirstBuyDone flips when the user's first payment is approved; it gates
	// both first-purchase pricing and the referral credit.
	FirstBuyDone        bool `json:"first_buy_done"`
	SuccessfulReferrals int  `json:"successful_referrals"`
}

func NewUser(id string, tgID int64, username, firstName string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:           id,
		TelegramID:   tgID,
		Username:     username,
		FirstName:    firstName,
		RegisteredAt: now,
		LastActiveAt: now,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.LastActiveAt = time.Now() }

func (u *User) Ban(reason string) {
	now := time.Now()
	u.Banned = true
	u.BanReason = reason
	u.BannedAt = &now
}

func (u *User) Unban() {
	u.Banned = false
	u.BanReason = ""
	u.BannedAt = nil
}
