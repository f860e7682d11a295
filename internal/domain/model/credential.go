package model

import (
	"crypto/rand"
	"time"

	"telegram-credential-broker/internal/domain"

	"github.com/oklog/ulid/v2"
)

type CredentialStatus string

const (
	CredentialStatusAvailable CredentialStatus = "available"
	CredentialStatusAssigned  CredentialStatus = "assigned"
)

// Credential is one shared login in a plan's pool, usable by a single active
// subscriber at a time.
//
// Credential IDs are ULIDs: their lexicographic order is their creation
// order, which is what the allocator sorts by to hand out the oldest
// available credential first.
//
// Invariant: SubscriptionID is non-nil exactly while Status is assigned, and
// no two active subscriptions ever reference the same credential.
type Credential struct {
	ID             string           `json:"id"`
	PlanID         string           `json:"plan_id"`
	Username       string           `json:"username"`
	Password       string           `json:"password"`
	Notes          string           `json:"notes,omitempty"`
	Status         CredentialStatus `json:"status"`
	SubscriptionID *string          `json:"subscription_id,omitempty"`
	AddedAt        time.Time        `json:"added_at"`
}

func NewCredential(planID, username, password, notes string) (*Credential, error) {
	if planID == "" || username == "" || password == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Credential{
		ID:       ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		PlanID:   planID,
		Username: username,
		Password: password,
		Notes:    notes,
		Status:   CredentialStatusAvailable,
		AddedAt:  now,
	}, nil
}

func (c *Credential) Assign(subscriptionID string) {
	c.Status = CredentialStatusAssigned
	c.SubscriptionID = &subscriptionID
}

func (c *Credential) Release() {
	c.Status = CredentialStatusAvailable
	c.SubscriptionID = nil
}

func (c *Credential) Available() bool { return c.Status == CredentialStatusAvailable }
