package repository

import "context"

// ConversationState tracks a user's position in a multi-step bot flow (the
// purchase flow asks for a coupon after the plan is chosen). It lives in
// Redis with a TTL, never in the persistent store.
type ConversationState struct {
	Step   string `json:"step"`
	PlanID string `json:"plan_id,omitempty"`
}

const (
	StepAwaitingCoupon  = "awaiting_coupon"
	StepAwaitingReceipt = "awaiting_receipt"
)

type StateRepository interface {
	SetState(ctx context.Context, tgID int64, state *ConversationState) error
	// GetState returns domain.ErrNotFound when the user has no open flow.
	GetState(ctx context.Context, tgID int64) (*ConversationState, error)
	ClearState(ctx context.Context, tgID int64) error
}
