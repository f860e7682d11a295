package model

import (
	"time"

	"github.com/google/uuid"
)

// SeasonalDiscount is a time-boxed percent discount applied to every purchase
// of the plans it covers. The best applicable one wins; they do not stack.
type SeasonalDiscount struct {
	ID              string    `json:"id"`
	Percent         int64     `json:"percent"`
	ExpiresAt       time.Time `json:"expires_at"`
	ApplicablePlans []string  `json:"applicable_plans,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewSeasonalDiscount(percent int64, expiresAt time.Time, plans []string) *SeasonalDiscount {
	if percent < 1 {
		percent = 1
	}
	if percent > 100 {
		percent = 100
	}
	return &SeasonalDiscount{
		ID:              uuid.NewString(),
		Percent:         percent,
		ExpiresAt:       expiresAt,
		ApplicablePlans: plans,
		CreatedAt:       time.Now(),
	}
}

// Active reports whether the discount applies to planID at the given time.
func (d *SeasonalDiscount) Active(now time.Time, planID string) bool {
	if !d.ExpiresAt.IsZero() && now.After(d.ExpiresAt) {
		return false
	}
	return len(d.ApplicablePlans) == 0 || contains(d.ApplicablePlans, planID)
}

// Settings is the single mutable operational record (the settings collection
// holds exactly one of these under a fixed key).
type Settings struct {
	SalesEnabled      bool                         `json:"sales_enabled"`
	SeasonalDiscounts map[string]*SeasonalDiscount `json:"seasonal_discounts,omitempty"`
}

func DefaultSettings() *Settings {
	return &Settings{SalesEnabled: true}
}
