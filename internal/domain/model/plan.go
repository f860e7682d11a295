package model

import "time"

// Plan is one subscription tier from the immutable catalog built at startup.
// Each plan owns its own credential pool. Prices are stored in cents to avoid
// float arithmetic on money.
type Plan struct {
	ID            string
	Name          string
	DurationDays  int
	RegularPrice  int64 // cents
	FirstBuyPrice int64 // cents; 0 means no first-purchase discount
}

func (p *Plan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}

// PriceFor returns the price to charge a user, before seasonal/referral/coupon
// adjustments. First-purchase pricing applies only once per user.
func (p *Plan) PriceFor(firstBuy bool) int64 {
	if firstBuy && p.FirstBuyPrice > 0 {
		return p.FirstBuyPrice
	}
	return p.RegularPrice
}

// Catalog is the set of plans keyed by plan ID.
type Catalog map[string]*Plan

func (c Catalog) Get(planID string) (*Plan, bool) {
	p, ok := c[planID]
	return p, ok
}
