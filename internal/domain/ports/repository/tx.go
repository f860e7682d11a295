package repository

import "context"

// Tx is an opaque transaction handle. Its concrete type is defined by the
// store implementation; repositories type-assert it on their side so that
// use-case interfaces stay free of storage types.
type Tx interface{}

// Collection names. Cross-collection transactions must list collections in
// any order; the store acquires their locks in the fixed global order below
// (the position in this list) to prevent deadlock between concurrent
// approvals and the monitor's reclaim pass.
const (
	ColPayments      = "payments"
	ColCredentials   = "credentials"
	ColSubscriptions = "subscriptions"
	ColUsers         = "users"
	ColCoupons       = "coupons"
	ColReferrals     = "referrals"
	ColSettings      = "settings"
)

// LockOrder is the fixed global acquisition order for collection locks.
var LockOrder = []string{
	ColPayments,
	ColCredentials,
	ColSubscriptions,
	ColUsers,
	ColCoupons,
	ColReferrals,
	ColSettings,
}

// TxRunner executes fn inside a transaction spanning the named collections.
//
// Guarantees:
//   - transactions on the same collection are strictly serialized;
//   - transactions on disjoint collections run concurrently;
//   - if fn returns an error, no collection is modified;
//   - waiting for a lock is bounded; on timeout the call fails with
//     domain.ErrBusy and nothing is touched.
//
// Transactions must not be nested.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error, collections ...string) error
}
