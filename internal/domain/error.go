package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Pool and payment lifecycle
	ErrPoolExhausted     = errors.New("no credential available for plan")
	ErrInvalidTransition = errors.New("invalid payment state transition")
	ErrPendingPayment    = errors.New("user already has a pending payment")
	ErrSalesSuspended    = errors.New("sales are currently suspended")
	ErrUserBanned        = errors.New("user is banned")

	// Coupons
	ErrInvalidCoupon      = errors.New("coupon not found or not applicable")
	ErrCouponExpired      = errors.New("coupon has expired")
	ErrCouponLimitReached = errors.New("coupon reached its usage limit")
	ErrBelowMinPurchase   = errors.New("amount below coupon minimum purchase")
	ErrDuplicateCode      = errors.New("coupon code already exists")

	// Store
	ErrBusy = errors.New("collection is busy, try again")
)
