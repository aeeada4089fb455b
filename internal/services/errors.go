// Package services defines the business logic for coupon issuance and
// redemption, payment verification, wallet analysis, job-board submissions,
// and hackathon matchmaking. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler/session layer.
package services

import "errors"

// Input validation errors. These are reported at the boundary and never retried.
var (
	// ErrInvalidAccount is returned for a malformed base58 wallet address.
	ErrInvalidAccount = errors.New("invalid account address")

	// ErrInvalidCode is returned when a coupon code does not have the
	// 12-character uppercase alphanumeric shape.
	ErrInvalidCode = errors.New("invalid coupon code format")

	// ErrInvalidSignature is returned for a malformed transaction signature.
	ErrInvalidSignature = errors.New("invalid transaction signature")

	// ErrInvalidProfileLink is returned when a job submission's profile URL is
	// neither a Superteam Earn nor a GitHub profile.
	ErrInvalidProfileLink = errors.New("invalid profile link")

	// ErrInvalidMatchInput is returned when hackathon input does not parse as
	// skill:discord:find:skill.
	ErrInvalidMatchInput = errors.New("invalid matchmaking input")
)

// Coupon lifecycle errors.
var (
	// ErrCouponNotFound indicates the code has no matching record.
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrCouponUsed indicates the coupon was already redeemed. Reported
	// distinctly from not-found so the user understands why redemption failed.
	ErrCouponUsed = errors.New("coupon already used")

	// ErrCouponExpired indicates the coupon's expiry bound has lapsed.
	ErrCouponExpired = errors.New("coupon expired")

	// ErrExhaustedRetries indicates code generation could not find a unique
	// candidate within the attempt bound. Fatal for that issuance call; no
	// partial write occurs.
	ErrExhaustedRetries = errors.New("could not generate a unique coupon code")
)

// ErrVerificationFailed indicates the payment transaction does not match the
// expected recipient/amount/payer, or was not found on the ledger. Callers may
// treat it as transient (not yet confirmed) and prompt a retry.
var ErrVerificationFailed = errors.New("payment verification failed")

// ErrProfileExists indicates a job-board submission already exists for the
// wallet address.
var ErrProfileExists = errors.New("profile already exists for this wallet address")
