// Package services – CouponService
//
// This file implements the coupon lifecycle: issuance (generate a unique code
// and persist it as Pending), payment-driven activation, validity lookup with
// lazy expiry, and the terminal redemption transition. Service-level errors
// (ErrCouponNotFound, ErrCouponUsed, ErrCouponExpired, ErrExhaustedRetries,
// ErrVerificationFailed) are returned for predictable cases so handlers and
// the redemption session can map them to user-facing results consistently.
//
// Status policy (one-directional): Pending at issuance → Active once a payment
// is verified → Used at redemption. Expiry is logical: a lapsed ExpiresAt
// invalidates the coupon at read time regardless of the stored status, and the
// stored status is stamped Expired opportunistically.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dappshunt/actions-backend/internal/codegen"
	"github.com/dappshunt/actions-backend/internal/domain"
	"github.com/dappshunt/actions-backend/internal/repo"
)

// CouponService implements issuance and redemption of coupons.
type CouponService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Verifier checks payment transactions on the ledger.
	Verifier *PaymentVerifier

	// Recipient is the wallet address payments must be sent to.
	Recipient string
	// AmountLamports is the exact payment price of one coupon.
	AmountLamports uint64
	// MaxAttempts bounds the generate-and-check loop. Values <= 0 fall back
	// to DefaultMaxAttempts.
	MaxAttempts int
	// ExpiryWindow, when positive, sets ExpiresAt = CreatedAt + ExpiryWindow
	// on issued coupons.
	ExpiryWindow time.Duration

	// Generate produces candidate codes; nil means codegen.Generate.
	// Overridable so tests can force collisions.
	Generate func() (string, error)
}

// DefaultMaxAttempts is the issuance retry bound. A 12-character hashed code
// space makes exhaustion effectively unreachable; the bound exists to fail
// fast instead of looping forever under storage faults.
const DefaultMaxAttempts = 10

// Issue creates one guaranteed-unique Pending coupon for userAccount.
//
// Algorithm: up to MaxAttempts times, generate a candidate code and check it
// against every stored record (any status, including Used and Expired). The
// first unique candidate is persisted and returned. Because the check and the
// insert are not atomic, a unique-index violation at write time is treated as
// a collision and consumes an attempt like any other. When the bound is
// exhausted, ErrExhaustedRetries is returned and nothing has been written.
func (s *CouponService) Issue(ctx context.Context, userAccount string) (*domain.Coupon, error) {
	gen := s.Generate
	if gen == nil {
		gen = codegen.Generate
	}
	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var expiresAt *time.Time
	if s.ExpiryWindow > 0 {
		t := time.Now().UTC().Add(s.ExpiryWindow)
		expiresAt = &t
	}

	for i := 0; i < attempts; i++ {
		code, err := gen()
		if err != nil {
			return nil, err
		}

		n, err := repo.CountCouponsByCode(ctx, s.DB, code)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			continue
		}

		c, err := repo.CreateCoupon(ctx, s.DB, code, userAccount, expiresAt)
		if errors.Is(err, repo.ErrDuplicateCode) {
			// Lost the check-then-write race; regenerate.
			continue
		}
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, ErrExhaustedRetries
}

// Lookup normalizes and validates a user-supplied code, then resolves it to a
// redeemable coupon.
//
// Errors:
//   - ErrInvalidCode for a malformed code;
//   - ErrCouponNotFound when no record matches;
//   - ErrCouponUsed when the coupon is already in the terminal state;
//   - ErrCouponExpired when ExpiresAt has lapsed or the status is Expired.
//     A lapsed coupon also has its stored status stamped Expired, best effort.
func (s *CouponService) Lookup(ctx context.Context, code string) (*domain.Coupon, error) {
	code = codegen.Normalize(code)
	if !codegen.Valid(code) {
		return nil, ErrInvalidCode
	}

	c, err := repo.GetCouponByCode(ctx, s.DB, code)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	switch c.Status {
	case domain.CouponUsed:
		return nil, ErrCouponUsed
	case domain.CouponExpired:
		return nil, ErrCouponExpired
	}
	if c.LapsedAt(time.Now().UTC()) {
		_ = repo.MarkCouponExpired(ctx, s.DB, c.ID)
		return nil, ErrCouponExpired
	}
	return c, nil
}

// Redeem verifies the payment behind signature and moves the coupon with the
// given code to Used.
//
// The expected payer is wallet when provided, otherwise the coupon's recorded
// owner account (when the coupon was issued without an owner, the payer check
// is skipped). Verification failures leave the coupon untouched. A concurrent
// redemption losing the status-guarded update is reported as ErrCouponUsed,
// so the reward is never delivered twice for one coupon.
func (s *CouponService) Redeem(ctx context.Context, code, wallet, signature string) (*domain.Coupon, error) {
	c, err := s.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	payer := wallet
	if payer == "" {
		payer = c.UserAccount
	}
	if _, err := s.Verifier.Verify(ctx, signature, s.Recipient, s.AmountLamports, payer); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := repo.MarkCouponUsed(ctx, s.DB, c.ID, signature, now); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCouponUsed
		}
		return nil, err
	}

	c.Status = domain.CouponUsed
	c.Signature = signature
	c.UsedAt = &now
	return c, nil
}

// ActivateOnPayment verifies a payment transaction and activates the payer's
// most recent Pending coupon, recording the signature. When the payer has no
// Pending coupon (payment made before any issuance, e.g. via the webhook
// variant), a fresh coupon is issued and activated in its place. Returns the
// Active coupon.
func (s *CouponService) ActivateOnPayment(ctx context.Context, signature string) (*domain.Coupon, error) {
	detail, err := s.Verifier.Verify(ctx, signature, s.Recipient, s.AmountLamports, "")
	if err != nil {
		return nil, err
	}

	// Account 0 is the fee payer, which for a simple transfer is the source.
	payer := ""
	if len(detail.AccountKeys) > 0 {
		payer = detail.AccountKeys[0]
	}

	now := time.Now().UTC()
	c, err := repo.LatestPendingCouponByAccount(ctx, s.DB, payer)
	if errors.Is(err, repo.ErrNotFound) {
		if c, err = s.Issue(ctx, payer); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if err := repo.ActivateCoupon(ctx, s.DB, c.ID, signature, now); err != nil {
		return nil, err
	}
	c.Status = domain.CouponActive
	c.Signature = signature
	c.ActivatedAt = &now
	return c, nil
}
