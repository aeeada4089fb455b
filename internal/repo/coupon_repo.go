// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Coupon model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a coupon is not found, functions return ErrNotFound
//     (aliasing gorm.ErrRecordNotFound).
//   - CreateCoupon maps a unique-index violation on Code to ErrDuplicateCode
//     so the issuance service can regenerate instead of failing hard.
//   - On other DB errors (connectivity, constraint issues), the raw gorm
//     error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dappshunt/actions-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicateCode indicates the unique index on coupons.code rejected an
// insert. The issuance retry loop treats this as a recoverable collision.
var ErrDuplicateCode = errors.New("coupon code already exists")

// CountCouponsByCode returns how many coupon rows carry the given code,
// counting every status and soft-deleted rows too. The uniqueness check must
// see Used and Expired codes so a code is never reissued.
func CountCouponsByCode(ctx context.Context, db *gorm.DB, code string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Unscoped().
		Model(&domain.Coupon{}).
		Where("code = ?", code).
		Count(&n).Error
	return n, err
}

// CreateCoupon inserts a new Pending coupon with the given code, owner account
// and optional expiry bound. The coupon ID is a randomly generated UUID and
// CreatedAt is set to UTC. A unique-index violation on Code is mapped to
// ErrDuplicateCode.
func CreateCoupon(ctx context.Context, db *gorm.DB, code, userAccount string, expiresAt *time.Time) (*domain.Coupon, error) {
	c := &domain.Coupon{
		ID:          uuid.NewString(),
		Code:        code,
		Status:      domain.CouponPending,
		UserAccount: userAccount,
		CreatedAt:   time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return c, nil
}

// GetCouponByCode fetches a single coupon by its exact code. If the record
// does not exist, it returns ErrNotFound. On other DB errors, the raw error
// is returned.
func GetCouponByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := db.WithContext(ctx).
		Where("code = ?", code).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// LatestPendingCouponByAccount returns the most recently issued Pending
// coupon for the given wallet address, or ErrNotFound.
func LatestPendingCouponByAccount(ctx context.Context, db *gorm.DB, userAccount string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := db.WithContext(ctx).
		Where("user_account = ? AND status = ?", userAccount, domain.CouponPending).
		Order("created_at desc").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ActivateCoupon transitions a Pending coupon to Active, recording the payment
// signature and activation time. The status guard keeps the transition
// one-directional; if no row matched (missing coupon or not Pending), it
// returns ErrNotFound and the caller decides how to report it.
func ActivateCoupon(ctx context.Context, db *gorm.DB, id, signature string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Coupon{}).
		Where("id = ? AND status = ?", id, domain.CouponPending).
		Updates(map[string]any{
			"status":       domain.CouponActive,
			"signature":    signature,
			"activated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkCouponUsed transitions a Pending or Active coupon to the terminal Used
// state, recording the payment signature and use time. A coupon already Used
// (or Expired) matches no row and yields ErrNotFound, which keeps the
// operation idempotent: a second redemption attempt cannot re-trigger it.
func MarkCouponUsed(ctx context.Context, db *gorm.DB, id, signature string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Coupon{}).
		Where("id = ? AND status IN ?", id, []string{domain.CouponPending, domain.CouponActive}).
		Updates(map[string]any{
			"status":    domain.CouponUsed,
			"signature": signature,
			"used_at":   at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkCouponExpired stamps the Expired status on a Pending or Active coupon
// whose expiry bound has lapsed. Losing the race is harmless: expiry is also
// enforced logically at read time.
func MarkCouponExpired(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Model(&domain.Coupon{}).
		Where("id = ? AND status IN ?", id, []string{domain.CouponPending, domain.CouponActive}).
		Update("status", domain.CouponExpired).Error
}

// isUniqueViolation attempts to detect unique-constraint violations across
// drivers that may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "constraint failed: unique") ||
		strings.Contains(msg, "duplicate key")
}
