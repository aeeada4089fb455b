// Package domain defines the persistence models for coupons, job-board
// submissions, and hackathon matchmaking profiles. These types are mapped
// with GORM and form the core data layer of the actions backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Coupon status values. Transitions are monotonic and one-directional:
// Pending → Active → Used, or Pending/Active → Expired. A coupon is never
// deleted; expiry is a logical state resolved at read time.
const (
	CouponPending = "Pending"
	CouponActive  = "Active"
	CouponUsed    = "Used"
	CouponExpired = "Expired"
)

// Coupon represents one purchased redemption code. The code is a 12-character
// uppercase alphanumeric string derived from hashed random bytes and must be
// unique across all records, including Used and Expired ones (enforced both
// by the issuance retry loop and by the unique index on Code).
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Code: the redemption code; unique-indexed.
//   - Status: Pending | Active | Used | Expired.
//   - UserAccount: wallet address expected to have paid for this coupon.
//   - Signature: ledger transaction signature proving payment, recorded when
//     the payment is verified.
//   - ExpiresAt: logical expiry bound; a lapsed coupon is invalid regardless
//     of the stored Status.
//   - ActivatedAt / UsedAt: timestamps of the respective transitions.
type Coupon struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	Code        string         `json:"code"         gorm:"type:char(12);not null;uniqueIndex:ux_coupon_code"`
	Status      string         `json:"status"       gorm:"type:varchar(16);not null;check:status IN ('Pending','Active','Used','Expired')"`
	UserAccount string         `json:"user_account" gorm:"type:varchar(64);index"`
	Signature   string         `json:"signature,omitempty" gorm:"type:varchar(128)"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	ActivatedAt *time.Time     `json:"activated_at,omitempty"`
	UsedAt      *time.Time     `json:"used_at,omitempty"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Coupon.
func (Coupon) TableName() string { return "coupons" }

// LapsedAt reports whether the coupon's expiry bound has passed at the given
// instant. Coupons without an ExpiresAt never lapse.
func (c *Coupon) LapsedAt(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// JobSubmission records one developer profile submitted through the job-board
// action. A wallet address may submit at most once (unique index).
type JobSubmission struct {
	ID                string         `json:"id"                 gorm:"type:char(36);primaryKey"`
	WalletAddress     string         `json:"wallet_address"     gorm:"type:varchar(64);not null;uniqueIndex:ux_job_wallet"`
	SuperteamUsername string         `json:"superteam_username" gorm:"type:varchar(64)"`
	GithubUsername    string         `json:"github_username"    gorm:"type:varchar(64)"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for JobSubmission.
func (JobSubmission) TableName() string { return "job_submissions" }

// Hackathon matchmaking statuses.
const (
	MatchUnmatched = "Unmatched"
	MatchMatched   = "Matched"
)

// HackathonProfile is one participant in the buddy-finder. PartnerID links two
// matched profiles symmetrically; both rows carry each other's ID and the
// Matched status once paired.
//
// Skill and LookingFor take the values Frontend, Backend, Design, or Any.
type HackathonProfile struct {
	ID              string         `json:"id"               gorm:"type:char(36);primaryKey"`
	DiscordUsername string         `json:"discord_username" gorm:"type:varchar(64);not null;uniqueIndex:ux_hack_discord"`
	Skill           string         `json:"skill"            gorm:"type:varchar(16);not null"`
	LookingFor      string         `json:"looking_for"      gorm:"type:varchar(16);not null"`
	PartnerID       string         `json:"partner_id"       gorm:"type:char(36);index"`
	MatchStatus     string         `json:"match_status"     gorm:"type:varchar(16);not null;default:'Unmatched'"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for HackathonProfile.
func (HackathonProfile) TableName() string { return "hackathon_profiles" }
