// Package repo – JobSubmission repository.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dappshunt/actions-backend/internal/domain"
)

// ErrDuplicateSubmission indicates a wallet address already has a job-board
// submission on file.
var ErrDuplicateSubmission = errors.New("submission already exists for wallet")

// HasJobSubmission reports whether a submission exists for the wallet address.
func HasJobSubmission(ctx context.Context, db *gorm.DB, walletAddress string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.JobSubmission{}).
		Where("wallet_address = ?", walletAddress).
		Count(&n).Error
	return n > 0, err
}

// CreateJobSubmission inserts a new submission row. A unique-index violation
// on the wallet address is mapped to ErrDuplicateSubmission.
func CreateJobSubmission(ctx context.Context, db *gorm.DB, walletAddress, superteamUsername, githubUsername string) (*domain.JobSubmission, error) {
	s := &domain.JobSubmission{
		ID:                uuid.NewString(),
		WalletAddress:     walletAddress,
		SuperteamUsername: superteamUsername,
		GithubUsername:    githubUsername,
		CreatedAt:         time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSubmission
		}
		return nil, err
	}
	return s, nil
}
