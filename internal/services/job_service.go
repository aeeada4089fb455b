// Package services – JobService
//
// Job-board submissions: a developer submits a Superteam Earn or GitHub
// profile link tied to their wallet address. One submission per wallet.
package services

import (
	"context"
	"errors"
	"regexp"

	"gorm.io/gorm"

	"github.com/dappshunt/actions-backend/internal/domain"
	"github.com/dappshunt/actions-backend/internal/repo"
)

var (
	superteamProfileRE = regexp.MustCompile(`^https://earn\.superteam\.fun/t/([a-zA-Z0-9_-]+)/?$`)
	githubProfileRE    = regexp.MustCompile(`^https://github\.com/([a-zA-Z0-9_-]+)/?$`)
)

// JobService stores developer profile submissions.
type JobService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// Submit validates the profile link, rejects duplicate wallets, and persists
// the submission.
//
// Errors:
//   - ErrInvalidProfileLink when the URL is neither a Superteam Earn profile
//     (https://earn.superteam.fun/t/<user>) nor a GitHub profile
//     (https://github.com/<user>);
//   - ErrProfileExists when the wallet already has a submission.
func (s *JobService) Submit(ctx context.Context, walletAddress, profileLink string) (*domain.JobSubmission, error) {
	var superteam, github string
	if m := superteamProfileRE.FindStringSubmatch(profileLink); m != nil {
		superteam = m[1]
	} else if m := githubProfileRE.FindStringSubmatch(profileLink); m != nil {
		github = m[1]
	} else {
		return nil, ErrInvalidProfileLink
	}

	exists, err := repo.HasJobSubmission(ctx, s.DB, walletAddress)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrProfileExists
	}

	sub, err := repo.CreateJobSubmission(ctx, s.DB, walletAddress, superteam, github)
	if errors.Is(err, repo.ErrDuplicateSubmission) {
		return nil, ErrProfileExists
	}
	return sub, err
}
