// Package services – MatchService
//
// Hackathon buddy matchmaking. Input arrives as one string in the form
// "yourskill:discordusername:find:desiredskill". A profile enters (or
// re-enters) the pool, and the first stored unmatched profile whose offer and
// demand are bidirectionally compatible becomes the partner; both rows are
// linked symmetrically.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/dappshunt/actions-backend/internal/domain"
	"github.com/dappshunt/actions-backend/internal/repo"
)

// MatchProfile is a parsed matchmaking request.
type MatchProfile struct {
	DiscordUsername string
	Skill           string
	LookingFor      string
}

var validSkills = map[string]bool{
	"Frontend": true,
	"Backend":  true,
	"Design":   true,
	"Any":      true,
}

// ParseMatchInput parses "skill:discord:find:skill" into a MatchProfile.
// Skills are normalized to their capitalized form; the third segment must be
// the literal "find". Returns ErrInvalidMatchInput for anything else.
func ParseMatchInput(input string) (*MatchProfile, error) {
	parts := strings.Split(input, ":")
	if len(parts) != 4 {
		return nil, ErrInvalidMatchInput
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if !strings.EqualFold(parts[2], "find") {
		return nil, ErrInvalidMatchInput
	}

	skill := capitalize(parts[0])
	lookingFor := capitalize(parts[3])
	if parts[1] == "" || !validSkills[skill] || !validSkills[lookingFor] {
		return nil, ErrInvalidMatchInput
	}

	return &MatchProfile{
		DiscordUsername: parts[1],
		Skill:           skill,
		LookingFor:      lookingFor,
	}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// MatchService pairs hackathon participants.
type MatchService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// FindBuddy stores or refreshes the participant's profile and attempts to
// pair it with a compatible unmatched profile. It returns the user-facing
// result message.
//
// Semantics:
//   - A participant who already has a partner is told who it is; nothing
//     changes.
//   - An existing unmatched participant has their preferences overwritten and
//     re-enters the pool.
//   - When a compatible candidate exists, both profiles are linked
//     symmetrically and the partner is announced; otherwise the participant
//     stays in the pool awaiting a future match.
func (s *MatchService) FindBuddy(ctx context.Context, p MatchProfile) (string, error) {
	self, err := repo.GetProfileByDiscord(ctx, s.DB, p.DiscordUsername)
	switch {
	case err == nil:
		if self.MatchStatus == domain.MatchMatched && self.PartnerID != "" {
			partner, err := repo.GetProfile(ctx, s.DB, self.PartnerID)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("You already have a match! Your hackathon buddy is %s (%s).",
				partner.DiscordUsername, partner.Skill), nil
		}
		if err := repo.UpdateProfilePrefs(ctx, s.DB, self.ID, p.Skill, p.LookingFor); err != nil {
			return "", err
		}
	case errors.Is(err, repo.ErrNotFound):
		if self, err = repo.CreateProfile(ctx, s.DB, p.DiscordUsername, p.Skill, p.LookingFor); err != nil {
			return "", err
		}
	default:
		return "", err
	}

	candidate, err := repo.FindMatchCandidate(ctx, s.DB, p.DiscordUsername, p.Skill, p.LookingFor)
	if errors.Is(err, repo.ErrNotFound) {
		return "No match found yet. We've added you to our database and will notify you when a match is found.", nil
	}
	if err != nil {
		return "", err
	}

	if err := repo.LinkPartners(ctx, s.DB, self.ID, candidate.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Match found! Your hackathon buddy is %s (%s).",
		candidate.DiscordUsername, candidate.Skill), nil
}
