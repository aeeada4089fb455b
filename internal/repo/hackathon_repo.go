// Package repo – HackathonProfile repository.
//
// Matchmaking queries live here as query composition only; the pairing rules
// themselves (who can match whom) are decided by the service layer through
// the candidate filter arguments.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dappshunt/actions-backend/internal/domain"
)

// GetProfileByDiscord fetches a profile by Discord username, matched
// case-insensitively. Returns ErrNotFound when missing.
func GetProfileByDiscord(ctx context.Context, db *gorm.DB, discordUsername string) (*domain.HackathonProfile, error) {
	var p domain.HackathonProfile
	err := db.WithContext(ctx).
		Where("LOWER(discord_username) = LOWER(?)", discordUsername).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfile fetches a profile by primary key. Returns ErrNotFound when missing.
func GetProfile(ctx context.Context, db *gorm.DB, id string) (*domain.HackathonProfile, error) {
	var p domain.HackathonProfile
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile inserts a new unmatched profile.
func CreateProfile(ctx context.Context, db *gorm.DB, discordUsername, skill, lookingFor string) (*domain.HackathonProfile, error) {
	p := &domain.HackathonProfile{
		ID:              uuid.NewString(),
		DiscordUsername: discordUsername,
		Skill:           skill,
		LookingFor:      lookingFor,
		MatchStatus:     domain.MatchUnmatched,
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProfilePrefs overwrites a profile's skill preferences and resets it to
// Unmatched with no partner, so a re-submission re-enters the matching pool.
func UpdateProfilePrefs(ctx context.Context, db *gorm.DB, id, skill, lookingFor string) error {
	return db.WithContext(ctx).
		Model(&domain.HackathonProfile{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"skill":        skill,
			"looking_for":  lookingFor,
			"partner_id":   "",
			"match_status": domain.MatchUnmatched,
		}).Error
}

// FindMatchCandidate returns the first unmatched profile compatible with the
// given preferences, or ErrNotFound. Compatibility is bidirectional: the
// candidate offers what the seeker wants and wants what the seeker offers,
// with "Any" acting as a wildcard on either side.
func FindMatchCandidate(ctx context.Context, db *gorm.DB, discordUsername, skill, lookingFor string) (*domain.HackathonProfile, error) {
	var p domain.HackathonProfile
	err := db.WithContext(ctx).
		Where("LOWER(discord_username) != LOWER(?)", discordUsername).
		Where("(skill = ? OR skill = 'Any' OR ? = 'Any')", lookingFor, lookingFor).
		Where("(looking_for = ? OR looking_for = 'Any' OR ? = 'Any')", skill, skill).
		Where("partner_id = '' AND match_status = ?", domain.MatchUnmatched).
		Order("created_at asc").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LinkPartners marks two profiles as matched with each other. Runs in a
// transaction so a half-linked pair cannot be observed.
func LinkPartners(ctx context.Context, db *gorm.DB, id1, id2 string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.HackathonProfile{}).
			Where("id = ?", id1).
			Updates(map[string]any{"partner_id": id2, "match_status": domain.MatchMatched}).Error; err != nil {
			return err
		}
		return tx.Model(&domain.HackathonProfile{}).
			Where("id = ?", id2).
			Updates(map[string]any{"partner_id": id1, "match_status": domain.MatchMatched}).Error
	})
}
