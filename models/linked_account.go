package models

import (
	"time"

	"github.com/google/uuid"
)

// ProviderEpicGames is the provider key for Epic Games accounts
const ProviderEpicGames = "epic_games"

// LinkedAccount associates a user with a third-party identity
type LinkedAccount struct {
	UserID         uuid.UUID      `json:"-" db:"user_id"`
	Provider       string         `json:"provider" db:"provider"`
	ProviderUserID string         `json:"-" db:"provider_user_id"`
	Username       *string        `json:"username" db:"username"`
	Email          *string        `json:"email" db:"email"`
	ProfileData    map[string]any `json:"profile_data" db:"profile_data"`
	AccessToken    *string        `json:"-" db:"access_token"`
	RefreshToken   *string        `json:"-" db:"refresh_token"`
	TokenExpiresAt *time.Time     `json:"-" db:"token_expires_at"`
	LinkedAt       time.Time      `json:"linked_at" db:"linked_at"`
}
