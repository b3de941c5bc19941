package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a platform user with a coin balance
type User struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	DisplayName string          `json:"display_name" db:"display_name"`
	AvatarURL   *string         `json:"profile_picture_url" db:"avatar_url"`
	Balance     decimal.Decimal `json:"balance" db:"balance"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Profile returns the public display data for the user
func (u *User) Profile() *PlayerProfile {
	return &PlayerProfile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// Identity is the verified caller of an authenticated request
type Identity struct {
	UserID      uuid.UUID
	DisplayName string
	AvatarURL   *string
	Email       string
}
