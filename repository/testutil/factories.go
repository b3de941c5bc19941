package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"wagermatch/database"
	"wagermatch/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// NewIdentity returns a caller identity with a fresh id
func NewIdentity(name string) *models.Identity {
	return &models.Identity{UserID: uuid.New(), DisplayName: name}
}

// CreateUserWithBalance inserts a user directly with the given balance
func CreateUserWithBalance(t *testing.T, db *database.DB, name string, balance string) *models.User {
	t.Helper()

	user := &models.User{
		ID:          uuid.New(),
		DisplayName: name,
		Balance:     decimal.RequireFromString(balance),
	}
	err := db.QueryRow(context.Background(), `
		INSERT INTO users (id, display_name, balance)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`, user.ID, user.DisplayName, user.Balance).Scan(&user.CreatedAt, &user.UpdatedAt)
	require.NoError(t, err)
	return user
}

// IdentityOf returns the identity of an existing user
func IdentityOf(user *models.User) *models.Identity {
	return &models.Identity{UserID: user.ID, DisplayName: user.DisplayName, AvatarURL: user.AvatarURL}
}

// NewMatch builds an unsaved open match hosted by hostID
func NewMatch(hostID uuid.UUID, entryFee string, now time.Time) *models.Match {
	fee := decimal.RequireFromString(entryFee)
	return &models.Match{
		ID:        uuid.New(),
		HostID:    hostID,
		HostName:  "host",
		MatchType: models.MatchTypePublic,
		GameMode:  "Zone Wars",
		FirstTo:   3,
		Platform:  "PC",
		Region:    "EU",
		TeamSize:  1,
		EntryFee:  fee,
		Prize:     models.CalculatePrize(fee, models.DefaultRake),
		Status:    models.MatchStatusOpen,
		CreatedAt: now,
		ExpiresAt: now.Add(30 * time.Minute),
	}
}

// GetBalance reads a user's balance directly
func GetBalance(t *testing.T, db *database.DB, userID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(context.Background(), `SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance)
	require.NoError(t, err)
	return balance
}

// RequireBalance asserts a user's stored balance
func RequireBalance(t *testing.T, db *database.DB, userID uuid.UUID, expected string) {
	t.Helper()

	actual := GetBalance(t, db, userID)
	require.True(t, actual.Equal(decimal.RequireFromString(expected)),
		fmt.Sprintf("expected balance %s, got %s", expected, actual.StringFixed(2)))
}
