package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"wagermatch/database"
	"wagermatch/models"

	"github.com/google/uuid"
)

// LinkedAccountRepository implements the LinkedAccountRepository interface
type LinkedAccountRepository struct {
	q queryable
}

// NewLinkedAccountRepository creates a new linked account repository
func NewLinkedAccountRepository(db *database.DB) *LinkedAccountRepository {
	return &LinkedAccountRepository{q: db.Pool}
}

func newLinkedAccountRepositoryWithTx(tx queryable) *LinkedAccountRepository {
	return &LinkedAccountRepository{q: tx}
}

// Upsert inserts the link or replaces the existing one for the same provider
func (r *LinkedAccountRepository) Upsert(ctx context.Context, account *models.LinkedAccount) error {
	profile := account.ProfileData
	if profile == nil {
		profile = map[string]any{}
	}
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile data: %w", err)
	}

	query := `
		INSERT INTO linked_accounts
		(user_id, provider, provider_user_id, username, email, profile_data, access_token, refresh_token, token_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, provider) DO UPDATE
		SET provider_user_id = EXCLUDED.provider_user_id,
		    username         = EXCLUDED.username,
		    email            = EXCLUDED.email,
		    profile_data     = EXCLUDED.profile_data,
		    access_token     = EXCLUDED.access_token,
		    refresh_token    = EXCLUDED.refresh_token,
		    token_expires_at = EXCLUDED.token_expires_at,
		    linked_at        = NOW()
		RETURNING linked_at
	`

	err = r.q.QueryRow(ctx, query,
		account.UserID,
		account.Provider,
		account.ProviderUserID,
		account.Username,
		account.Email,
		profileJSON,
		account.AccessToken,
		account.RefreshToken,
		account.TokenExpiresAt,
	).Scan(&account.LinkedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert %s account for user %s: %w", account.Provider, account.UserID, err)
	}
	return nil
}

// ListByUser returns every account linked to a user
func (r *LinkedAccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.LinkedAccount, error) {
	query := `
		SELECT user_id, provider, provider_user_id, username, email, profile_data,
		       access_token, refresh_token, token_expires_at, linked_at
		FROM linked_accounts
		WHERE user_id = $1
		ORDER BY provider
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked accounts for user %s: %w", userID, err)
	}
	defer rows.Close()

	accounts := []*models.LinkedAccount{}
	for rows.Next() {
		var account models.LinkedAccount
		var profileJSON []byte
		err := rows.Scan(
			&account.UserID,
			&account.Provider,
			&account.ProviderUserID,
			&account.Username,
			&account.Email,
			&profileJSON,
			&account.AccessToken,
			&account.RefreshToken,
			&account.TokenExpiresAt,
			&account.LinkedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan linked account: %w", err)
		}
		if len(profileJSON) > 0 {
			if err := json.Unmarshal(profileJSON, &account.ProfileData); err != nil {
				return nil, fmt.Errorf("failed to unmarshal profile data: %w", err)
			}
		}
		accounts = append(accounts, &account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate linked accounts: %w", err)
	}
	return accounts, nil
}

// Delete removes the user's link for provider, reporting whether one existed
func (r *LinkedAccountRepository) Delete(ctx context.Context, userID uuid.UUID, provider string) (bool, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM linked_accounts WHERE user_id = $1 AND provider = $2`, userID, provider)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s account for user %s: %w", provider, userID, err)
	}
	return result.RowsAffected() > 0, nil
}

// GetUsernames maps user ids to their provider usernames
func (r *LinkedAccountRepository) GetUsernames(ctx context.Context, userIDs []uuid.UUID, provider string) (map[uuid.UUID]string, error) {
	usernames := make(map[uuid.UUID]string, len(userIDs))
	if len(userIDs) == 0 {
		return usernames, nil
	}

	query := `
		SELECT user_id, username
		FROM linked_accounts
		WHERE provider = $1 AND user_id = ANY($2) AND username IS NOT NULL
	`

	rows, err := r.q.Query(ctx, query, provider, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s usernames: %w", provider, err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID uuid.UUID
		var username string
		if err := rows.Scan(&userID, &username); err != nil {
			return nil, fmt.Errorf("failed to scan username: %w", err)
		}
		usernames[userID] = username
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usernames: %w", err)
	}
	return usernames, nil
}
