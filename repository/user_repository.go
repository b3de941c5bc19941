package repository

import (
	"context"
	"errors"
	"fmt"

	"wagermatch/database"
	"wagermatch/models"
	"wagermatch/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const userColumns = `id, display_name, avatar_url, balance, created_at, updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.DisplayName,
		&user.AvatarURL,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by id, returning nil when absent
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return user, nil
}

// GetOrCreate provisions the user with a zero balance on first sight.
// Display data is refreshed from the identity when it changed.
func (r *UserRepository) GetOrCreate(ctx context.Context, identity *models.Identity) (*models.User, bool, error) {
	query := `
		INSERT INTO users (id, display_name, avatar_url, balance)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (id) DO UPDATE
		SET display_name = CASE WHEN EXCLUDED.display_name = '' THEN users.display_name ELSE EXCLUDED.display_name END,
		    avatar_url   = COALESCE(EXCLUDED.avatar_url, users.avatar_url),
		    updated_at   = CASE
		        WHEN users.display_name IS DISTINCT FROM EXCLUDED.display_name
		          OR users.avatar_url IS DISTINCT FROM EXCLUDED.avatar_url THEN NOW()
		        ELSE users.updated_at END
		RETURNING ` + userColumns + `, (xmax = 0) AS inserted
	`

	var user models.User
	var inserted bool
	err := r.q.QueryRow(ctx, query, identity.UserID, identity.DisplayName, identity.AvatarURL).Scan(
		&user.ID,
		&user.DisplayName,
		&user.AvatarURL,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get or create user %s: %w", identity.UserID, err)
	}
	return &user, inserted, nil
}

// GetBalance returns the current balance of a user
func (r *UserRepository) GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.q.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, id).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("user %s: %w", id, service.ErrNotFound)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance for user %s: %w", id, err)
	}
	return balance, nil
}

// AdjustBalance applies delta atomically, refusing any change that would make the balance negative
func (r *UserRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2 AND balance + $1 >= 0
		RETURNING balance
	`

	var balance decimal.Decimal
	err := r.q.QueryRow(ctx, query, delta, id).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("failed to adjust balance for user %s: %w", id, err)
	}

	// No row updated: either the user is missing or the funds are
	current, err := r.GetBalance(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.Zero, service.NewInsufficientBalanceError(delta.Neg(), current)
}
