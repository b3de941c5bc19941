package service

import (
	"context"
	"time"

	"wagermatch/events"
	"wagermatch/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user and ledger data access
type UserRepository interface {
	// GetByID retrieves a user, returning nil when absent
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetOrCreate returns the user, provisioning it with a zero balance on first sight.
	// The boolean reports whether the user was created by this call.
	GetOrCreate(ctx context.Context, identity *models.Identity) (*models.User, bool, error)

	// GetBalance returns the current balance, ErrNotFound when the user is absent
	GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)

	// AdjustBalance atomically applies delta and returns the new balance.
	// It never lets the balance go negative and reports *InsufficientBalanceError instead.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns the most recent balance history for a user
	GetByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.BalanceHistory, error)

	// GetByMatch returns every ledger movement tied to a match
	GetByMatch(ctx context.Context, matchID uuid.UUID) ([]*models.BalanceHistory, error)
}

// MatchRepository defines the interface for match data access.
// Every transition method is a conditional update guarded on the expected prior
// state and returns nil (without error) when the guard did not match.
type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error)

	// GetByIDForUpdate locks the match row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Match, error)

	ClaimOpponentSlot(ctx context.Context, id uuid.UUID, opponent *models.User, now time.Time) (*models.Match, error)
	SetOpponentReady(ctx context.Context, id, opponentID uuid.UUID, ready bool) (*models.Match, error)
	Start(ctx context.Context, id, hostID uuid.UUID, now time.Time) (*models.Match, error)
	RecordVote(ctx context.Context, id uuid.UUID, asHost bool, vote models.ResultVote) (*models.Match, error)
	Finish(ctx context.Context, id, winnerID uuid.UUID, now time.Time) (*models.Match, error)
	Dispute(ctx context.Context, id uuid.UUID, now time.Time) (*models.Match, error)
	Cancel(ctx context.Context, id, hostID uuid.UUID, now time.Time) (*models.Match, error)

	// LockExpired selects open or filled matches whose join window closed before now,
	// skipping rows locked by concurrent transactions
	LockExpired(ctx context.Context, now time.Time, limit int) ([]*models.Match, error)
	MarkExpired(ctx context.Context, ids []uuid.UUID) (int64, error)

	List(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error)

	// GetStats returns aggregated match statistics for a user
	GetStats(ctx context.Context, userID uuid.UUID) (*models.MatchStats, error)
}

// LinkedAccountRepository defines the interface for third-party account links
type LinkedAccountRepository interface {
	Upsert(ctx context.Context, account *models.LinkedAccount) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.LinkedAccount, error)
	Delete(ctx context.Context, userID uuid.UUID, provider string) (bool, error)

	// GetUsernames maps user ids to their username on provider, omitting users without a link
	GetUsernames(ctx context.Context, userIDs []uuid.UUID, provider string) (map[uuid.UUID]string, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	MatchRepository() MatchRepository
	LinkedAccountRepository() LinkedAccountRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// CreateMatchParams are the host-supplied settings of a new match
type CreateMatchParams struct {
	MatchType models.MatchType
	GameMode  string
	FirstTo   int
	Platform  string
	Region    string
	TeamSize  int
	EntryFee  decimal.Decimal
}

// MatchService defines the match lifecycle operations
type MatchService interface {
	// CreateMatch debits the host's entry fee and opens a new match
	CreateMatch(ctx context.Context, host *models.Identity, params CreateMatchParams) (*models.Match, error)

	// JoinMatch claims the opponent slot and debits the opponent's entry fee
	JoinMatch(ctx context.Context, matchID uuid.UUID, user *models.Identity) (*models.JoinResult, error)

	// SetReady toggles the opponent's readiness on a filled match
	SetReady(ctx context.Context, matchID, userID uuid.UUID, ready bool) (*models.Match, error)

	// StartMatch moves a filled match with a ready opponent into play
	StartMatch(ctx context.Context, matchID, requesterID uuid.UUID) (*models.Match, error)

	// SubmitResult records a participant's vote and settles or disputes the match
	SubmitResult(ctx context.Context, matchID, requesterID uuid.UUID, vote models.ResultVote) (*models.ResultSubmission, error)

	// CancelMatch refunds the host and closes a match nobody joined
	CancelMatch(ctx context.Context, matchID, requesterID uuid.UUID) (decimal.Decimal, error)

	// ListMatches returns matches newest first
	ListMatches(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error)

	// GetMatchDetail returns a match with participant display data
	GetMatchDetail(ctx context.Context, matchID uuid.UUID) (*models.MatchDetail, error)
}

// ExpiryService defines the expiry sweep
type ExpiryService interface {
	// SweepExpired closes every open or filled match whose join window passed before now
	SweepExpired(ctx context.Context, now time.Time) (*models.SweepResult, error)
}

// UserService defines the interface for user operations
type UserService interface {
	// EnsureUser provisions the caller on first sight and returns the stored user
	EnsureUser(ctx context.Context, identity *models.Identity) (*models.User, error)

	// GetSummary returns the user with balance and match statistics
	GetSummary(ctx context.Context, identity *models.Identity) (*models.UserSummary, error)
}

// LinkAccountParams describe a provider identity to attach to a user
type LinkAccountParams struct {
	Provider       string
	ProviderUserID string
	Username       *string
	Email          *string
	ProfileData    map[string]any
	AccessToken    *string
	RefreshToken   *string
	TokenExpiresAt *time.Time
}

// LinkedAccountService defines the interface for linked account operations
type LinkedAccountService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*models.LinkedAccount, error)
	Link(ctx context.Context, identity *models.Identity, params LinkAccountParams) (*models.LinkedAccount, error)
	Unlink(ctx context.Context, userID uuid.UUID, provider string) error
}
