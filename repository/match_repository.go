package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wagermatch/database"
	"wagermatch/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const matchColumns = `
	id, host_id, host_name, opponent_id, opponent_name, match_type, game_mode, first_to,
	platform, region, team_size, entry_fee, prize, status, opponent_ready, host_result,
	opponent_result, winner_id, created_at, expires_at, started_at, finished_at,
	disputed_at, cancelled_at`

// MatchRepository implements the MatchRepository interface.
// Transition methods return nil when their guard did not match any row.
type MatchRepository struct {
	q queryable
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{q: db.Pool}
}

// newMatchRepositoryWithTx creates a new match repository with a transaction
func newMatchRepositoryWithTx(tx queryable) *MatchRepository {
	return &MatchRepository{q: tx}
}

func scanMatch(row pgx.Row) (*models.Match, error) {
	var m models.Match
	var matchType, status string
	var hostResult, opponentResult *string

	err := row.Scan(
		&m.ID,
		&m.HostID,
		&m.HostName,
		&m.OpponentID,
		&m.OpponentName,
		&matchType,
		&m.GameMode,
		&m.FirstTo,
		&m.Platform,
		&m.Region,
		&m.TeamSize,
		&m.EntryFee,
		&m.Prize,
		&status,
		&m.OpponentReady,
		&hostResult,
		&opponentResult,
		&m.WinnerID,
		&m.CreatedAt,
		&m.ExpiresAt,
		&m.StartedAt,
		&m.FinishedAt,
		&m.DisputedAt,
		&m.CancelledAt,
	)
	if err != nil {
		return nil, err
	}

	m.MatchType = models.MatchType(matchType)
	m.Status = models.MatchStatus(status)
	if hostResult != nil {
		v := models.ResultVote(*hostResult)
		m.HostResult = &v
	}
	if opponentResult != nil {
		v := models.ResultVote(*opponentResult)
		m.OpponentResult = &v
	}
	return &m, nil
}

// queryMatch runs a single-row query, mapping no rows to nil
func (r *MatchRepository) queryMatch(ctx context.Context, op string, query string, args ...any) (*models.Match, error) {
	match, err := scanMatch(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return match, nil
}

// Create inserts a new match, keeping a caller-assigned id when present
func (r *MatchRepository) Create(ctx context.Context, match *models.Match) error {
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}

	query := `
		INSERT INTO matches
		(id, host_id, host_name, match_type, game_mode, first_to, platform, region,
		 team_size, entry_fee, prize, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		match.ID,
		match.HostID,
		match.HostName,
		string(match.MatchType),
		match.GameMode,
		match.FirstTo,
		match.Platform,
		match.Region,
		match.TeamSize,
		match.EntryFee,
		match.Prize,
		string(match.Status),
		match.CreatedAt,
		match.ExpiresAt,
	).Scan(&match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

// GetByID retrieves a match, returning nil when absent
func (r *MatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.queryMatch(ctx, "get match", query, id)
}

// GetByIDForUpdate retrieves a match and locks its row until the transaction ends
func (r *MatchRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`
	return r.queryMatch(ctx, "lock match", query, id)
}

// ClaimOpponentSlot assigns the opponent only if the match is still open, empty and unexpired
func (r *MatchRepository) ClaimOpponentSlot(ctx context.Context, id uuid.UUID, opponent *models.User, now time.Time) (*models.Match, error) {
	query := `
		UPDATE matches
		SET opponent_id = $2, opponent_name = $3, status = 'filled', opponent_ready = FALSE, updated_at = NOW()
		WHERE id = $1
		  AND status = 'open'
		  AND opponent_id IS NULL
		  AND host_id <> $2
		  AND expires_at > $4
		RETURNING ` + matchColumns
	return r.queryMatch(ctx, "claim opponent slot", query, id, opponent.ID, opponent.DisplayName, now)
}

// SetOpponentReady records the opponent's readiness while the match is filled
func (r *MatchRepository) SetOpponentReady(ctx context.Context, id, opponentID uuid.UUID, ready bool) (*models.Match, error) {
	query := `
		UPDATE matches
		SET opponent_ready = $3, updated_at = NOW()
		WHERE id = $1 AND opponent_id = $2 AND status = 'filled'
		RETURNING ` + matchColumns
	return r.queryMatch(ctx, "set opponent ready", query, id, opponentID, ready)
}

// Start moves a filled, unexpired match with a ready opponent into play
func (r *MatchRepository) Start(ctx context.Context, id, hostID uuid.UUID, now time.Time) (*models.Match, error) {
	query := `
		UPDATE matches
		SET status = 'playing', started_at = $3, updated_at = NOW()
		WHERE id = $1 AND host_id = $2 AND status = 'filled' AND opponent_ready AND expires_at >= $3
		RETURNING ` + matchColumns
	return r.queryMatch(ctx, "start match", query, id, hostID, now)
}

// RecordVote stores one side's vote if that side has not voted yet
func (r *MatchRepository) RecordVote(ctx context.Context, id uuid.UUID, asHost bool, vote models.ResultVote) (*models.Match, error) {
	column := "opponent_result"
	if asHost {
		column = "host_result"
	}
	query := `
		UPDATE matches
		SET ` + column + ` = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'playing' AND ` + column + ` IS NULL
		RETURNING ` + matchColumns
	return r.queryMatch(ctx, "record vote", query, id, string(vote))
}

// Finish settles a playing match in favour of winnerID
func (r *MatchRepository) Finish(ctx context.Context, id, winnerID uuid.UUID, now time.Time) (*models.Match, error) {
	query := `
		UPDATE matches
		SET status = 'finished', winner_id = $2, finished_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'playing' AND ($2 = host_id OR $2 = opponent_id)
		RETURNING ` + matchColumns
	return r.queryMatch(ctx, "finish match", query, id, winnerID, now)
}

// Dispute marks a playing match as disputed
func (r *MatchRepository) Dispute(ctx context.Context, id uuid.UUID, now time.Time) (*models.Match, error) {
	query := `
		UPDATE matches
		SET status = 'disputed', disputed_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'playing'
		RETURNING ` + matchColumns
	return r.queryMatch(ctx, "dispute match", query, id, now)
}

// Cancel closes an open match that nobody has joined
func (r *MatchRepository) Cancel(ctx context.Context, id, hostID uuid.UUID, now time.Time) (*models.Match, error) {
	query := `
		UPDATE matches
		SET status = 'cancelled', cancelled_at = $3, updated_at = NOW()
		WHERE id = $1 AND host_id = $2 AND status = 'open' AND opponent_id IS NULL
		RETURNING ` + matchColumns
	return r.queryMatch(ctx, "cancel match", query, id, hostID, now)
}

// LockExpired selects and locks open or filled matches that expired before now
func (r *MatchRepository) LockExpired(ctx context.Context, now time.Time, limit int) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status IN ('open', 'filled') AND expires_at < $1
		ORDER BY expires_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.q.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select expired matches: %w", err)
	}
	return collectMatches(rows)
}

// MarkExpired moves the given open or filled matches to expired
func (r *MatchRepository) MarkExpired(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE matches
		SET status = 'expired', updated_at = NOW()
		WHERE id = ANY($1) AND status IN ('open', 'filled')
	`

	result, err := r.q.Exec(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to mark matches expired: %w", err)
	}
	return result.RowsAffected(), nil
}

// List returns matches newest first
func (r *MatchRepository) List(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error) {
	var conditions []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, "status = ANY("+arg(statuses)+")")
	} else if !filter.IncludeTerminal {
		conditions = append(conditions, "status NOT IN ('cancelled', 'expired')")
	}

	if filter.ParticipantID != nil {
		p := arg(*filter.ParticipantID)
		conditions = append(conditions, "(host_id = "+p+" OR opponent_id = "+p+")")
	} else if !filter.IncludePrivate {
		conditions = append(conditions, "match_type = 'public'")
	}

	query := `SELECT ` + matchColumns + ` FROM matches`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return collectMatches(rows)
}

// GetStats aggregates a user's match record
func (r *MatchRepository) GetStats(ctx context.Context, userID uuid.UUID) (*models.MatchStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status IN ('finished', 'disputed')),
			COUNT(*) FILTER (WHERE status = 'finished' AND winner_id = $1),
			COUNT(*) FILTER (WHERE status = 'finished' AND winner_id <> $1),
			COUNT(*) FILTER (WHERE status = 'disputed'),
			COALESCE(SUM(entry_fee) FILTER (WHERE status IN ('playing', 'finished', 'disputed')), 0),
			COALESCE(SUM(prize) FILTER (WHERE status = 'finished' AND winner_id = $1), 0)
		FROM matches
		WHERE host_id = $1 OR opponent_id = $1
	`

	var stats models.MatchStats
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&stats.MatchesPlayed,
		&stats.Wins,
		&stats.Losses,
		&stats.Disputes,
		&stats.TotalWagered,
		&stats.TotalWon,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get match stats for user %s: %w", userID, err)
	}
	return &stats, nil
}

func collectMatches(rows pgx.Rows) ([]*models.Match, error) {
	defer rows.Close()

	matches := []*models.Match{}
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}
	return matches, nil
}
