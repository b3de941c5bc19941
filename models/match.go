package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MatchStatus represents the lifecycle state of a match
type MatchStatus string

const (
	MatchStatusOpen      MatchStatus = "open"
	MatchStatusFilled    MatchStatus = "filled"
	MatchStatusPlaying   MatchStatus = "playing"
	MatchStatusFinished  MatchStatus = "finished"
	MatchStatusDisputed  MatchStatus = "disputed"
	MatchStatusCancelled MatchStatus = "cancelled"
	MatchStatusExpired   MatchStatus = "expired"
)

// IsTerminal reports whether no further transition is possible from this status
func (s MatchStatus) IsTerminal() bool {
	switch s {
	case MatchStatusFinished, MatchStatusDisputed, MatchStatusCancelled, MatchStatusExpired:
		return true
	}
	return false
}

// IsValid reports whether s is a known status
func (s MatchStatus) IsValid() bool {
	switch s {
	case MatchStatusOpen, MatchStatusFilled, MatchStatusPlaying, MatchStatusFinished,
		MatchStatusDisputed, MatchStatusCancelled, MatchStatusExpired:
		return true
	}
	return false
}

// MatchType controls whether a match is listed publicly
type MatchType string

const (
	MatchTypePublic  MatchType = "public"
	MatchTypePrivate MatchType = "private"
)

// ResultVote is a participant's claim about who won
type ResultVote string

const (
	ResultVoteHost     ResultVote = "host"
	ResultVoteOpponent ResultVote = "opponent"
)

// IsValid reports whether v is host or opponent
func (v ResultVote) IsValid() bool {
	return v == ResultVoteHost || v == ResultVoteOpponent
}

// DefaultRake is the platform's share of the pooled entry fees
var DefaultRake = decimal.RequireFromString("0.15")

// CalculatePrize returns round(entryFee * 2 * (1 - rake), 2)
func CalculatePrize(entryFee, rake decimal.Decimal) decimal.Decimal {
	pool := entryFee.Mul(decimal.NewFromInt(2))
	return pool.Mul(decimal.NewFromInt(1).Sub(rake)).Round(2)
}

// Match is a wager contract between a host and an opponent
type Match struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	HostID         uuid.UUID       `json:"host_id" db:"host_id"`
	HostName       string          `json:"host_name" db:"host_name"`
	OpponentID     *uuid.UUID      `json:"opponent_id" db:"opponent_id"`
	OpponentName   *string         `json:"opponent_name" db:"opponent_name"`
	MatchType      MatchType       `json:"match_type" db:"match_type"`
	GameMode       string          `json:"game_mode" db:"game_mode"`
	FirstTo        int             `json:"first_to" db:"first_to"`
	Platform       string          `json:"platform" db:"platform"`
	Region         string          `json:"region" db:"region"`
	TeamSize       int             `json:"team_size" db:"team_size"`
	EntryFee       decimal.Decimal `json:"entry_fee" db:"entry_fee"`
	Prize          decimal.Decimal `json:"prize" db:"prize"`
	Status         MatchStatus     `json:"status" db:"status"`
	OpponentReady  bool            `json:"opponent_ready" db:"opponent_ready"`
	HostResult     *ResultVote     `json:"host_result" db:"host_result"`
	OpponentResult *ResultVote     `json:"opponent_result" db:"opponent_result"`
	WinnerID       *uuid.UUID      `json:"winner_id" db:"winner_id"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	ExpiresAt      time.Time       `json:"expires_at" db:"expires_at"`
	StartedAt      *time.Time      `json:"started_at" db:"started_at"`
	FinishedAt     *time.Time      `json:"finished_at" db:"finished_at"`
	DisputedAt     *time.Time      `json:"disputed_at" db:"disputed_at"`
	CancelledAt    *time.Time      `json:"cancelled_at" db:"cancelled_at"`
}

// IsHost reports whether userID created the match
func (m *Match) IsHost(userID uuid.UUID) bool {
	return m.HostID == userID
}

// IsOpponent reports whether userID holds the opponent slot
func (m *Match) IsOpponent(userID uuid.UUID) bool {
	return m.OpponentID != nil && *m.OpponentID == userID
}

// IsParticipant checks if a user is involved in the match
func (m *Match) IsParticipant(userID uuid.UUID) bool {
	return m.IsHost(userID) || m.IsOpponent(userID)
}

// HasOpponent reports whether the opponent slot has been claimed
func (m *Match) HasOpponent() bool {
	return m.OpponentID != nil
}

// VoteOf returns the vote already cast by userID, if any
func (m *Match) VoteOf(userID uuid.UUID) *ResultVote {
	switch {
	case m.IsHost(userID):
		return m.HostResult
	case m.IsOpponent(userID):
		return m.OpponentResult
	}
	return nil
}

// BothVoted reports whether host and opponent have both submitted a result
func (m *Match) BothVoted() bool {
	return m.HostResult != nil && m.OpponentResult != nil
}

// VotesAgree reports whether both submitted results name the same winner
func (m *Match) VotesAgree() bool {
	return m.BothVoted() && *m.HostResult == *m.OpponentResult
}

// WinnerFor maps an agreed vote onto the participant it names
func (m *Match) WinnerFor(vote ResultVote) *uuid.UUID {
	if vote == ResultVoteHost {
		id := m.HostID
		return &id
	}
	return m.OpponentID
}

// IsExpired reports whether the join window has elapsed at now
func (m *Match) IsExpired(now time.Time) bool {
	return now.After(m.ExpiresAt)
}

// PlayerProfile is the public display data for a match participant
type PlayerProfile struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"profile_picture_url"`
}

// MatchDetail is a match enriched with participant display data
type MatchDetail struct {
	*Match
	Host                 *PlayerProfile `json:"host"`
	Opponent             *PlayerProfile `json:"opponent"`
	HostEpicUsername     *string        `json:"host_epic_username"`
	OpponentEpicUsername *string        `json:"opponent_epic_username"`
}

// MatchFilter narrows a match listing
type MatchFilter struct {
	Statuses        []MatchStatus
	IncludeTerminal bool
	IncludePrivate  bool
	ParticipantID   *uuid.UUID
	Limit           int
	Offset          int
}

// ResultStatus describes the outcome of a result submission
type ResultStatus string

const (
	ResultStatusWaiting  ResultStatus = "waiting_for_result"
	ResultStatusFinished ResultStatus = "finished"
	ResultStatusDisputed ResultStatus = "disputed"
)

// ResultSubmission is the outcome of a SubmitResult call
type ResultSubmission struct {
	Match  *Match
	Status ResultStatus
	Winner *ResultVote
}

// JoinResult is returned after successfully joining a match
type JoinResult struct {
	Match            *Match
	NewBalance       decimal.Decimal
	EntryFeeDeducted decimal.Decimal
}

// SweepResult summarises an expiry sweep
type SweepResult struct {
	ExpiredMatchIDs []uuid.UUID
	RefundedAmount  decimal.Decimal
}
