package models

import "github.com/shopspring/decimal"

// MatchStats represents aggregated match statistics for a user
type MatchStats struct {
	MatchesPlayed int             `json:"matches_played"`
	Wins          int             `json:"wins"`
	Losses        int             `json:"losses"`
	Disputes      int             `json:"disputes"`
	TotalWagered  decimal.Decimal `json:"total_wagered"`
	TotalWon      decimal.Decimal `json:"total_won"`
}

// WinRate returns wins as a fraction of decided matches
func (s *MatchStats) WinRate() float64 {
	decided := s.Wins + s.Losses
	if decided == 0 {
		return 0
	}
	return float64(s.Wins) / float64(decided)
}

// UserSummary is the authenticated user's own view
type UserSummary struct {
	*User
	Stats *MatchStats `json:"stats"`
}
