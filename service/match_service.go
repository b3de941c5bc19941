package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wagermatch/config"
	"wagermatch/events"
	"wagermatch/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
	maxTeamSize      = 4
	maxFirstTo       = 99
)

type matchService struct {
	uowFactory UnitOfWorkFactory
	rake       decimal.Decimal
	ttl        time.Duration
	now        func() time.Time
}

// NewMatchService creates a new match lifecycle service
func NewMatchService(uowFactory UnitOfWorkFactory, cfg *config.Config) MatchService {
	return &matchService{
		uowFactory: uowFactory,
		rake:       cfg.Rake.Decimal,
		ttl:        cfg.MatchTTL,
		now:        time.Now,
	}
}

func dependencyError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrDependency, err))
}

func validateCreateParams(params CreateMatchParams) error {
	var missing []string
	if strings.TrimSpace(params.GameMode) == "" {
		missing = append(missing, "game mode")
	}
	if strings.TrimSpace(params.Platform) == "" {
		missing = append(missing, "platform")
	}
	if strings.TrimSpace(params.Region) == "" {
		missing = append(missing, "region")
	}
	if params.TeamSize == 0 {
		missing = append(missing, "team size")
	}
	if params.FirstTo == 0 {
		missing = append(missing, "first to")
	}
	if len(missing) > 0 {
		return newError(ErrValidation, "Missing required fields: %s", strings.Join(missing, ", "))
	}

	if params.MatchType != models.MatchTypePublic && params.MatchType != models.MatchTypePrivate {
		return newError(ErrValidation, "Match type must be public or private")
	}
	if params.TeamSize < 1 || params.TeamSize > maxTeamSize {
		return newError(ErrValidation, "Team size must be between 1 and %d", maxTeamSize)
	}
	if params.FirstTo < 1 || params.FirstTo > maxFirstTo {
		return newError(ErrValidation, "First to must be between 1 and %d", maxFirstTo)
	}
	if params.EntryFee.IsNegative() {
		return newError(ErrValidation, "Entry fee cannot be negative")
	}
	if !params.EntryFee.Equal(params.EntryFee.Round(2)) {
		return newError(ErrValidation, "Entry fee cannot have more than two decimal places")
	}
	return nil
}

// CreateMatch debits the host's entry fee and opens a new match in one transaction
func (s *matchService) CreateMatch(ctx context.Context, host *models.Identity, params CreateMatchParams) (*models.Match, error) {
	if err := validateCreateParams(params); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, dependencyError("failed to begin transaction", err)
	}
	defer uow.Rollback()

	user, err := ensureUser(ctx, uow, host)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	match := &models.Match{
		ID:        uuid.New(),
		HostID:    user.ID,
		HostName:  user.DisplayName,
		MatchType: params.MatchType,
		GameMode:  strings.TrimSpace(params.GameMode),
		FirstTo:   params.FirstTo,
		Platform:  strings.TrimSpace(params.Platform),
		Region:    strings.TrimSpace(params.Region),
		TeamSize:  params.TeamSize,
		EntryFee:  params.EntryFee,
		Prize:     models.CalculatePrize(params.EntryFee, s.rake),
		Status:    models.MatchStatusOpen,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if _, err := moveMatchFunds(ctx, uow, user.ID, match.ID, match.EntryFee.Neg(), models.TransactionTypeMatchEntry); err != nil {
		return nil, storeError("failed to debit entry fee", err)
	}

	if err := uow.MatchRepository().Create(ctx, match); err != nil {
		return nil, storeError("failed to create match", err)
	}

	uow.EventBus().Publish(events.MatchCreatedEvent{Match: *match})

	if err := uow.Commit(); err != nil {
		return nil, dependencyError("failed to commit transaction", err)
	}

	log.WithFields(log.Fields{
		"matchID":  match.ID,
		"hostID":   match.HostID,
		"entryFee": match.EntryFee.StringFixed(2),
		"prize":    match.Prize.StringFixed(2),
	}).Info("Match created")

	return match, nil
}

// JoinMatch claims the opponent slot and debits the entry fee in one transaction.
// Concurrent joiners race on a single conditional update, so at most one wins.
func (s *matchService) JoinMatch(ctx context.Context, matchID uuid.UUID, identity *models.Identity) (*models.JoinResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, dependencyError("failed to begin transaction", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	if err != nil {
		return nil, storeError("failed to get match", err)
	}
	if match == nil {
		return nil, newError(ErrNotFound, "Match not found")
	}
	if match.IsHost(identity.UserID) {
		return nil, newError(ErrValidation, "You cannot join your own match")
	}
	if match.HasOpponent() {
		return nil, newError(ErrMatchFull, "Match is already full")
	}

	now := s.now().UTC()
	if match.Status != models.MatchStatusOpen {
		return nil, newError(ErrConflict, "Match is no longer open")
	}
	if match.IsExpired(now) {
		return nil, newError(ErrConflict, "Match has expired")
	}

	opponent, err := ensureUser(ctx, uow, identity)
	if err != nil {
		return nil, err
	}

	claimed, err := uow.MatchRepository().ClaimOpponentSlot(ctx, matchID, opponent, now)
	if err != nil {
		return nil, storeError("failed to claim opponent slot", err)
	}
	if claimed == nil {
		return nil, newError(ErrMatchFull, "Match is already full")
	}

	newBalance, err := moveMatchFunds(ctx, uow, opponent.ID, matchID, claimed.EntryFee.Neg(), models.TransactionTypeMatchEntry)
	if err != nil {
		return nil, storeError("failed to debit entry fee", err)
	}

	uow.EventBus().Publish(events.MatchJoinedEvent{Match: *claimed})

	if err := uow.Commit(); err != nil {
		return nil, dependencyError("failed to commit transaction", err)
	}

	return &models.JoinResult{
		Match:            claimed,
		NewBalance:       newBalance,
		EntryFeeDeducted: claimed.EntryFee,
	}, nil
}

// SetReady toggles the opponent's readiness while the match is filled
func (s *matchService) SetReady(ctx context.Context, matchID, userID uuid.UUID, ready bool) (*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, dependencyError("failed to begin transaction", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	if err != nil {
		return nil, storeError("failed to get match", err)
	}
	if match == nil {
		return nil, newError(ErrNotFound, "Match not found")
	}
	if !match.IsOpponent(userID) {
		return nil, newError(ErrForbidden, "Only the opponent can change readiness")
	}
	if match.Status != models.MatchStatusFilled {
		return nil, newError(ErrConflict, "Readiness can only change before the match starts")
	}

	updated, err := uow.MatchRepository().SetOpponentReady(ctx, matchID, userID, ready)
	if err != nil {
		return nil, storeError("failed to update readiness", err)
	}
	if updated == nil {
		return nil, newError(ErrConflict, "Readiness can only change before the match starts")
	}

	if err := uow.Commit(); err != nil {
		return nil, dependencyError("failed to commit transaction", err)
	}
	return updated, nil
}

// StartMatch moves a filled match with a ready opponent into play
func (s *matchService) StartMatch(ctx context.Context, matchID, requesterID uuid.UUID) (*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, dependencyError("failed to begin transaction", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	if err != nil {
		return nil, storeError("failed to get match", err)
	}
	if match == nil {
		return nil, newError(ErrNotFound, "Match not found")
	}
	if !match.IsHost(requesterID) {
		return nil, newError(ErrForbidden, "Only the host can start the match")
	}

	now := s.now().UTC()
	started, err := uow.MatchRepository().Start(ctx, matchID, requesterID, now)
	if err != nil {
		return nil, storeError("failed to start match", err)
	}
	if started == nil {
		switch {
		case !match.HasOpponent():
			return nil, newError(ErrConflict, "Match has no opponent yet")
		case match.Status == models.MatchStatusFilled && match.IsExpired(now):
			return nil, newError(ErrConflict, "Match has expired")
		case match.Status == models.MatchStatusFilled && !match.OpponentReady:
			return nil, newError(ErrConflict, "Opponent is not ready")
		default:
			return nil, newError(ErrConflict, "Match cannot be started while %s", match.Status)
		}
	}

	uow.EventBus().Publish(events.MatchStartedEvent{Match: *started})

	if err := uow.Commit(); err != nil {
		return nil, dependencyError("failed to commit transaction", err)
	}
	return started, nil
}

func submissionFor(match *models.Match) *models.ResultSubmission {
	switch match.Status {
	case models.MatchStatusFinished:
		return &models.ResultSubmission{Match: match, Status: models.ResultStatusFinished, Winner: match.HostResult}
	case models.MatchStatusDisputed:
		return &models.ResultSubmission{Match: match, Status: models.ResultStatusDisputed}
	}
	return &models.ResultSubmission{Match: match, Status: models.ResultStatusWaiting}
}

// SubmitResult records the requester's vote. Agreeing votes finish the match and
// credit the winner; disagreeing votes dispute it. The match row stays locked for
// the whole transaction so simultaneous submissions settle exactly once.
func (s *matchService) SubmitResult(ctx context.Context, matchID, requesterID uuid.UUID, vote models.ResultVote) (*models.ResultSubmission, error) {
	if !vote.IsValid() {
		return nil, newError(ErrValidation, "Winner must be host or opponent")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, dependencyError("failed to begin transaction", err)
	}
	defer uow.Rollback()

	repo := uow.MatchRepository()
	match, err := repo.GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return nil, storeError("failed to lock match", err)
	}
	if match == nil {
		return nil, newError(ErrNotFound, "Match not found")
	}
	if !match.IsParticipant(requesterID) {
		return nil, newError(ErrForbidden, "Only match participants can submit results")
	}

	if existing := match.VoteOf(requesterID); existing != nil {
		if *existing == vote {
			return submissionFor(match), nil
		}
		return nil, newError(ErrConflict, "Result already submitted")
	}
	if match.Status != models.MatchStatusPlaying {
		return nil, newError(ErrConflict, "Match is not in progress")
	}

	voted, err := repo.RecordVote(ctx, matchID, match.IsHost(requesterID), vote)
	if err != nil {
		return nil, storeError("failed to record result", err)
	}
	if voted == nil {
		return nil, newError(ErrConflict, "Result already submitted")
	}

	result := voted
	now := s.now().UTC()
	switch {
	case !voted.BothVoted():
	case voted.VotesAgree():
		winnerID := voted.WinnerFor(*voted.HostResult)
		finished, err := repo.Finish(ctx, matchID, *winnerID, now)
		if err != nil {
			return nil, storeError("failed to finish match", err)
		}
		if finished == nil {
			return nil, newError(ErrConflict, "Match is not in progress")
		}
		if _, err := moveMatchFunds(ctx, uow, *winnerID, matchID, finished.Prize, models.TransactionTypeMatchPrize); err != nil {
			return nil, storeError("failed to credit prize", err)
		}
		loserID := finished.HostID
		if loserID == *winnerID {
			loserID = *finished.OpponentID
		}
		uow.EventBus().Publish(events.MatchSettledEvent{
			Match:    *finished,
			WinnerID: *winnerID,
			LoserID:  loserID,
			Prize:    finished.Prize,
		})
		result = finished
	default:
		disputed, err := repo.Dispute(ctx, matchID, now)
		if err != nil {
			return nil, storeError("failed to dispute match", err)
		}
		if disputed == nil {
			return nil, newError(ErrConflict, "Match is not in progress")
		}
		uow.EventBus().Publish(events.MatchDisputedEvent{Match: *disputed})
		result = disputed
	}

	if err := uow.Commit(); err != nil {
		return nil, dependencyError("failed to commit transaction", err)
	}

	submission := submissionFor(result)
	if submission.Status != models.ResultStatusWaiting {
		log.WithFields(log.Fields{
			"matchID": matchID,
			"status":  submission.Status,
		}).Info("Match result settled")
	}
	return submission, nil
}

// CancelMatch refunds the host and closes a match nobody has joined
func (s *matchService) CancelMatch(ctx context.Context, matchID, requesterID uuid.UUID) (decimal.Decimal, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return decimal.Zero, dependencyError("failed to begin transaction", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	if err != nil {
		return decimal.Zero, storeError("failed to get match", err)
	}
	if match == nil {
		return decimal.Zero, newError(ErrNotFound, "Match not found")
	}
	if !match.IsHost(requesterID) {
		return decimal.Zero, newError(ErrForbidden, "Only the host can cancel the match")
	}
	if match.Status != models.MatchStatusOpen || match.HasOpponent() {
		return decimal.Zero, newError(ErrConflict, "Only open matches without an opponent can be cancelled")
	}

	cancelled, err := uow.MatchRepository().Cancel(ctx, matchID, requesterID, s.now().UTC())
	if err != nil {
		return decimal.Zero, storeError("failed to cancel match", err)
	}
	if cancelled == nil {
		return decimal.Zero, newError(ErrConflict, "Only open matches without an opponent can be cancelled")
	}

	if _, err := moveMatchFunds(ctx, uow, cancelled.HostID, matchID, cancelled.EntryFee, models.TransactionTypeMatchRefund); err != nil {
		return decimal.Zero, storeError("failed to refund entry fee", err)
	}

	uow.EventBus().Publish(events.MatchCancelledEvent{Match: *cancelled, RefundAmount: cancelled.EntryFee})

	if err := uow.Commit(); err != nil {
		return decimal.Zero, dependencyError("failed to commit transaction", err)
	}
	return cancelled.EntryFee, nil
}

// ListMatches returns matches newest first
func (s *matchService) ListMatches(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error) {
	for _, status := range filter.Statuses {
		if !status.IsValid() {
			return nil, newError(ErrValidation, "Unknown match status %q", status)
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, dependencyError("failed to begin transaction", err)
	}
	defer uow.Rollback()

	matches, err := uow.MatchRepository().List(ctx, filter)
	if err != nil {
		return nil, storeError("failed to list matches", err)
	}
	return matches, nil
}

// GetMatchDetail returns a match with participant profiles and Epic Games usernames
func (s *matchService) GetMatchDetail(ctx context.Context, matchID uuid.UUID) (*models.MatchDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, dependencyError("failed to begin transaction", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	if err != nil {
		return nil, storeError("failed to get match", err)
	}
	if match == nil {
		return nil, newError(ErrNotFound, "Match not found")
	}

	detail := &models.MatchDetail{Match: match}
	participantIDs := []uuid.UUID{match.HostID}

	host, err := uow.UserRepository().GetByID(ctx, match.HostID)
	if err != nil {
		return nil, storeError("failed to get host", err)
	}
	if host != nil {
		detail.Host = host.Profile()
	}

	if match.OpponentID != nil {
		participantIDs = append(participantIDs, *match.OpponentID)
		opponent, err := uow.UserRepository().GetByID(ctx, *match.OpponentID)
		if err != nil {
			return nil, storeError("failed to get opponent", err)
		}
		if opponent != nil {
			detail.Opponent = opponent.Profile()
		}
	}

	usernames, err := uow.LinkedAccountRepository().GetUsernames(ctx, participantIDs, models.ProviderEpicGames)
	if err != nil {
		return nil, storeError("failed to get linked usernames", err)
	}
	if name, ok := usernames[match.HostID]; ok {
		detail.HostEpicUsername = &name
	}
	if match.OpponentID != nil {
		if name, ok := usernames[*match.OpponentID]; ok {
			detail.OpponentEpicUsername = &name
		}
	}

	return detail, nil
}
