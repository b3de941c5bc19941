package service

import (
	"context"

	"wagermatch/events"
	"wagermatch/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordBalanceChange records a balance history entry and emits a balance change event.
// The event is flushed only after the unit of work commits.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return storeError("failed to record balance history", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          history.UserID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		ChangeAmount:    history.ChangeAmount,
		TransactionType: history.TransactionType,
		MatchID:         history.RelatedID,
	})

	return nil
}

// moveMatchFunds applies delta to userID's balance for matchID and records the movement.
// A zero delta is a no-op that reports the current balance.
func moveMatchFunds(ctx context.Context, uow UnitOfWork, userID uuid.UUID, matchID uuid.UUID, delta decimal.Decimal, txType models.TransactionType) (decimal.Decimal, error) {
	if delta.IsZero() {
		return uow.UserRepository().GetBalance(ctx, userID)
	}

	newBalance, err := uow.UserRepository().AdjustBalance(ctx, userID, delta)
	if err != nil {
		return decimal.Zero, err
	}

	relatedType := models.RelatedTypeMatch
	history := &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   newBalance.Sub(delta),
		BalanceAfter:    newBalance,
		ChangeAmount:    delta,
		TransactionType: txType,
		TransactionMetadata: map[string]any{
			"match_id": matchID.String(),
		},
		RelatedID:   &matchID,
		RelatedType: &relatedType,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return decimal.Zero, err
	}

	return newBalance, nil
}
