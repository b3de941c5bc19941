package service

import (
	"context"
	"fmt"
	"time"

	"wagermatch/config"
	"wagermatch/events"
	"wagermatch/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// sweepBatchSize bounds how many matches one sweep transaction closes
const sweepBatchSize = 500

type expiryService struct {
	uowFactory     UnitOfWorkFactory
	refundOnExpiry bool
}

// NewExpiryService creates the service that closes matches whose join window passed
func NewExpiryService(uowFactory UnitOfWorkFactory, cfg *config.Config) ExpiryService {
	return &expiryService{
		uowFactory:     uowFactory,
		refundOnExpiry: cfg.ExpiryRefundEntryFees,
	}
}

// SweepExpired marks open and filled matches past their expiry as expired.
// Entry fees are refunded only when refundOnExpiry is set.
func (s *expiryService) SweepExpired(ctx context.Context, now time.Time) (*models.SweepResult, error) {
	result := &models.SweepResult{
		ExpiredMatchIDs: []uuid.UUID{},
		RefundedAmount:  decimal.Zero,
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, dependencyError("failed to begin transaction", err)
	}
	defer uow.Rollback()

	repo := uow.MatchRepository()
	expired, err := repo.LockExpired(ctx, now, sweepBatchSize)
	if err != nil {
		return nil, storeError("failed to select expired matches", err)
	}
	if len(expired) == 0 {
		return result, nil
	}

	ids := make([]uuid.UUID, 0, len(expired))
	for _, match := range expired {
		ids = append(ids, match.ID)
	}

	count, err := repo.MarkExpired(ctx, ids)
	if err != nil {
		return nil, storeError("failed to mark matches expired", err)
	}
	if count != int64(len(ids)) {
		return nil, fmt.Errorf("expired %d of %d locked matches", count, len(ids))
	}

	for _, match := range expired {
		match.Status = models.MatchStatusExpired
		refund := decimal.Zero

		if s.refundOnExpiry {
			if _, err := moveMatchFunds(ctx, uow, match.HostID, match.ID, match.EntryFee, models.TransactionTypeMatchRefund); err != nil {
				return nil, storeError(fmt.Sprintf("failed to refund host of match %s", match.ID), err)
			}
			refund = refund.Add(match.EntryFee)

			if match.OpponentID != nil {
				if _, err := moveMatchFunds(ctx, uow, *match.OpponentID, match.ID, match.EntryFee, models.TransactionTypeMatchRefund); err != nil {
					return nil, storeError(fmt.Sprintf("failed to refund opponent of match %s", match.ID), err)
				}
				refund = refund.Add(match.EntryFee)
			}
		}

		result.RefundedAmount = result.RefundedAmount.Add(refund)
		uow.EventBus().Publish(events.MatchExpiredEvent{Match: *match, RefundAmount: refund})
	}

	if err := uow.Commit(); err != nil {
		return nil, dependencyError("failed to commit transaction", err)
	}

	result.ExpiredMatchIDs = ids
	log.WithFields(log.Fields{
		"expiredCount":   len(ids),
		"refundedAmount": result.RefundedAmount.StringFixed(2),
	}).Info("Swept expired matches")

	return result, nil
}
