package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"

	"wagermatch/service"
)

const sweepLockKey = "wagermatch:locks:expiry-sweep"

// ExpirySweeper periodically closes matches whose join window has passed
type ExpirySweeper struct {
	expiry   service.ExpiryService
	locker   Locker
	interval time.Duration
	now      func() time.Time
}

// NewExpirySweeper creates a sweeper running every interval
func NewExpirySweeper(expiry service.ExpiryService, locker Locker, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{
		expiry:   expiry,
		locker:   locker,
		interval: interval,
		now:      time.Now,
	}
}

// Start schedules the sweep, running it once immediately.
// Returns a cleanup function to stop the worker gracefully.
func (s *ExpirySweeper) Start(ctx context.Context) (func(), error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			s.RunOnce(ctx)
		}),
		gocron.WithName("expiry-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("failed to schedule expiry sweep: %w", err)
	}

	scheduler.Start()
	log.WithField("interval", s.interval.String()).Info("Expiry sweeper started")

	return func() {
		if err := scheduler.Shutdown(); err != nil {
			log.WithError(err).Warn("Expiry sweeper shutdown error")
		}
		log.Info("Expiry sweeper stopped")
	}, nil
}

// RunOnce performs a single sweep if this replica wins the lease
func (s *ExpirySweeper) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	release, ok, err := s.locker.TryLock(ctx, sweepLockKey, s.interval)
	if err != nil {
		log.WithError(err).Error("Error acquiring expiry sweep lock")
		return
	}
	if !ok {
		log.Debug("Expiry sweep running elsewhere, skipping")
		return
	}
	defer release()

	result, err := s.expiry.SweepExpired(ctx, s.now())
	if err != nil {
		log.WithError(err).Error("Error sweeping expired matches")
		return
	}

	if len(result.ExpiredMatchIDs) > 0 {
		log.WithFields(log.Fields{
			"count":    len(result.ExpiredMatchIDs),
			"refunded": result.RefundedAmount.String(),
		}).Info("Expired matches closed")
	}
}
