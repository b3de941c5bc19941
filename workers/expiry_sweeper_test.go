package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wagermatch/models"
)

type mockExpiryService struct {
	mock.Mock
}

func (m *mockExpiryService) SweepExpired(ctx context.Context, now time.Time) (*models.SweepResult, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SweepResult), args.Error(1)
}

type fakeLocker struct {
	mu       sync.Mutex
	granted  bool
	err      error
	attempts int
	released int
}

func (l *fakeLocker) TryLock(context.Context, string, time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts++
	if l.err != nil || !l.granted {
		return nil, false, l.err
	}
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
	}, true, nil
}

func (l *fakeLocker) counts() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attempts, l.released
}

var sweepTime = time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)

func newTestSweeper(expiry *mockExpiryService, locker Locker) *ExpirySweeper {
	sweeper := NewExpirySweeper(expiry, locker, time.Minute)
	sweeper.now = func() time.Time { return sweepTime }
	return sweeper
}

func TestExpirySweeper_RunOnce(t *testing.T) {
	t.Run("sweeps and releases the lease", func(t *testing.T) {
		expiry := &mockExpiryService{}
		locker := &fakeLocker{granted: true}
		expiry.On("SweepExpired", mock.Anything, sweepTime).Return(&models.SweepResult{
			ExpiredMatchIDs: []uuid.UUID{uuid.New()},
			RefundedAmount:  decimal.RequireFromString("5.00"),
		}, nil).Once()

		newTestSweeper(expiry, locker).RunOnce(context.Background())

		expiry.AssertExpectations(t)
		attempts, released := locker.counts()
		assert.Equal(t, 1, attempts)
		assert.Equal(t, 1, released)
	})

	t.Run("skips when another replica holds the lease", func(t *testing.T) {
		expiry := &mockExpiryService{}
		locker := &fakeLocker{granted: false}

		newTestSweeper(expiry, locker).RunOnce(context.Background())

		expiry.AssertNotCalled(t, "SweepExpired", mock.Anything, mock.Anything)
	})

	t.Run("skips when the lock backend fails", func(t *testing.T) {
		expiry := &mockExpiryService{}
		locker := &fakeLocker{err: errors.New("connection refused")}

		newTestSweeper(expiry, locker).RunOnce(context.Background())

		expiry.AssertNotCalled(t, "SweepExpired", mock.Anything, mock.Anything)
	})

	t.Run("sweep errors still release the lease", func(t *testing.T) {
		expiry := &mockExpiryService{}
		locker := &fakeLocker{granted: true}
		expiry.On("SweepExpired", mock.Anything, sweepTime).Return(nil, errors.New("db down")).Once()

		newTestSweeper(expiry, locker).RunOnce(context.Background())

		expiry.AssertExpectations(t)
		_, released := locker.counts()
		assert.Equal(t, 1, released)
	})

	t.Run("cancelled context does nothing", func(t *testing.T) {
		expiry := &mockExpiryService{}
		locker := &fakeLocker{granted: true}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		newTestSweeper(expiry, locker).RunOnce(ctx)

		attempts, _ := locker.counts()
		assert.Zero(t, attempts)
	})
}

func TestExpirySweeper_StartRunsImmediately(t *testing.T) {
	expiry := &mockExpiryService{}
	swept := make(chan struct{})
	var once sync.Once
	expiry.On("SweepExpired", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { once.Do(func() { close(swept) }) }).
		Return(&models.SweepResult{RefundedAmount: decimal.Zero}, nil)

	sweeper := NewExpirySweeper(expiry, NewLocalLocker(), time.Hour)
	stop, err := sweeper.Start(context.Background())
	require.NoError(t, err)
	defer stop()

	select {
	case <-swept:
	case <-time.After(5 * time.Second):
		t.Fatal("sweep did not run on start")
	}
}
