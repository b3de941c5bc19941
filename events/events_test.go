package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"wagermatch/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionalBus_FlushDeliversToMainBus(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	received := make(chan BalanceChangeEvent, 1)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		if balanceEvent, ok := event.(BalanceChangeEvent); ok {
			received <- balanceEvent
		}
	})

	testEvent := BalanceChangeEvent{
		UserID:          uuid.New(),
		OldBalance:      decimal.RequireFromString("10.00"),
		NewBalance:      decimal.RequireFromString("5.00"),
		ChangeAmount:    decimal.RequireFromString("-5.00"),
		TransactionType: models.TransactionTypeMatchEntry,
	}

	transactionalBus.Publish(testEvent)
	assert.Len(t, transactionalBus.Pending(), 1)

	require.NoError(t, transactionalBus.Flush(context.Background()))
	assert.Empty(t, transactionalBus.Pending())

	select {
	case got := <-received:
		assert.Equal(t, testEvent.UserID, got.UserID)
		assert.True(t, testEvent.NewBalance.Equal(got.NewBalance))
		assert.Equal(t, models.TransactionTypeMatchEntry, got.TransactionType)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestTransactionalBus_DiscardDropsEvents(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	delivered := make(chan struct{}, 1)
	mainBus.Subscribe(EventTypeMatchCreated, func(ctx context.Context, event Event) {
		delivered <- struct{}{}
	})

	transactionalBus.Publish(MatchCreatedEvent{Match: models.Match{ID: uuid.New()}})
	transactionalBus.Discard()
	require.NoError(t, transactionalBus.Flush(context.Background()))

	select {
	case <-delivered:
		t.Fatal("discarded event was delivered")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTransactionalBus_FlushIgnoresCancelledContext(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	errs := make(chan error, 1)
	mainBus.Subscribe(EventTypeMatchStarted, func(ctx context.Context, event Event) {
		errs <- ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	transactionalBus.Publish(MatchStartedEvent{})
	require.NoError(t, transactionalBus.Flush(ctx))
	cancel()

	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestBus_MultipleHandlersAndPanicRecovery(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	wg.Add(2)

	bus.Subscribe(EventTypeMatchDisputed, func(ctx context.Context, event Event) {
		defer wg.Done()
		panic("boom")
	})
	var got Event
	var mu sync.Mutex
	bus.Subscribe(EventTypeMatchDisputed, func(ctx context.Context, event Event) {
		defer wg.Done()
		mu.Lock()
		got = event
		mu.Unlock()
	})

	bus.Emit(context.Background(), MatchDisputedEvent{Match: models.Match{Status: models.MatchStatusDisputed}})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handlers did not run")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, got)
	assert.Equal(t, EventTypeMatchDisputed, got.Type())
}

func TestBus_SubscribeAllCoversMatchEvents(t *testing.T) {
	bus := NewBus()
	seen := make(chan EventType, len(MatchEventTypes))
	bus.SubscribeAll(MatchEventTypes, func(ctx context.Context, event Event) {
		seen <- event.Type()
	})

	bus.Emit(context.Background(), MatchCancelledEvent{})
	bus.Emit(context.Background(), MatchExpiredEvent{})
	bus.Emit(context.Background(), BalanceChangeEvent{})

	got := map[EventType]bool{}
	for i := 0; i < 2; i++ {
		select {
		case et := <-seen:
			got[et] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	assert.True(t, got[EventTypeMatchCancelled])
	assert.True(t, got[EventTypeMatchExpired])
	assert.False(t, got[EventTypeBalanceChange])
}
