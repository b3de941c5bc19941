package events

import (
	"context"
	"sync"

	"wagermatch/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange  EventType = "balance_change"
	EventTypeUserCreated    EventType = "user_created"
	EventTypeMatchCreated   EventType = "match_created"
	EventTypeMatchJoined    EventType = "match_joined"
	EventTypeMatchStarted   EventType = "match_started"
	EventTypeMatchSettled   EventType = "match_settled"
	EventTypeMatchDisputed  EventType = "match_disputed"
	EventTypeMatchCancelled EventType = "match_cancelled"
	EventTypeMatchExpired   EventType = "match_expired"
)

// MatchEventTypes lists every match lifecycle event type
var MatchEventTypes = []EventType{
	EventTypeMatchCreated,
	EventTypeMatchJoined,
	EventTypeMatchStarted,
	EventTypeMatchSettled,
	EventTypeMatchDisputed,
	EventTypeMatchCancelled,
	EventTypeMatchExpired,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          uuid.UUID              `json:"user_id"`
	OldBalance      decimal.Decimal        `json:"old_balance"`
	NewBalance      decimal.Decimal        `json:"new_balance"`
	ChangeAmount    decimal.Decimal        `json:"change_amount"`
	TransactionType models.TransactionType `json:"transaction_type"`
	MatchID         *uuid.UUID             `json:"match_id,omitempty"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserCreatedEvent represents a new user creation
type UserCreatedEvent struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// MatchCreatedEvent is emitted when a host opens a new match
type MatchCreatedEvent struct {
	Match models.Match `json:"match"`
}

func (e MatchCreatedEvent) Type() EventType {
	return EventTypeMatchCreated
}

// MatchJoinedEvent is emitted when the opponent slot is claimed
type MatchJoinedEvent struct {
	Match models.Match `json:"match"`
}

func (e MatchJoinedEvent) Type() EventType {
	return EventTypeMatchJoined
}

// MatchStartedEvent is emitted when the host starts play
type MatchStartedEvent struct {
	Match models.Match `json:"match"`
}

func (e MatchStartedEvent) Type() EventType {
	return EventTypeMatchStarted
}

// MatchSettledEvent is emitted when agreeing results pay out the prize
type MatchSettledEvent struct {
	Match    models.Match    `json:"match"`
	WinnerID uuid.UUID       `json:"winner_id"`
	LoserID  uuid.UUID       `json:"loser_id"`
	Prize    decimal.Decimal `json:"prize"`
}

func (e MatchSettledEvent) Type() EventType {
	return EventTypeMatchSettled
}

// MatchDisputedEvent is emitted when the two submitted results disagree
type MatchDisputedEvent struct {
	Match models.Match `json:"match"`
}

func (e MatchDisputedEvent) Type() EventType {
	return EventTypeMatchDisputed
}

// MatchCancelledEvent is emitted when the host withdraws an open match
type MatchCancelledEvent struct {
	Match        models.Match    `json:"match"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

func (e MatchCancelledEvent) Type() EventType {
	return EventTypeMatchCancelled
}

// MatchExpiredEvent is emitted for each match closed by the expiry sweep
type MatchExpiredEvent struct {
	Match        models.Match    `json:"match"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

func (e MatchExpiredEvent) Type() EventType {
	return EventTypeMatchExpired
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds the same handler for several event types
func (b *Bus) SubscribeAll(eventTypes []EventType, handler Handler) {
	for _, eventType := range eventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so a slow subscriber never blocks a request
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus once the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Pending returns the events queued since the last flush or discard
func (b *TransactionalBus) Pending() []Event {
	return b.pending
}

// Flush is called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events")

	// Handlers outlive the request, so they must not inherit its cancellation
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		if b.real != nil {
			b.real.Emit(eventCtx, ev)
		}
	}
	b.pending = nil
	return nil
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
