package events

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"monkeybet/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange           EventType = "balance_change"
	EventTypeUserCreated             EventType = "user_created"
	EventTypeRoundSettled            EventType = "round_settled"
	EventTypeWithdrawalRequested     EventType = "withdrawal_requested"
	EventTypeWithdrawalStatusChanged EventType = "withdrawal_status_changed"
)

// AllEventTypes lists every event type the bus can carry
var AllEventTypes = []EventType{
	EventTypeBalanceChange,
	EventTypeUserCreated,
	EventTypeRoundSettled,
	EventTypeWithdrawalRequested,
	EventTypeWithdrawalStatusChanged,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a committed ledger entry
type BalanceChangeEvent struct {
	UserID          int64                  `json:"user_id"`
	TransactionID   int64                  `json:"transaction_id"`
	OldBalance      decimal.Decimal        `json:"old_balance"`
	NewBalance      decimal.Decimal        `json:"new_balance"`
	TransactionKind models.TransactionKind `json:"kind"`
	ChangeAmount    decimal.Decimal        `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserCreatedEvent represents a new user creation
type UserCreatedEvent struct {
	UserID         int64           `json:"user_id"`
	Username       string          `json:"username"`
	ReferrerID     *int64          `json:"referrer_id,omitempty"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// RoundSettledEvent represents a game round reflected into the ledger
type RoundSettledEvent struct {
	UserID     int64              `json:"user_id"`
	Game       models.GameVariant `json:"game"`
	Bet        decimal.Decimal    `json:"bet"`
	Win        bool               `json:"win"`
	Multiplier decimal.Decimal    `json:"multiplier"`
	Payout     decimal.Decimal    `json:"payout"`
	NewBalance decimal.Decimal    `json:"new_balance"`
}

func (e RoundSettledEvent) Type() EventType {
	return EventTypeRoundSettled
}

// WithdrawalRequestedEvent represents a new pending withdrawal
type WithdrawalRequestedEvent struct {
	WithdrawalID int64           `json:"withdrawal_id"`
	UserID       int64           `json:"user_id"`
	Username     string          `json:"username"`
	Amount       decimal.Decimal `json:"amount"`
}

func (e WithdrawalRequestedEvent) Type() EventType {
	return EventTypeWithdrawalRequested
}

// WithdrawalStatusChangedEvent represents an admin decision on a withdrawal
type WithdrawalStatusChangedEvent struct {
	WithdrawalID int64                   `json:"withdrawal_id"`
	UserID       int64                   `json:"user_id"`
	Amount       decimal.Decimal         `json:"amount"`
	OldStatus    models.WithdrawalStatus `json:"old_status"`
	NewStatus    models.WithdrawalStatus `json:"new_status"`
	ReviewedBy   int64                   `json:"reviewed_by"`
}

func (e WithdrawalStatusChangedEvent) Type() EventType {
	return EventTypeWithdrawalStatusChanged
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	inflight sync.WaitGroup
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

// SubscribeAll adds a handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers. Handlers run on their
// own goroutines; a panicking handler is logged and does not affect others.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for i, handler := range handlers {
		b.inflight.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.inflight.Done()
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

// Wait blocks until every handler started so far has returned. Used during
// shutdown so forwarded events are not cut off.
func (b *Bus) Wait() {
	b.inflight.Wait()
}

// TransactionalBus holds events raised inside a unit of work until the
// database commit succeeds.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Pending returns the events queued so far
func (b *TransactionalBus) Pending() []Event {
	return b.pending
}

// Flush emits pending events; called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Handlers outlive the request, so they must not inherit its deadline
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	log.WithField("count", len(b.pending)).Debug("Flushed pending events")
	b.pending = nil
	return nil
}

// Discard drops pending events; called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
