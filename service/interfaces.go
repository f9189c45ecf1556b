package service

import (
	"context"

	"github.com/shopspring/decimal"

	"monkeybet/events"
	"monkeybet/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user, returning nil when it does not exist
	GetByID(ctx context.Context, userID int64) (*models.User, error)

	// Create inserts a user with a zero balance. An existing user is left
	// untouched and returned with created=false.
	Create(ctx context.Context, userID int64, username string, referrerID *int64) (user *models.User, created bool, err error)

	// ApplyDelta adds delta to the user's balance in a single conditional
	// update that only succeeds while the balance is at least minBalance.
	// Returns ErrUserNotFound or ErrInsufficientBalance when it does not apply.
	ApplyDelta(ctx context.Context, userID int64, delta, minBalance decimal.Decimal) (decimal.Decimal, error)

	// CountReferrals returns how many users were referred by userID
	CountReferrals(ctx context.Context, userID int64) (int64, error)
}

// TransactionRepository defines the interface for the append-only ledger
type TransactionRepository interface {
	// Append stores a new entry and fills in its ID and CreatedAt
	Append(ctx context.Context, txn *models.Transaction) error

	// GetByUser returns a user's most recent entries, newest first
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error)

	// SumByUser returns the sum of all amounts recorded for a user
	SumByUser(ctx context.Context, userID int64) (decimal.Decimal, error)
}

// WithdrawalRepository defines the interface for withdrawal data access
type WithdrawalRepository interface {
	// Create stores a new pending withdrawal and fills in its ID and timestamps
	Create(ctx context.Context, withdrawal *models.Withdrawal) error

	// GetByID retrieves a withdrawal, returning nil when it does not exist
	GetByID(ctx context.Context, id int64) (*models.Withdrawal, error)

	// TransitionStatus moves a withdrawal from one status to another only if
	// it is still in from. Returns nil when no row matched.
	TransitionStatus(ctx context.Context, id int64, from, to models.WithdrawalStatus, reviewerID int64) (*models.Withdrawal, error)

	// List returns withdrawals with the requesting user's name, newest
	// first, optionally filtered by status
	List(ctx context.Context, status *models.WithdrawalStatus) ([]*models.Withdrawal, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction bound to ctx
	Begin(ctx context.Context) error

	// Commit commits the transaction and releases queued events
	Commit() error

	// Rollback rolls back the transaction and drops queued events
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	TransactionRepository() TransactionRepository
	WithdrawalRepository() WithdrawalRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// LedgerService is the only writer of user balances
type LedgerService interface {
	// SettleRound reflects a resolved round into exactly one transaction.
	// The balance must cover the bet at the moment of settlement.
	SettleRound(ctx context.Context, userID int64, round models.GameRound) (*models.Transaction, error)

	// AdjustBalance applies a signed amount outside of game play
	AdjustBalance(ctx context.Context, userID int64, amount decimal.Decimal, kind models.TransactionKind, description string) (*models.Transaction, error)
}

// WithdrawalService drives the pending -> approved | rejected lifecycle
type WithdrawalService interface {
	// RequestWithdrawal debits amount and records a pending withdrawal
	RequestWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal) (*models.WithdrawalResult, error)

	// ApproveWithdrawal marks a pending withdrawal as paid out
	ApproveWithdrawal(ctx context.Context, withdrawalID int64, adminID int64) (*models.Withdrawal, error)

	// RejectWithdrawal marks a pending withdrawal as rejected and refunds it
	RejectWithdrawal(ctx context.Context, withdrawalID int64, adminID int64) (*models.Withdrawal, error)

	// ListWithdrawals returns withdrawals for review, optionally by status
	ListWithdrawals(ctx context.Context, status *models.WithdrawalStatus) ([]*models.Withdrawal, error)

	// IsAdmin checks if a user can review withdrawals
	IsAdmin(userID int64) bool
}

// UserService defines the interface for user operations
type UserService interface {
	// GetOrCreateUser retrieves an existing user or creates a new one with
	// the starting balance
	GetOrCreateUser(ctx context.Context, userID int64, username string, referrerID *int64) (user *models.User, created bool, err error)

	// GetProfile returns the user with referral count and recent history
	GetProfile(ctx context.Context, userID int64, historyLimit int) (*models.UserProfile, error)
}

// LoginRequest carries the raw login form fields
type LoginRequest struct {
	Fields     map[string]string
	ReferrerID *int64
}

// SessionService orchestrates the per-request flows of the web client
type SessionService interface {
	// Login verifies the signed assertion and ensures the user exists
	Login(ctx context.Context, req LoginRequest) (*models.LoginResult, error)

	// PlaceBet resolves one round and settles it in the ledger
	PlaceBet(ctx context.Context, userID int64, variant models.GameVariant, bet decimal.Decimal) (*models.BetResult, error)
}
