package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus represents the review state of a payout request
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

// Valid reports whether s is a known status
func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalStatusPending, WithdrawalStatusApproved, WithdrawalStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalStatusApproved || s == WithdrawalStatusRejected
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Only pending withdrawals may be approved or rejected.
func (s WithdrawalStatus) CanTransitionTo(next WithdrawalStatus) bool {
	return s == WithdrawalStatusPending && next.IsTerminal()
}

// ParseWithdrawalStatus converts a raw status string
func ParseWithdrawalStatus(raw string) (WithdrawalStatus, bool) {
	status := WithdrawalStatus(raw)
	return status, status.Valid()
}

// Withdrawal is a user's request to cash out part of their balance.
// The amount is debited when the request is created.
type Withdrawal struct {
	ID         int64            `db:"id"`
	UserID     int64            `db:"user_id"`
	Username   string           `db:"-"` // Populated by list queries
	Amount     decimal.Decimal  `db:"amount"`
	Status     WithdrawalStatus `db:"status"`
	ReviewedBy *int64           `db:"reviewed_by"`
	CreatedAt  time.Time        `db:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at"`
}

// WithdrawalResult represents the outcome of a withdrawal request (returned to the user)
type WithdrawalResult struct {
	Withdrawal *Withdrawal
	NewBalance decimal.Decimal
}
