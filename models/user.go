package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a platform user with a wagering balance
type User struct {
	ID         int64           `db:"user_id"`
	Username   string          `db:"username"`
	Balance    decimal.Decimal `db:"balance"`
	ReferrerID *int64          `db:"referrer_id"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

// UserProfile is the user's own view of their account
type UserProfile struct {
	User               *User
	ReferralCount      int64
	RecentTransactions []*Transaction
}
