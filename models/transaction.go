package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind represents the type of balance change
type TransactionKind string

const (
	TransactionKindGameWin    TransactionKind = "game_win"
	TransactionKindGameLose   TransactionKind = "game_lose"
	TransactionKindClick      TransactionKind = "click"
	TransactionKindWithdrawal TransactionKind = "withdrawal"
	TransactionKindOther      TransactionKind = "other"
)

// Valid reports whether k is one of the known transaction kinds
func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionKindGameWin, TransactionKindGameLose, TransactionKindClick,
		TransactionKindWithdrawal, TransactionKindOther:
		return true
	}
	return false
}

// Transaction is an immutable ledger entry. Amount is signed: positive for
// credits, negative for debits. The sum of a user's amounts equals their balance.
type Transaction struct {
	ID           int64           `db:"id"`
	UserID       int64           `db:"user_id"`
	Amount       decimal.Decimal `db:"amount"`
	Kind         TransactionKind `db:"kind"`
	Description  string          `db:"description"`
	BalanceAfter decimal.Decimal `db:"balance_after"`
	CreatedAt    time.Time       `db:"created_at"`
}
