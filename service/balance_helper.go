package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"monkeybet/events"
	"monkeybet/models"
)

// BalanceChange describes one ledger entry to apply
type BalanceChange struct {
	UserID int64
	Amount decimal.Decimal
	// MinBalance is the balance required before the change applies.
	// Debits always require at least their own magnitude.
	MinBalance  decimal.Decimal
	Kind        models.TransactionKind
	Description string
}

// ApplyBalanceChange updates the balance and appends the matching transaction
// inside uow, then queues a balance change event for after commit.
// This is the single entry point for all balance changes in the system.
func ApplyBalanceChange(ctx context.Context, uow UnitOfWork, change BalanceChange) (*models.Transaction, error) {
	if !change.Kind.Valid() {
		return nil, fmt.Errorf("unknown transaction kind %q", change.Kind)
	}

	minBalance := change.MinBalance
	if change.Amount.IsNegative() && minBalance.LessThan(change.Amount.Neg()) {
		minBalance = change.Amount.Neg()
	}

	newBalance, err := uow.UserRepository().ApplyDelta(ctx, change.UserID, change.Amount, minBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to apply balance change: %w", err)
	}

	txn := &models.Transaction{
		UserID:       change.UserID,
		Amount:       change.Amount,
		Kind:         change.Kind,
		Description:  change.Description,
		BalanceAfter: newBalance,
	}
	if err := uow.TransactionRepository().Append(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          change.UserID,
		TransactionID:   txn.ID,
		OldBalance:      newBalance.Sub(change.Amount),
		NewBalance:      newBalance,
		TransactionKind: change.Kind,
		ChangeAmount:    change.Amount,
	})

	return txn, nil
}
