package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"monkeybet/database"
	"monkeybet/models"
)

// TransactionRepository implements the append-only ledger table
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

// Append records a new ledger entry
func (r *TransactionRepository) Append(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, amount, kind, description, balance_after)
		VALUES ($1, $2::numeric, $3, $4, $5::numeric)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		txn.UserID,
		txn.Amount.String(),
		string(txn.Kind),
		txn.Description,
		txn.BalanceAfter.String(),
	).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		return classify(fmt.Sprintf("failed to append transaction for user %d", txn.UserID), err)
	}
	return nil
}

// GetByUser returns the most recent entries for a user, newest first
func (r *TransactionRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT id, user_id, amount, kind, description, balance_after, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, classify(fmt.Sprintf("failed to get transactions for user %d", userID), err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var txn models.Transaction
		var kind string
		err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.Amount,
			&kind,
			&txn.Description,
			&txn.BalanceAfter,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Kind = models.TransactionKind(kind)
		transactions = append(transactions, &txn)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("failed to iterate transactions", err)
	}

	return transactions, nil
}

// SumByUser returns the total of all amounts recorded for a user
func (r *TransactionRepository) SumByUser(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1`, userID).Scan(&sum)
	if err != nil {
		return decimal.Zero, classify(fmt.Sprintf("failed to sum transactions for user %d", userID), err)
	}
	return sum, nil
}
