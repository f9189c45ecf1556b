package testutil

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"monkeybet/database"
	"monkeybet/models"
)

// SeedUser inserts a user whose balance is backed by a single opening
// transaction, so the ledger invariant holds from the start
func SeedUser(t *testing.T, db *database.DB, userID int64, username string, balance decimal.Decimal) *models.User {
	t.Helper()
	ctx := context.Background()

	user := &models.User{ID: userID, Username: username, Balance: balance}
	err := db.QueryRow(ctx,
		`INSERT INTO users (user_id, username, balance) VALUES ($1, $2, $3::numeric) RETURNING created_at, updated_at`,
		userID, username, balance.String(),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	require.NoError(t, err)

	if !balance.IsZero() {
		_, err = db.Exec(ctx,
			`INSERT INTO transactions (user_id, amount, kind, description, balance_after) VALUES ($1, $2::numeric, $3, $4, $2::numeric)`,
			userID, balance.String(), string(models.TransactionKindOther), "seed",
		)
		require.NoError(t, err)
	}

	return user
}

// Balance reads a user's stored balance directly
func Balance(t *testing.T, db *database.DB, userID int64) decimal.Decimal {
	t.Helper()
	var balance decimal.Decimal
	require.NoError(t, db.QueryRow(context.Background(), `SELECT balance FROM users WHERE user_id = $1`, userID).Scan(&balance))
	return balance
}

// TransactionCount returns how many ledger entries a user has
func TransactionCount(t *testing.T, db *database.DB, userID int64) int {
	t.Helper()
	var count int
	require.NoError(t, db.QueryRow(context.Background(), `SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID).Scan(&count))
	return count
}
