package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"monkeybet/database"
	"monkeybet/models"
	"monkeybet/service"
)

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `user_id, username, balance, referrer_id, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Balance,
		&user.ReferrerID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by ID, returning nil if it does not exist
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(fmt.Sprintf("failed to get user %d", userID), err)
	}
	return user, nil
}

// Create inserts a user with a zero balance. A concurrent or earlier insert
// of the same ID wins and is returned with created=false.
func (r *UserRepository) Create(ctx context.Context, userID int64, username string, referrerID *int64) (*models.User, bool, error) {
	query := `
		INSERT INTO users (user_id, username, referrer_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, userID, username, referrerID))
	if errors.Is(err, pgx.ErrNoRows) {
		existing, err := r.GetByID(ctx, userID)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, fmt.Errorf("user %d vanished after insert conflict", userID)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, classify(fmt.Sprintf("failed to create user %d", userID), err)
	}
	return user, true, nil
}

// ApplyDelta adds delta to the balance in one conditional statement. The
// row lock it takes is held until the surrounding transaction ends, which
// serializes concurrent changes to the same user.
func (r *UserRepository) ApplyDelta(ctx context.Context, userID int64, delta, minBalance decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE users
		SET balance = balance + $1::numeric, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $3::numeric
		RETURNING balance
	`

	var newBalance decimal.Decimal
	err := r.q.QueryRow(ctx, query, delta.String(), userID, minBalance.String()).Scan(&newBalance)
	if err == nil {
		return newBalance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, classify(fmt.Sprintf("failed to apply balance change for user %d", userID), err)
	}

	var exists bool
	err = r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return decimal.Zero, classify(fmt.Sprintf("failed to check user %d", userID), err)
	}
	if !exists {
		return decimal.Zero, fmt.Errorf("%w: %d", service.ErrUserNotFound, userID)
	}
	return decimal.Zero, fmt.Errorf("%w: need %s", service.ErrInsufficientBalance, minBalance.String())
}

// CountReferrals returns how many users name userID as their referrer
func (r *UserRepository) CountReferrals(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE referrer_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, classify(fmt.Sprintf("failed to count referrals for user %d", userID), err)
	}
	return count, nil
}
