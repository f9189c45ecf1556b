package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"monkeybet/database"
	"monkeybet/models"
)

// WithdrawalRepository implements the WithdrawalRepository interface
type WithdrawalRepository struct {
	q queryable
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *database.DB) *WithdrawalRepository {
	return &WithdrawalRepository{q: db.Pool}
}

func newWithdrawalRepositoryWithTx(tx queryable) *WithdrawalRepository {
	return &WithdrawalRepository{q: tx}
}

const withdrawalColumns = `w.id, w.user_id, COALESCE(u.username, ''), w.amount, w.status, w.reviewed_by, w.created_at, w.updated_at`

func scanWithdrawal(row pgx.Row) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	var status string
	err := row.Scan(
		&withdrawal.ID,
		&withdrawal.UserID,
		&withdrawal.Username,
		&withdrawal.Amount,
		&status,
		&withdrawal.ReviewedBy,
		&withdrawal.CreatedAt,
		&withdrawal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	withdrawal.Status = models.WithdrawalStatus(status)
	return &withdrawal, nil
}

// Create stores a new withdrawal request
func (r *WithdrawalRepository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	query := `
		INSERT INTO withdrawals (user_id, amount, status)
		VALUES ($1, $2::numeric, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		withdrawal.UserID,
		withdrawal.Amount.String(),
		string(withdrawal.Status),
	).Scan(&withdrawal.ID, &withdrawal.CreatedAt, &withdrawal.UpdatedAt)
	if err != nil {
		return classify(fmt.Sprintf("failed to create withdrawal for user %d", withdrawal.UserID), err)
	}
	return nil
}

// GetByID retrieves a withdrawal by ID, returning nil if it does not exist
func (r *WithdrawalRepository) GetByID(ctx context.Context, id int64) (*models.Withdrawal, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals w
		LEFT JOIN users u ON u.user_id = w.user_id
		WHERE w.id = $1
	`

	withdrawal, err := scanWithdrawal(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(fmt.Sprintf("failed to get withdrawal %d", id), err)
	}
	return withdrawal, nil
}

// TransitionStatus moves a withdrawal to a new status only while it is
// still in from. Returns nil when nothing matched.
func (r *WithdrawalRepository) TransitionStatus(ctx context.Context, id int64, from, to models.WithdrawalStatus, reviewerID int64) (*models.Withdrawal, error) {
	query := `
		WITH updated AS (
			UPDATE withdrawals
			SET status = $3, reviewed_by = $4, updated_at = NOW()
			WHERE id = $1 AND status = $2
			RETURNING *
		)
		SELECT ` + withdrawalColumns + `
		FROM updated w
		LEFT JOIN users u ON u.user_id = w.user_id
	`

	withdrawal, err := scanWithdrawal(r.q.QueryRow(ctx, query, id, string(from), string(to), reviewerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(fmt.Sprintf("failed to update withdrawal %d", id), err)
	}
	return withdrawal, nil
}

// List returns withdrawals joined with the requesting user's name, newest
// first, optionally filtered by status
func (r *WithdrawalRepository) List(ctx context.Context, status *models.WithdrawalStatus) ([]*models.Withdrawal, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals w
		LEFT JOIN users u ON u.user_id = w.user_id
		WHERE ($1::text IS NULL OR w.status = $1::text)
		ORDER BY w.created_at DESC, w.id DESC
	`

	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}

	rows, err := r.q.Query(ctx, query, statusArg)
	if err != nil {
		return nil, classify("failed to list withdrawals", err)
	}
	defer rows.Close()

	var withdrawals []*models.Withdrawal
	for rows.Next() {
		withdrawal, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, withdrawal)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("failed to iterate withdrawals", err)
	}

	return withdrawals, nil
}
