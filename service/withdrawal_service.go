package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"monkeybet/config"
	"monkeybet/events"
	"monkeybet/models"
)

type withdrawalService struct {
	uowFactory UnitOfWorkFactory
}

// NewWithdrawalService creates a new withdrawal service
func NewWithdrawalService(uowFactory UnitOfWorkFactory) WithdrawalService {
	return &withdrawalService{
		uowFactory: uowFactory,
	}
}

func (s *withdrawalService) RequestWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal) (*models.WithdrawalResult, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: withdrawal amount must be positive", ErrInvalidAmount)
	}
	if !hasAtMostPlaces(amount, userFacingPlaces) {
		return nil, fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, userFacingPlaces)
	}

	var result *models.WithdrawalResult
	err := withUnitOfWork(ctx, s.uowFactory, func(ctx context.Context, uow UnitOfWork) error {
		// The debit and the pending record commit together or not at all
		txn, err := ApplyBalanceChange(ctx, uow, BalanceChange{
			UserID:      userID,
			Amount:      amount.Neg(),
			Kind:        models.TransactionKindWithdrawal,
			Description: "withdrawal_request " + amount.StringFixed(userFacingPlaces),
		})
		if err != nil {
			return fmt.Errorf("failed to debit withdrawal: %w", err)
		}

		withdrawal := &models.Withdrawal{
			UserID: userID,
			Amount: amount,
			Status: models.WithdrawalStatusPending,
		}
		if err := uow.WithdrawalRepository().Create(ctx, withdrawal); err != nil {
			return fmt.Errorf("failed to create withdrawal: %w", err)
		}

		user, err := uow.UserRepository().GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if user != nil {
			withdrawal.Username = user.Username
		}

		uow.EventBus().Publish(events.WithdrawalRequestedEvent{
			WithdrawalID: withdrawal.ID,
			UserID:       userID,
			Username:     withdrawal.Username,
			Amount:       amount,
		})

		result = &models.WithdrawalResult{
			Withdrawal: withdrawal,
			NewBalance: txn.BalanceAfter,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"userID":       userID,
		"withdrawalID": result.Withdrawal.ID,
		"amount":       amount.String(),
	}).Info("Withdrawal requested")

	return result, nil
}

func (s *withdrawalService) ApproveWithdrawal(ctx context.Context, withdrawalID int64, adminID int64) (*models.Withdrawal, error) {
	return s.review(ctx, withdrawalID, adminID, models.WithdrawalStatusApproved)
}

func (s *withdrawalService) RejectWithdrawal(ctx context.Context, withdrawalID int64, adminID int64) (*models.Withdrawal, error) {
	return s.review(ctx, withdrawalID, adminID, models.WithdrawalStatusRejected)
}

// review moves a pending withdrawal to a terminal status. A rejection
// returns the debited amount to the user in the same unit of work.
func (s *withdrawalService) review(ctx context.Context, withdrawalID int64, adminID int64, to models.WithdrawalStatus) (*models.Withdrawal, error) {
	if !s.IsAdmin(adminID) {
		return nil, fmt.Errorf("%w: user %d cannot review withdrawals", ErrForbidden, adminID)
	}

	var updated *models.Withdrawal
	err := withUnitOfWork(ctx, s.uowFactory, func(ctx context.Context, uow UnitOfWork) error {
		withdrawal, err := uow.WithdrawalRepository().GetByID(ctx, withdrawalID)
		if err != nil {
			return fmt.Errorf("failed to get withdrawal: %w", err)
		}
		if withdrawal == nil {
			return fmt.Errorf("%w: %d", ErrWithdrawalNotFound, withdrawalID)
		}
		if !withdrawal.Status.CanTransitionTo(to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidWithdrawalTransition, withdrawal.Status, to)
		}

		// Conditional on pending so a concurrent review cannot apply twice
		updated, err = uow.WithdrawalRepository().TransitionStatus(ctx, withdrawalID, models.WithdrawalStatusPending, to, adminID)
		if err != nil {
			return fmt.Errorf("failed to update withdrawal status: %w", err)
		}
		if updated == nil {
			return fmt.Errorf("%w: withdrawal %d is no longer pending", ErrInvalidWithdrawalTransition, withdrawalID)
		}

		if to == models.WithdrawalStatusRejected {
			_, err := ApplyBalanceChange(ctx, uow, BalanceChange{
				UserID:      updated.UserID,
				Amount:      updated.Amount,
				Kind:        models.TransactionKindWithdrawal,
				Description: fmt.Sprintf("withdrawal_rejected #%d", updated.ID),
			})
			if err != nil {
				return fmt.Errorf("failed to refund rejected withdrawal: %w", err)
			}
		}

		uow.EventBus().Publish(events.WithdrawalStatusChangedEvent{
			WithdrawalID: updated.ID,
			UserID:       updated.UserID,
			Amount:       updated.Amount,
			OldStatus:    models.WithdrawalStatusPending,
			NewStatus:    to,
			ReviewedBy:   adminID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"withdrawalID": withdrawalID,
		"adminID":      adminID,
		"status":       to,
	}).Info("Withdrawal reviewed")

	return updated, nil
}

func (s *withdrawalService) ListWithdrawals(ctx context.Context, status *models.WithdrawalStatus) ([]*models.Withdrawal, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *status)
	}

	var withdrawals []*models.Withdrawal
	err := withUnitOfWork(ctx, s.uowFactory, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		withdrawals, err = uow.WithdrawalRepository().List(ctx, status)
		if err != nil {
			return fmt.Errorf("failed to list withdrawals: %w", err)
		}
		return nil
	})
	return withdrawals, err
}

func (s *withdrawalService) IsAdmin(userID int64) bool {
	return config.Get().IsAdmin(userID)
}
