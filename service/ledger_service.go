package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"monkeybet/events"
	"monkeybet/models"
)

type ledgerService struct {
	uowFactory UnitOfWorkFactory
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
	}
}

func (s *ledgerService) SettleRound(ctx context.Context, userID int64, round models.GameRound) (*models.Transaction, error) {
	if !round.Bet.IsPositive() {
		return nil, fmt.Errorf("%w: bet must be positive", ErrInvalidBet)
	}

	var txn *models.Transaction
	err := withUnitOfWork(ctx, s.uowFactory, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		txn, err = ApplyBalanceChange(ctx, uow, BalanceChange{
			UserID:      userID,
			Amount:      round.Delta(),
			MinBalance:  round.Bet,
			Kind:        round.TransactionKind(),
			Description: describeRound(round),
		})
		if err != nil {
			return fmt.Errorf("failed to settle %s round: %w", round.Variant, err)
		}

		uow.EventBus().Publish(events.RoundSettledEvent{
			UserID:     userID,
			Game:       round.Variant,
			Bet:        round.Bet,
			Win:        round.Win,
			Multiplier: round.Multiplier,
			Payout:     round.Payout,
			NewBalance: txn.BalanceAfter,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"userID":     userID,
		"game":       round.Variant,
		"bet":        round.Bet.String(),
		"win":        round.Win,
		"delta":      txn.Amount.String(),
		"newBalance": txn.BalanceAfter.String(),
	}).Info("Round settled")

	return txn, nil
}

func (s *ledgerService) AdjustBalance(ctx context.Context, userID int64, amount decimal.Decimal, kind models.TransactionKind, description string) (*models.Transaction, error) {
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: adjustment must not be zero", ErrInvalidAmount)
	}
	if !hasAtMostPlaces(amount, ledgerPlaces) {
		return nil, fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, ledgerPlaces)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction kind %q", ErrInvalidAmount, kind)
	}

	var txn *models.Transaction
	err := withUnitOfWork(ctx, s.uowFactory, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		txn, err = ApplyBalanceChange(ctx, uow, BalanceChange{
			UserID:      userID,
			Amount:      amount,
			Kind:        kind,
			Description: description,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"userID":     userID,
		"amount":     amount.String(),
		"kind":       kind,
		"newBalance": txn.BalanceAfter.String(),
	}).Info("Balance adjusted")

	return txn, nil
}

func describeRound(round models.GameRound) string {
	outcome := "lose"
	if round.Win {
		outcome = "win"
	}
	return fmt.Sprintf("%s %s: bet %s x%s", round.Variant, outcome, round.Bet.StringFixed(userFacingPlaces), round.Multiplier.String())
}
