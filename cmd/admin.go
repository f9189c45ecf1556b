package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"monkeybet/config"
	"monkeybet/database"
	"monkeybet/events"
	"monkeybet/models"
	"monkeybet/repository"
	"monkeybet/service"
)

const defaultAdjustmentDescription = "manual balance adjustment"

// UpdateBalance applies a signed admin correction to a user's balance. It is
// recorded in the ledger like any other change.
func UpdateBalance(ctx context.Context, userID int64, amount decimal.Decimal, description string) (*models.Transaction, error) {
	cfg := config.Get()
	ConfigureLogging(cfg)

	if description == "" {
		description = defaultAdjustmentDescription
	}

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	bus := events.NewBus()
	ledger := service.NewLedgerService(repository.NewUnitOfWorkFactory(db, bus))

	txn, err := ledger.AdjustBalance(ctx, userID, amount, models.TransactionKindOther, description)
	if err != nil {
		return nil, err
	}
	bus.Wait()

	log.WithFields(log.Fields{
		"userID":     userID,
		"amount":     amount.String(),
		"newBalance": txn.BalanceAfter.String(),
	}).Info("Balance updated")
	return txn, nil
}
