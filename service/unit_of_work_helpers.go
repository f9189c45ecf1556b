package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"monkeybet/config"
)

// ledgerPlaces is the precision money is stored with
const ledgerPlaces = 4

// userFacingPlaces is the precision accepted for bets and withdrawals
const userFacingPlaces = 2

// repositoryContext bounds every repository interaction. When the deadline
// passes the database transaction is aborted, so nothing applies partially.
func repositoryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, config.Get().RepositoryTimeout)
}

// withUnitOfWork runs fn inside a fresh unit of work and commits when fn
// succeeds. Any error rolls the whole unit back.
func withUnitOfWork(ctx context.Context, factory UnitOfWorkFactory, fn func(ctx context.Context, uow UnitOfWork) error) error {
	ctx, cancel := repositoryContext(ctx)
	defer cancel()

	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if err := fn(ctx, uow); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// hasAtMostPlaces reports whether d needs no more than places decimals
func hasAtMostPlaces(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}
