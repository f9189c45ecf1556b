package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monkeybet/events"
	"monkeybet/games"
	"monkeybet/models"
	"monkeybet/repository/testutil"
	"monkeybet/service"
)

func TestUnitOfWork_CommitFlushesEvents(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	testutil.SeedUser(t, testDB.DB, 1, "alice", decimal.NewFromInt(100))

	bus := events.NewBus()
	received := make(chan events.BalanceChangeEvent, 1)
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		received <- event.(events.BalanceChangeEvent)
	})

	ledger := service.NewLedgerService(NewUnitOfWorkFactory(testDB.DB, bus))
	txn, err := ledger.AdjustBalance(context.Background(), 1, decimal.NewFromInt(5), models.TransactionKindClick, "click")
	require.NoError(t, err)
	assert.True(t, txn.BalanceAfter.Equal(decimal.NewFromInt(105)))

	select {
	case event := <-received:
		assert.Equal(t, txn.ID, event.TransactionID)
		assert.True(t, event.OldBalance.Equal(decimal.NewFromInt(100)))
	case <-time.After(2 * time.Second):
		t.Fatal("balance change event was not delivered after commit")
	}
}

func TestUnitOfWork_RollbackDiscardsEverything(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	testutil.SeedUser(t, testDB.DB, 1, "alice", decimal.NewFromInt(100))

	bus := events.NewBus()
	delivered := make(chan struct{}, 1)
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		delivered <- struct{}{}
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	ctx := context.Background()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	_, err := service.ApplyBalanceChange(ctx, uow, service.BalanceChange{
		UserID: 1,
		Amount: decimal.NewFromInt(-40),
		Kind:   models.TransactionKindWithdrawal,
	})
	require.NoError(t, err)
	require.NoError(t, uow.Rollback())
	bus.Wait()

	assert.True(t, testutil.Balance(t, testDB.DB, 1).Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 1, testutil.TransactionCount(t, testDB.DB, 1))
	select {
	case <-delivered:
		t.Fatal("events from a rolled back unit of work must not be delivered")
	default:
	}
}

func TestUnitOfWork_ExpiredDeadlineAppliesNothing(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	testutil.SeedUser(t, testDB.DB, 1, "alice", decimal.NewFromInt(100))

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	_, err := service.ApplyBalanceChange(ctx, uow, service.BalanceChange{
		UserID: 1,
		Amount: decimal.NewFromInt(-40),
		Kind:   models.TransactionKindWithdrawal,
	})
	require.NoError(t, err)

	// The deadline passes before the unit of work can commit
	<-ctx.Done()

	err = uow.Commit()
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrRepositoryUnavailable))
	require.NoError(t, uow.Rollback())

	assert.True(t, testutil.Balance(t, testDB.DB, 1).Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 1, testutil.TransactionCount(t, testDB.DB, 1))
}

func TestLedger_ConcurrentBetsAgainstPostgres(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	const (
		userID  = int64(42)
		workers = 40
	)
	initial := decimal.NewFromInt(200)
	testutil.SeedUser(t, testDB.DB, userID, "racer", initial)

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	session := service.NewSessionService(
		service.NewUserService(factory),
		service.NewLedgerService(factory),
		games.NewSharedSource(),
	)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		deltas  = decimal.Zero
		settled int
	)
	for i := 0; i < workers; i++ {
		variant := models.GameVariants[i%len(models.GameVariants)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := session.PlaceBet(context.Background(), userID, variant, decimal.NewFromInt(10))
			if err != nil {
				assert.ErrorIs(t, err, service.ErrInsufficientBalance)
				return
			}
			mu.Lock()
			deltas = deltas.Add(result.Round.Delta())
			settled++
			mu.Unlock()
		}()
	}
	wg.Wait()

	balance := testutil.Balance(t, testDB.DB, userID)
	assert.False(t, balance.IsNegative())
	assert.True(t, balance.Equal(initial.Add(deltas)), "balance %s, expected %s", balance, initial.Add(deltas))
	assert.Equal(t, settled+1, testutil.TransactionCount(t, testDB.DB, userID))

	sum, err := NewTransactionRepository(testDB.DB).SumByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(balance))
}

func TestWithdrawalFlowAgainstPostgres(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	testutil.SeedUser(t, testDB.DB, 1, "alice", decimal.NewFromInt(100))

	withdrawals := service.NewWithdrawalService(NewUnitOfWorkFactory(testDB.DB, events.NewBus()))
	ctx := context.Background()

	_, err := withdrawals.RequestWithdrawal(ctx, 1, decimal.NewFromInt(150))
	assert.ErrorIs(t, err, service.ErrInsufficientBalance)

	requested, err := withdrawals.RequestWithdrawal(ctx, 1, decimal.NewFromInt(60))
	require.NoError(t, err)
	assert.True(t, requested.NewBalance.Equal(decimal.NewFromInt(40)))

	_, err = withdrawals.RejectWithdrawal(ctx, requested.Withdrawal.ID, 999999)
	require.NoError(t, err)
	_, err = withdrawals.ApproveWithdrawal(ctx, requested.Withdrawal.ID, 999999)
	assert.ErrorIs(t, err, service.ErrInvalidWithdrawalTransition)

	assert.True(t, testutil.Balance(t, testDB.DB, 1).Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 3, testutil.TransactionCount(t, testDB.DB, 1))
}
