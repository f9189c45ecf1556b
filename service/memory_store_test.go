package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"monkeybet/events"
	"monkeybet/models"
)

// memoryStore is an in-process stand-in for Postgres. A unit of work holds
// a per-user lock from its first balance update until commit or rollback,
// like a row lock, and undoes its writes on rollback.
type memoryStore struct {
	mu           sync.Mutex
	users        map[int64]*models.User
	transactions []*models.Transaction
	withdrawals  map[int64]*models.Withdrawal
	nextTxnID    int64
	nextWdID     int64
	userLocks    map[int64]*sync.Mutex
	bus          *events.Bus
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:       make(map[int64]*models.User),
		withdrawals: make(map[int64]*models.Withdrawal),
		userLocks:   make(map[int64]*sync.Mutex),
		bus:         events.NewBus(),
	}
}

// seedUser creates a user whose balance is backed by an opening transaction
func (s *memoryStore) seedUser(id int64, username string, balance decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.users[id] = &models.User{ID: id, Username: username, Balance: balance, CreatedAt: now, UpdatedAt: now}
	if !balance.IsZero() {
		s.nextTxnID++
		s.transactions = append(s.transactions, &models.Transaction{
			ID: s.nextTxnID, UserID: id, Amount: balance, Kind: models.TransactionKindOther,
			Description: "seed", BalanceAfter: balance, CreatedAt: now,
		})
	}
}

func (s *memoryStore) balance(id int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].Balance
}

func (s *memoryStore) userExists(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	return ok
}

func (s *memoryStore) transactionsFor(id int64) []*models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Transaction
	for _, txn := range s.transactions {
		if txn.UserID == id {
			out = append(out, txn)
		}
	}
	return out
}

func (s *memoryStore) sumFor(id int64) decimal.Decimal {
	sum := decimal.Zero
	for _, txn := range s.transactionsFor(id) {
		sum = sum.Add(txn.Amount)
	}
	return sum
}

func (s *memoryStore) userLock(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[id] = lock
	}
	return lock
}

func (s *memoryStore) Create() UnitOfWork {
	return &memoryUnitOfWork{store: s, bus: events.NewTransactionalBus(s.bus), held: make(map[int64]*sync.Mutex)}
}

type memoryUnitOfWork struct {
	store  *memoryStore
	bus    *events.TransactionalBus
	ctx    context.Context
	active bool
	undo   []func()
	held   map[int64]*sync.Mutex
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error {
	if u.active {
		return errors.New("transaction already started")
	}
	u.ctx = ctx
	u.active = true
	return nil
}

func (u *memoryUnitOfWork) Commit() error {
	if !u.active {
		return errors.New("no transaction to commit")
	}
	if err := u.ctx.Err(); err != nil {
		u.rollback()
		return ErrRepositoryUnavailable
	}
	u.active = false
	u.undo = nil
	u.release()
	return u.bus.Flush(u.ctx)
}

func (u *memoryUnitOfWork) Rollback() error {
	if !u.active {
		return nil
	}
	u.rollback()
	return nil
}

func (u *memoryUnitOfWork) rollback() {
	u.store.mu.Lock()
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.store.mu.Unlock()
	u.undo = nil
	u.active = false
	u.release()
	u.bus.Discard()
}

func (u *memoryUnitOfWork) release() {
	for id, lock := range u.held {
		lock.Unlock()
		delete(u.held, id)
	}
}

func (u *memoryUnitOfWork) lockUser(id int64) {
	if _, ok := u.held[id]; ok {
		return
	}
	lock := u.store.userLock(id)
	lock.Lock()
	u.held[id] = lock
}

func (u *memoryUnitOfWork) UserRepository() UserRepository { return memoryUsers{u} }
func (u *memoryUnitOfWork) TransactionRepository() TransactionRepository {
	return memoryTransactions{u}
}
func (u *memoryUnitOfWork) WithdrawalRepository() WithdrawalRepository { return memoryWithdrawals{u} }
func (u *memoryUnitOfWork) EventBus() EventPublisher                   { return u.bus }

type memoryUsers struct{ u *memoryUnitOfWork }

func (r memoryUsers) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r memoryUsers) Create(ctx context.Context, userID int64, username string, referrerID *int64) (*models.User, bool, error) {
	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[userID]; ok {
		copied := *existing
		return &copied, false, nil
	}
	now := time.Now()
	user := &models.User{ID: userID, Username: username, Balance: decimal.Zero, ReferrerID: referrerID, CreatedAt: now, UpdatedAt: now}
	s.users[userID] = user
	r.u.undo = append(r.u.undo, func() { delete(s.users, userID) })
	copied := *user
	return &copied, true, nil
}

func (r memoryUsers) ApplyDelta(ctx context.Context, userID int64, delta, minBalance decimal.Decimal) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, ErrRepositoryUnavailable
	}
	r.u.lockUser(userID)

	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return decimal.Zero, ErrUserNotFound
	}
	if user.Balance.LessThan(minBalance) {
		return decimal.Zero, ErrInsufficientBalance
	}
	user.Balance = user.Balance.Add(delta)
	r.u.undo = append(r.u.undo, func() { user.Balance = user.Balance.Sub(delta) })
	return user.Balance, nil
}

func (r memoryUsers) CountReferrals(ctx context.Context, userID int64) (int64, error) {
	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, user := range s.users {
		if user.ReferrerID != nil && *user.ReferrerID == userID {
			count++
		}
	}
	return count, nil
}

type memoryTransactions struct{ u *memoryUnitOfWork }

func (r memoryTransactions) Append(ctx context.Context, txn *models.Transaction) error {
	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTxnID++
	txn.ID = s.nextTxnID
	txn.CreatedAt = time.Now()
	stored := *txn
	s.transactions = append(s.transactions, &stored)
	r.u.undo = append(r.u.undo, func() {
		for i, t := range s.transactions {
			if t.ID == stored.ID {
				s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r memoryTransactions) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error) {
	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Transaction
	for i := len(s.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		if s.transactions[i].UserID == userID {
			copied := *s.transactions[i]
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r memoryTransactions) SumByUser(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return r.u.store.sumFor(userID), nil
}

type memoryWithdrawals struct{ u *memoryUnitOfWork }

func (r memoryWithdrawals) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextWdID++
	now := time.Now()
	withdrawal.ID = s.nextWdID
	withdrawal.CreatedAt = now
	withdrawal.UpdatedAt = now
	stored := *withdrawal
	s.withdrawals[stored.ID] = &stored
	r.u.undo = append(r.u.undo, func() { delete(s.withdrawals, stored.ID) })
	return nil
}

func (r memoryWithdrawals) GetByID(ctx context.Context, id int64) (*models.Withdrawal, error) {
	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	withdrawal, ok := s.withdrawals[id]
	if !ok {
		return nil, nil
	}
	copied := *withdrawal
	return &copied, nil
}

func (r memoryWithdrawals) TransitionStatus(ctx context.Context, id int64, from, to models.WithdrawalStatus, reviewerID int64) (*models.Withdrawal, error) {
	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	withdrawal, ok := s.withdrawals[id]
	if !ok || withdrawal.Status != from {
		return nil, nil
	}
	previous := *withdrawal
	withdrawal.Status = to
	withdrawal.ReviewedBy = &reviewerID
	withdrawal.UpdatedAt = time.Now()
	r.u.undo = append(r.u.undo, func() { *withdrawal = previous })
	copied := *withdrawal
	return &copied, nil
}

func (r memoryWithdrawals) List(ctx context.Context, status *models.WithdrawalStatus) ([]*models.Withdrawal, error) {
	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Withdrawal
	for _, withdrawal := range s.withdrawals {
		if status != nil && withdrawal.Status != *status {
			continue
		}
		copied := *withdrawal
		if user, ok := s.users[copied.UserID]; ok {
			copied.Username = user.Username
		}
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
