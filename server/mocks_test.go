package server

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"monkeybet/models"
	"monkeybet/service"
)

type mockSessionService struct {
	mock.Mock
}

func (m *mockSessionService) Login(ctx context.Context, req service.LoginRequest) (*models.LoginResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginResult), args.Error(1)
}

func (m *mockSessionService) PlaceBet(ctx context.Context, userID int64, variant models.GameVariant, bet decimal.Decimal) (*models.BetResult, error) {
	args := m.Called(ctx, userID, variant, bet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetResult), args.Error(1)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) GetOrCreateUser(ctx context.Context, userID int64, username string, referrerID *int64) (*models.User, bool, error) {
	args := m.Called(ctx, userID, username, referrerID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *mockUserService) GetProfile(ctx context.Context, userID int64, historyLimit int) (*models.UserProfile, error) {
	args := m.Called(ctx, userID, historyLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

type mockWithdrawalService struct {
	mock.Mock
}

func (m *mockWithdrawalService) RequestWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal) (*models.WithdrawalResult, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WithdrawalResult), args.Error(1)
}

func (m *mockWithdrawalService) ApproveWithdrawal(ctx context.Context, withdrawalID int64, adminID int64) (*models.Withdrawal, error) {
	args := m.Called(ctx, withdrawalID, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalService) RejectWithdrawal(ctx context.Context, withdrawalID int64, adminID int64) (*models.Withdrawal, error) {
	args := m.Called(ctx, withdrawalID, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalService) ListWithdrawals(ctx context.Context, status *models.WithdrawalStatus) ([]*models.Withdrawal, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalService) IsAdmin(userID int64) bool {
	return m.Called(userID).Bool(0)
}
