package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"monkeybet/config"
	"monkeybet/events"
	"monkeybet/models"
)

// DefaultHistoryLimit is how many transactions a profile shows
const DefaultHistoryLimit = 20

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory) UserService {
	return &userService{
		uowFactory: uowFactory,
	}
}

// GetOrCreateUser retrieves an existing user or creates a new one. The
// referrer is only recorded at creation, and only when it names another
// existing user.
func (s *userService) GetOrCreateUser(ctx context.Context, userID int64, username string, referrerID *int64) (*models.User, bool, error) {
	var (
		user    *models.User
		created bool
	)

	err := withUnitOfWork(ctx, s.uowFactory, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		user, err = uow.UserRepository().GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}
		if user != nil {
			return nil
		}

		referrerID, err = s.validReferrer(ctx, uow, userID, referrerID)
		if err != nil {
			return err
		}

		// A concurrent first login may win the insert; created tells us who did
		user, created, err = uow.UserRepository().Create(ctx, userID, username, referrerID)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if !created {
			return nil
		}

		startingBalance := config.Get().StartingBalance
		if startingBalance.IsPositive() {
			txn, err := ApplyBalanceChange(ctx, uow, BalanceChange{
				UserID:      userID,
				Amount:      startingBalance,
				Kind:        models.TransactionKindOther,
				Description: "starting balance",
			})
			if err != nil {
				return fmt.Errorf("failed to record starting balance: %w", err)
			}
			user.Balance = txn.BalanceAfter
		}

		uow.EventBus().Publish(events.UserCreatedEvent{
			UserID:         userID,
			Username:       username,
			ReferrerID:     user.ReferrerID,
			InitialBalance: user.Balance,
		})
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		log.WithFields(log.Fields{
			"userID":     userID,
			"username":   username,
			"referrerID": user.ReferrerID,
		}).Info("User created")
	}

	return user, created, nil
}

func (s *userService) validReferrer(ctx context.Context, uow UnitOfWork, userID int64, referrerID *int64) (*int64, error) {
	if referrerID == nil {
		return nil, nil
	}
	if *referrerID == userID {
		log.WithField("userID", userID).Debug("Ignoring self referral")
		return nil, nil
	}

	referrer, err := uow.UserRepository().GetByID(ctx, *referrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check referrer: %w", err)
	}
	if referrer == nil {
		log.WithFields(log.Fields{
			"userID":     userID,
			"referrerID": *referrerID,
		}).Debug("Ignoring unknown referrer")
		return nil, nil
	}
	return referrerID, nil
}

// GetProfile returns the user with referral count and recent history
func (s *userService) GetProfile(ctx context.Context, userID int64, historyLimit int) (*models.UserProfile, error) {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	var profile *models.UserProfile
	err := withUnitOfWork(ctx, s.uowFactory, func(ctx context.Context, uow UnitOfWork) error {
		user, err := uow.UserRepository().GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("%w: %d", ErrUserNotFound, userID)
		}

		referrals, err := uow.UserRepository().CountReferrals(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to count referrals: %w", err)
		}

		history, err := uow.TransactionRepository().GetByUser(ctx, userID, historyLimit)
		if err != nil {
			return fmt.Errorf("failed to get transactions: %w", err)
		}

		profile = &models.UserProfile{
			User:               user,
			ReferralCount:      referrals,
			RecentTransactions: history,
		}
		return nil
	})
	return profile, err
}
