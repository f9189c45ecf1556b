package service

import (
	"errors"

	"monkeybet/games"
)

var (
	ErrAuthenticationFailure       = errors.New("authentication failed")
	ErrInsufficientBalance         = errors.New("insufficient balance")
	ErrUserNotFound                = errors.New("user not found")
	ErrRepositoryUnavailable       = errors.New("repository unavailable")
	ErrInvalidWithdrawalTransition = errors.New("invalid withdrawal transition")
	ErrInvalidBet                  = errors.New("invalid bet")
	ErrUnknownGame                 = games.ErrUnknownGame
	ErrInvalidAmount               = errors.New("invalid amount")
	ErrInvalidStatus               = errors.New("invalid withdrawal status")
	ErrWithdrawalNotFound          = errors.New("withdrawal not found")
	ErrForbidden                   = errors.New("forbidden")
)

func IsAuthenticationFailure(err error) bool {
	return errors.Is(err, ErrAuthenticationFailure)
}

func IsInsufficientBalance(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

// IsNotFound reports whether err names a missing user or withdrawal
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrWithdrawalNotFound)
}

// IsBadRequest reports whether err was caused by invalid caller input
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrInvalidBet) ||
		errors.Is(err, ErrUnknownGame) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInsufficientBalance)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidWithdrawalTransition)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsUnavailable reports whether err is transient and the call may be retried
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrRepositoryUnavailable)
}
