package models

import (
	"github.com/shopspring/decimal"
)

// GameVariant identifies one of the mini-games
type GameVariant string

const (
	GameFlip  GameVariant = "flip"
	GameCrash GameVariant = "crash"
	GameSlot  GameVariant = "slot"
)

// GameVariants lists every playable variant
var GameVariants = []GameVariant{GameFlip, GameCrash, GameSlot}

// ParseGameVariant converts a raw game name
func ParseGameVariant(raw string) (GameVariant, bool) {
	variant := GameVariant(raw)
	switch variant {
	case GameFlip, GameCrash, GameSlot:
		return variant, true
	}
	return "", false
}

// GameRound is one resolved bet. It is never stored directly; it is
// reflected into a single ledger transaction.
type GameRound struct {
	Variant    GameVariant
	Bet        decimal.Decimal
	Win        bool
	Multiplier decimal.Decimal
	Payout     decimal.Decimal // 0 on a loss
}

// Delta is the signed balance change the round produces:
// payout - bet on a win, -bet on a loss.
func (r GameRound) Delta() decimal.Decimal {
	if r.Win {
		return r.Payout.Sub(r.Bet)
	}
	return r.Bet.Neg()
}

// TransactionKind returns the ledger kind for the round's outcome
func (r GameRound) TransactionKind() TransactionKind {
	if r.Win {
		return TransactionKindGameWin
	}
	return TransactionKindGameLose
}

// BetResult represents the outcome of a bet (returned to the user)
type BetResult struct {
	Round         GameRound
	NewBalance    decimal.Decimal
	TransactionID int64
}

// LoginResult represents a successful login (returned to the user)
type LoginResult struct {
	UserID   int64
	Username string
	Redirect string
	Created  bool
}
