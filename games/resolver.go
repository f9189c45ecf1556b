// Package games resolves single rounds of the mini-games against their
// declared payout tables.
package games

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"monkeybet/models"
)

// Flip: a forced-loss branch keeps the house edge above the nominal split.
const (
	FlipForcedLossChance = 0.015
	FlipWinChance        = 0.49
	FlipMultiplier       = 2.0
)

// Crash: most rounds crash instantly; the rest draw a multiplier and a
// simulated cash-out decision.
const (
	CrashInstantChance  = 0.60
	CrashHighChance     = 0.02
	CrashHighMin        = 1.5
	CrashHighMax        = 5.0
	CrashLowMin         = 1.0
	CrashLowMax         = 1.1
	CrashCashOutChance  = 0.80
	CrashLossMultiplier = 1.0
)

// Slot: one winning face out of 27.
const (
	SlotFaces       = 27
	SlotWinningFace = 1
	SlotMultiplier  = 20
)

// multiplierPlaces is the precision multipliers are reported with
const multiplierPlaces = 2

var ErrUnknownGame = errors.New("unknown game")

// Resolve plays one round of variant for bet using rng. Payout is
// bet × multiplier on a win and zero on a loss. No state survives between
// calls.
func Resolve(variant models.GameVariant, bet decimal.Decimal, rng RandomSource) (models.GameRound, error) {
	round := models.GameRound{Variant: variant, Bet: bet}

	switch variant {
	case models.GameFlip:
		resolveFlip(&round, rng)
	case models.GameCrash:
		resolveCrash(&round, rng)
	case models.GameSlot:
		resolveSlot(&round, rng)
	default:
		return models.GameRound{}, fmt.Errorf("%w: %q", ErrUnknownGame, variant)
	}

	if round.Win {
		round.Payout = bet.Mul(round.Multiplier)
	} else {
		round.Payout = decimal.Zero
	}

	return round, nil
}

func resolveFlip(round *models.GameRound, rng RandomSource) {
	if rng.Float64() < FlipForcedLossChance {
		round.Multiplier = decimal.Zero
		return
	}

	round.Win = rng.Float64() < FlipWinChance
	if round.Win {
		round.Multiplier = decimal.NewFromFloat(FlipMultiplier)
	} else {
		round.Multiplier = decimal.Zero
	}
}

func resolveCrash(round *models.GameRound, rng RandomSource) {
	// An instant crash reports 1.0x by convention but still pays nothing
	if rng.Float64() < CrashInstantChance {
		round.Multiplier = decimal.NewFromFloat(CrashLossMultiplier)
		return
	}

	var multiplier float64
	if rng.Float64() < CrashHighChance {
		multiplier = uniform(rng, CrashHighMin, CrashHighMax)
	} else {
		multiplier = uniform(rng, CrashLowMin, CrashLowMax)
	}

	round.Win = rng.Float64() < CrashCashOutChance
	if round.Win {
		round.Multiplier = decimal.NewFromFloat(multiplier).Round(multiplierPlaces)
	} else {
		round.Multiplier = decimal.NewFromFloat(CrashLossMultiplier)
	}
}

func resolveSlot(round *models.GameRound, rng RandomSource) {
	face := rng.Intn(SlotFaces) + 1
	round.Win = face == SlotWinningFace
	if round.Win {
		round.Multiplier = decimal.NewFromInt(SlotMultiplier)
	} else {
		round.Multiplier = decimal.Zero
	}
}

func uniform(rng RandomSource, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}

// ExpectedReturn is the theoretical return-to-player of variant: the mean
// payout per unit staked.
func ExpectedReturn(variant models.GameVariant) (float64, error) {
	switch variant {
	case models.GameFlip:
		return (1 - FlipForcedLossChance) * FlipWinChance * FlipMultiplier, nil
	case models.GameCrash:
		highMean := (CrashHighMin + CrashHighMax) / 2
		lowMean := (CrashLowMin + CrashLowMax) / 2
		meanMultiplier := CrashHighChance*highMean + (1-CrashHighChance)*lowMean
		return (1 - CrashInstantChance) * CrashCashOutChance * meanMultiplier, nil
	case models.GameSlot:
		return float64(SlotMultiplier) / float64(SlotFaces), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGame, variant)
}
