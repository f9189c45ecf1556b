package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"monkeybet/games"
	"monkeybet/models"
)

const defaultSimulationRounds = 1_000_000

// simulationResult summarizes repeated unit bets on one game
type simulationResult struct {
	Variant  models.GameVariant
	Rounds   int
	Wins     int
	Wagered  decimal.Decimal
	Returned decimal.Decimal
}

func (r simulationResult) winRate() float64 {
	return float64(r.Wins) / float64(r.Rounds)
}

func (r simulationResult) returnToPlayer() float64 {
	if r.Wagered.IsZero() {
		return 0
	}
	return r.Returned.Div(r.Wagered).InexactFloat64()
}

// simulateGame plays rounds unit bets through the resolver
func simulateGame(variant models.GameVariant, rounds int, rng games.RandomSource) (simulationResult, error) {
	result := simulationResult{
		Variant:  variant,
		Rounds:   rounds,
		Wagered:  decimal.Zero,
		Returned: decimal.Zero,
	}
	bet := decimal.NewFromInt(1)

	for i := 0; i < rounds; i++ {
		round, err := games.Resolve(variant, bet, rng)
		if err != nil {
			return result, err
		}
		result.Wagered = result.Wagered.Add(bet)
		result.Returned = result.Returned.Add(round.Payout)
		if round.Win {
			result.Wins++
		}
	}
	return result, nil
}

func handleSimulate(args []string) error {
	rounds := defaultSimulationRounds
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid round count %q", args[0])
		}
		rounds = n
	}

	rng := games.NewSharedSource()
	fmt.Printf("=== Payout simulation (%d rounds per game) ===\n\n", rounds)

	for _, variant := range models.GameVariants {
		result, err := simulateGame(variant, rounds, rng)
		if err != nil {
			return err
		}
		expected, err := games.ExpectedReturn(variant)
		if err != nil {
			return err
		}

		actual := result.returnToPlayer()
		fmt.Printf("%-6s | wins: %8d (%6.3f%%) | RTP: %7.4f%% | expected: %7.4f%% | deviation: %+.4f%%\n",
			variant,
			result.Wins,
			result.winRate()*100,
			actual*100,
			expected*100,
			(actual-expected)*100,
		)
	}

	fmt.Printf("\nHouse edge is 1 - RTP. Deviation shrinks roughly with 1/sqrt(rounds) = %.5f\n",
		1/math.Sqrt(float64(rounds)))
	return nil
}
