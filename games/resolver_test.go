package games

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monkeybet/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestResolve_Flip(t *testing.T) {
	tests := []struct {
		name       string
		floats     []float64
		wantWin    bool
		wantPayout string
	}{
		{"forced loss", []float64{0.0149}, false, "0"},
		{"win", []float64{0.5, 0.2}, true, "20"},
		{"win at boundary", []float64{0.015, 0.4899}, true, "20"},
		{"loss", []float64{0.5, 0.49}, false, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := NewScriptedSource(tt.floats, nil)
			round, err := Resolve(models.GameFlip, dec("10"), rng)
			require.NoError(t, err)

			assert.Equal(t, tt.wantWin, round.Win)
			assert.True(t, round.Payout.Equal(dec(tt.wantPayout)), "payout %s", round.Payout)
			floats, _ := rng.Remaining()
			assert.Zero(t, floats, "every scripted draw should be consumed")
		})
	}
}

func TestResolve_Crash(t *testing.T) {
	tests := []struct {
		name           string
		floats         []float64
		wantWin        bool
		wantMultiplier string
		wantPayout     string
	}{
		{"instant crash", []float64{0.59}, false, "1", "0"},
		{"low multiplier cashed out", []float64{0.7, 0.5, 0.5, 0.1}, true, "1.05", "105"},
		{"high multiplier cashed out", []float64{0.7, 0.01, 0.5, 0.79}, true, "3.25", "325"},
		{"high multiplier missed", []float64{0.7, 0.01, 0.5, 0.8}, false, "1", "0"},
		{"multiplier rounded to two places", []float64{0.9, 0.5, 0.123456, 0.0}, true, "1.01", "101"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			round, err := Resolve(models.GameCrash, dec("100"), NewScriptedSource(tt.floats, nil))
			require.NoError(t, err)

			assert.Equal(t, tt.wantWin, round.Win)
			assert.True(t, round.Multiplier.Equal(dec(tt.wantMultiplier)), "multiplier %s", round.Multiplier)
			assert.True(t, round.Payout.Equal(dec(tt.wantPayout)), "payout %s", round.Payout)
		})
	}
}

func TestResolve_Slot(t *testing.T) {
	// Intn(27) == 0 corresponds to face 1, the only winning face
	round, err := Resolve(models.GameSlot, dec("10"), NewScriptedSource(nil, []int{0}))
	require.NoError(t, err)
	assert.True(t, round.Win)
	assert.True(t, round.Payout.Equal(dec("200")))
	assert.True(t, round.Delta().Equal(dec("190")))
	assert.Equal(t, models.TransactionKindGameWin, round.TransactionKind())

	for _, draw := range []int{1, 13, 26} {
		round, err := Resolve(models.GameSlot, dec("10"), NewScriptedSource(nil, []int{draw}))
		require.NoError(t, err)
		assert.False(t, round.Win, "face %d", draw+1)
		assert.True(t, round.Payout.IsZero())
		assert.True(t, round.Delta().Equal(dec("-10")))
	}
}

func TestResolve_UnknownGame(t *testing.T) {
	_, err := Resolve(models.GameVariant("roulette"), dec("10"), NewSeededSource(1))
	assert.ErrorIs(t, err, ErrUnknownGame)
}

func TestResolve_PayoutIsBetTimesMultiplier(t *testing.T) {
	rng := NewSeededSource(42)
	bet := dec("7.25")

	for _, variant := range models.GameVariants {
		for i := 0; i < 5000; i++ {
			round, err := Resolve(variant, bet, rng)
			require.NoError(t, err)

			if round.Win {
				assert.True(t, round.Payout.Equal(bet.Mul(round.Multiplier)))
				assert.True(t, round.Delta().Equal(round.Payout.Sub(bet)))
			} else {
				require.True(t, round.Payout.IsZero())
				require.True(t, round.Delta().Equal(bet.Neg()))
			}
		}
	}
}

func TestResolve_SlotWinRate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping long-running statistical test")
	}

	const rounds = 1_000_000
	rng := NewSeededSource(7)
	wins := 0
	for i := 0; i < rounds; i++ {
		round, err := Resolve(models.GameSlot, dec("1"), rng)
		require.NoError(t, err)
		if round.Win {
			wins++
		}
	}

	rate := float64(wins) / rounds
	assert.InDelta(t, 1.0/27.0, rate, 0.002)
}

func TestResolve_FlipForcedLossRate(t *testing.T) {
	const rounds = 200_000
	rng := NewSeededSource(11)
	forced := 0
	for i := 0; i < rounds; i++ {
		// Mirror the first draw the resolver takes
		if rng.Float64() < FlipForcedLossChance {
			forced++
		}
	}
	assert.InDelta(t, FlipForcedLossChance, float64(forced)/rounds, 0.002)

	rng = NewSeededSource(11)
	wins := 0
	for i := 0; i < rounds; i++ {
		round, err := Resolve(models.GameFlip, dec("1"), rng)
		require.NoError(t, err)
		if round.Win {
			wins++
		}
	}
	expected := (1 - FlipForcedLossChance) * FlipWinChance
	assert.InDelta(t, expected, float64(wins)/rounds, 0.005)
}

func TestExpectedReturn(t *testing.T) {
	flip, err := ExpectedReturn(models.GameFlip)
	require.NoError(t, err)
	assert.InDelta(t, 0.9653, flip, 1e-9)

	crash, err := ExpectedReturn(models.GameCrash)
	require.NoError(t, err)
	assert.InDelta(t, 0.35008, crash, 1e-9)

	slot, err := ExpectedReturn(models.GameSlot)
	require.NoError(t, err)
	assert.InDelta(t, 20.0/27.0, slot, 1e-9)

	_, err = ExpectedReturn("dice")
	assert.ErrorIs(t, err, ErrUnknownGame)
}

func TestResolve_EmpiricalReturnMatchesExpected(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping long-running statistical test")
	}

	const rounds = 300_000
	rng := NewSeededSource(99)
	for _, variant := range models.GameVariants {
		paid := 0.0
		for i := 0; i < rounds; i++ {
			round, err := Resolve(variant, dec("1"), rng)
			require.NoError(t, err)
			p, _ := round.Payout.Float64()
			paid += p
		}
		want, err := ExpectedReturn(variant)
		require.NoError(t, err)
		got := paid / rounds
		assert.LessOrEqual(t, math.Abs(got-want), 0.03, "%s: got %.4f want %.4f", variant, got, want)
	}
}

func TestSharedSource_ConcurrentUse(t *testing.T) {
	rng := NewSharedSource()
	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 1000; i++ {
				v := rng.Float64()
				if v < 0 || v >= 1 {
					t.Errorf("draw out of range: %f", v)
				}
				_ = rng.Intn(SlotFaces)
			}
		}()
	}
	for g := 0; g < 8; g++ {
		<-done
	}
}
