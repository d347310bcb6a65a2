package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/duel/internal/game/dice"
)

func TestRollResult_String(t *testing.T) {
	r := dice.RollResult{Min: 1, Max: 6, Value: 4}
	assert.Equal(t, "1d6 → 4", r.String())

	r = dice.RollResult{Min: 3, Max: 9, Value: 5}
	assert.Equal(t, "[3..9] → 5", r.String())
}

func TestBetween_Property_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	rapid.Check(t, func(rt *rapid.T) {
		lo := rapid.IntRange(-50, 50).Draw(rt, "lo")
		span := rapid.IntRange(0, 100).Draw(rt, "span")
		v := dice.Between(src, lo, lo+span)
		assert.GreaterOrEqual(rt, v, lo)
		assert.LessOrEqual(rt, v, lo+span)
	})
}

func TestBetween_PanicsOnInvertedRange(t *testing.T) {
	assert.Panics(t, func() { dice.Between(dice.NewCryptoSource(), 6, 1) })
}

func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

func TestCryptoSource_Intn_PanicsOnZero(t *testing.T) {
	src := dice.NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
}

func TestSeededSource_SameSeedSameSequence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		a := dice.NewSeededSource(seed)
		b := dice.NewSeededSource(seed)
		for i := 0; i < 20; i++ {
			assert.Equal(rt, a.IntRange(1, 6), b.IntRange(1, 6))
		}
		assert.Equal(rt, seed, a.Seed())
	})
}

func TestSequence_CyclesValues(t *testing.T) {
	seq := dice.NewSequence(2, 5, 1)
	got := []int{
		seq.IntRange(1, 6), seq.IntRange(1, 6), seq.IntRange(1, 6), seq.IntRange(1, 6),
	}
	assert.Equal(t, []int{2, 5, 1, 2}, got)
	assert.Equal(t, 1, seq.Drawn())
}

func TestSequence_PanicsOutOfRange(t *testing.T) {
	seq := dice.NewSequence(7)
	assert.Panics(t, func() { seq.IntRange(1, 6) })
}

func TestSequence_PanicsWhenEmpty(t *testing.T) {
	assert.Panics(t, func() { dice.NewSequence() })
}

func TestSequence_Intn_Modulo(t *testing.T) {
	seq := dice.NewSequence(7, -1)
	assert.Equal(t, 1, seq.Intn(6))
	assert.Equal(t, 5, seq.Intn(6))
}

func TestRoller_LogsAndRecords(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	roller := dice.NewLoggedRoller(dice.NewSequence(3, 6), zap.New(core))

	assert.Equal(t, 3, roller.IntRange(1, 6))
	assert.Equal(t, 6, roller.IntRange(1, 6))

	hist := roller.History()
	require.Len(t, hist, 2)
	assert.Equal(t, dice.RollResult{Min: 1, Max: 6, Value: 3}, hist[0])

	entries := logs.FilterMessage("dice roll").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "1d6", entries[0].ContextMap()["expression"])
	assert.Equal(t, int64(6), entries[1].ContextMap()["value"])
}
