package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynthetic_Generate(t *testing.T) {
	gen := NewSynthetic(SyntheticConfig{})

	t.Run("Deterministic For Same Inputs", func(t *testing.T) {
		a := gen.Generate("BTCUSDT", "1h", 50, 1_700_000_000_000, 0)
		b := gen.Generate("BTCUSDT", "1h", 50, 1_700_000_000_000, 0)
		assert.Equal(t, a, b)
	})

	t.Run("Different Symbols Diverge", func(t *testing.T) {
		a := gen.Generate("BTCUSDT", "1h", 10, 0, 0)
		b := gen.Generate("ETHUSDT", "1h", 10, 0, 0)
		assert.NotEqual(t, a[0].Open, b[0].Open)
	})

	t.Run("Count And Spacing", func(t *testing.T) {
		start := int64(1_700_000_000_000)
		candles := gen.Generate("BTCUSDT", "1h", 48, start, 0)
		assert.Len(t, candles, 48)
		for i, c := range candles {
			assert.Equal(t, start+int64(i)*3_600_000, c.OpenTime)
			assert.Equal(t, c.OpenTime+3_600_000-1, c.CloseTime)
		}
	})

	t.Run("Unknown Interval Spaced One Minute", func(t *testing.T) {
		candles := gen.Generate("BTCUSDT", "9z", 3, 0, 0)
		assert.Len(t, candles, 3)
		assert.Equal(t, int64(60_000), candles[1].OpenTime)
		assert.Equal(t, int64(120_000), candles[2].OpenTime)
	})

	t.Run("Non Positive Count Is Empty", func(t *testing.T) {
		assert.Empty(t, gen.Generate("BTCUSDT", "1m", 0, 0, 0))
		assert.Empty(t, gen.Generate("BTCUSDT", "1m", -5, 0, 0))
	})

	t.Run("Stops Before End Bound", func(t *testing.T) {
		// 区间只容得下 2 根 1m K 线，即便 count 更大
		candles := gen.Generate("BTCUSDT", "1m", 10, 0, 120_000)
		assert.Len(t, candles, 2)
	})

	t.Run("OHLC Shape Is Coherent", func(t *testing.T) {
		for _, c := range gen.Generate("SOLUSDT", "15m", 200, 0, 0) {
			assert.GreaterOrEqual(t, c.High, c.Open)
			assert.GreaterOrEqual(t, c.High, c.Close)
			assert.LessOrEqual(t, c.Low, c.Open)
			assert.LessOrEqual(t, c.Low, c.Close)
			assert.Positive(t, c.Open)
			assert.Positive(t, c.Volume)
		}
	})
}
