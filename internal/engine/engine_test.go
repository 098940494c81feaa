package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vela/internal/market"
)

func hourlyCandles(closes ...float64) []market.Candle {
	const step = int64(3_600_000)
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{
			OpenTime:  int64(i) * step,
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1,
			CloseTime: int64(i)*step + step - 1,
		}
	}
	return out
}

func fastSlowConfig(extra map[string]any) map[string]any {
	cfg := map[string]any{
		"symbol":     "BTCUSDT",
		"interval":   "1h",
		"fastPeriod": 2,
		"slowPeriod": 3,
		"feeRate":    0,
	}
	for k, v := range extra {
		cfg[k] = v
	}
	return cfg
}

func TestEngine_Run(t *testing.T) {
	t.Run("Golden Cross Then Death Cross", func(t *testing.T) {
		eng, err := New(Params{
			Start:          0,
			End:            7 * 3_600_000,
			InitialCapital: 100,
			TradingConfig:  fastSlowConfig(nil),
		})
		assert.NoError(t, err)

		// 金叉出现在 close=20，死叉在 close=5：买 20 卖 5，单笔亏损
		res, err := eng.Run(hourlyCandles(10, 10, 10, 20, 30, 5, 5))
		assert.NoError(t, err)
		assert.InDelta(t, 25, res.FinalCapital, 1e-9)
		assert.InDelta(t, -75, res.ReturnPct, 1e-9)
		assert.Equal(t, 1, res.Trades)
		assert.Equal(t, 0, res.Wins)
		assert.Equal(t, 1, res.Losses)
		assert.Zero(t, res.WinRate)
		assert.InDelta(t, -50, res.BuyHoldReturnPct, 1e-9)
		assert.InDelta(t, 83.3333, res.MaxDrawdownPct, 0.001)
		assert.Equal(t, "BTCUSDT", res.Symbol)
		assert.Equal(t, int64(0), res.StartDate)
	})

	t.Run("Liquidates Open Position At End", func(t *testing.T) {
		eng, err := New(Params{InitialCapital: 100, TradingConfig: fastSlowConfig(nil)})
		assert.NoError(t, err)

		res, err := eng.Run(hourlyCandles(10, 10, 10, 20, 30, 40))
		assert.NoError(t, err)
		assert.InDelta(t, 200, res.FinalCapital, 1e-9)
		assert.InDelta(t, 100, res.ReturnPct, 1e-9)
		assert.Equal(t, 1, res.Trades)
		assert.Equal(t, 1, res.Wins)
		assert.InDelta(t, 100, res.WinRate, 1e-9)
		assert.InDelta(t, 300, res.BuyHoldReturnPct, 1e-9)
		assert.Zero(t, res.MaxDrawdownPct)
	})

	t.Run("Fees Reduce Proceeds", func(t *testing.T) {
		eng, err := New(Params{
			InitialCapital: 100,
			TradingConfig:  fastSlowConfig(map[string]any{"feeRate": 0.001}),
		})
		assert.NoError(t, err)

		res, err := eng.Run(hourlyCandles(10, 10, 10, 20, 30, 40))
		assert.NoError(t, err)
		// 买入 100 收 0.1 手续费得 4.995 个，40 平仓 199.8 再收 0.1998
		assert.InDelta(t, 199.6002, res.FinalCapital, 1e-6)
	})

	t.Run("Flat Series Makes No Trades", func(t *testing.T) {
		eng, err := New(Params{InitialCapital: 500, TradingConfig: fastSlowConfig(nil)})
		assert.NoError(t, err)

		res, err := eng.Run(hourlyCandles(10, 10, 10, 10, 10, 10))
		assert.NoError(t, err)
		assert.Zero(t, res.Trades)
		assert.InDelta(t, 500, res.FinalCapital, 1e-9)
		assert.Zero(t, res.SharpeRatio)
	})

	t.Run("Weakly Typed Config Decodes", func(t *testing.T) {
		eng, err := New(Params{
			InitialCapital: 100,
			TradingConfig: map[string]any{
				"symbol":     "ETHUSDT",
				"interval":   "4h",
				"fastPeriod": "2",
				"slowPeriod": 3.0,
				"leverage":   10, // 引擎不认识的键原样忽略
			},
		})
		assert.NoError(t, err)

		res, err := eng.Run(hourlyCandles(10, 10, 10, 20, 30))
		assert.NoError(t, err)
		assert.Equal(t, "ETHUSDT", res.Symbol)
		assert.Equal(t, "4h", res.Interval)
	})

	t.Run("Run Requires Candles", func(t *testing.T) {
		eng, err := New(Params{InitialCapital: 100})
		assert.NoError(t, err)
		_, err = eng.Run(nil)
		assert.Error(t, err)
	})
}

func TestEngine_New(t *testing.T) {
	t.Run("Rejects Non Positive Capital", func(t *testing.T) {
		_, err := New(Params{InitialCapital: 0})
		assert.Error(t, err)
		_, err = New(Params{InitialCapital: -10})
		assert.Error(t, err)
	})

	t.Run("Rejects Fast Not Below Slow", func(t *testing.T) {
		_, err := New(Params{
			InitialCapital: 100,
			TradingConfig:  map[string]any{"fastPeriod": 5, "slowPeriod": 5},
		})
		assert.Error(t, err)
	})

	t.Run("Rejects Fee Out Of Range", func(t *testing.T) {
		_, err := New(Params{
			InitialCapital: 100,
			TradingConfig:  map[string]any{"feeRate": 1.5},
		})
		assert.Error(t, err)
	})

	t.Run("Defaults Applied Without Config", func(t *testing.T) {
		eng, err := New(Params{InitialCapital: 100})
		assert.NoError(t, err)
		assert.Equal(t, defaultFastPeriod, eng.sp.FastPeriod)
		assert.Equal(t, defaultSlowPeriod, eng.sp.SlowPeriod)
	})
}

func TestMaxDrawdownPct(t *testing.T) {
	assert.Zero(t, maxDrawdownPct([]float64{100, 110, 120}))
	assert.InDelta(t, 50, maxDrawdownPct([]float64{100, 200, 100, 150}), 1e-9)
	assert.Zero(t, maxDrawdownPct(nil))
}
