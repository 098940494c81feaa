package engine

import (
	"fmt"
	"math"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"

	"vela/internal/market"
)

const (
	defaultFastPeriod  = 12
	defaultSlowPeriod  = 26
	defaultFeeRate     = 0.001
	defaultPositionPct = 1.0

	millisPerYear = 365 * 24 * 3600 * 1000
)

// Params 构造引擎所需的入参；TradingConfig 为透传的策略配置。
type Params struct {
	Start          int64
	End            int64
	InitialCapital float64
	TradingConfig  map[string]any
}

// strategyParams 是 tradingConfig 中引擎关心的键，未出现的键取默认。
type strategyParams struct {
	Symbol      string  `mapstructure:"symbol"`
	Interval    string  `mapstructure:"interval"`
	FastPeriod  int     `mapstructure:"fastPeriod"`
	SlowPeriod  int     `mapstructure:"slowPeriod"`
	FeeRate     float64 `mapstructure:"feeRate"`
	PositionPct float64 `mapstructure:"positionPct"`
}

// Engine 在给定 K 线序列上执行快慢均线交叉的多头策略模拟。
type Engine struct {
	start   int64
	end     int64
	initial decimal.Decimal
	sp      strategyParams
}

func New(p Params) (*Engine, error) {
	if p.InitialCapital <= 0 {
		return nil, fmt.Errorf("initialCapital 必须为正数")
	}
	sp := strategyParams{
		FastPeriod:  defaultFastPeriod,
		SlowPeriod:  defaultSlowPeriod,
		FeeRate:     defaultFeeRate,
		PositionPct: defaultPositionPct,
	}
	if len(p.TradingConfig) > 0 {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &sp,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(p.TradingConfig); err != nil {
			return nil, fmt.Errorf("解析 tradingConfig 失败: %w", err)
		}
	}
	if sp.FastPeriod <= 0 {
		sp.FastPeriod = defaultFastPeriod
	}
	if sp.SlowPeriod <= 0 {
		sp.SlowPeriod = defaultSlowPeriod
	}
	if sp.FastPeriod >= sp.SlowPeriod {
		return nil, fmt.Errorf("fastPeriod(%d) 必须小于 slowPeriod(%d)", sp.FastPeriod, sp.SlowPeriod)
	}
	if sp.FeeRate < 0 || sp.FeeRate >= 1 {
		return nil, fmt.Errorf("feeRate 超出合法区间: %v", sp.FeeRate)
	}
	if sp.PositionPct <= 0 || sp.PositionPct > 1 {
		sp.PositionPct = defaultPositionPct
	}
	return &Engine{
		start:   p.Start,
		end:     p.End,
		initial: decimal.NewFromFloat(p.InitialCapital),
		sp:      sp,
	}, nil
}

// Run 顺序回放 K 线：快线上穿慢线开多，下穿平仓，结束时强制清仓。
func (e *Engine) Run(candles []market.Candle) (Result, error) {
	if len(candles) == 0 {
		return Result{}, fmt.Errorf("没有可用的 K 线数据")
	}

	cash := e.initial
	qty := decimal.Zero
	var entry decimal.Decimal
	feeRate := decimal.NewFromFloat(e.sp.FeeRate)
	posPct := decimal.NewFromFloat(e.sp.PositionPct)

	fast := newRollingMean(e.sp.FastPeriod)
	slow := newRollingMean(e.sp.SlowPeriod)

	equity := make([]float64, 0, len(candles))
	var tradeReturns []float64
	var wins, losses int

	prevDiff := math.NaN()
	for _, c := range candles {
		fast.push(c.Close)
		slow.push(c.Close)
		price := decimal.NewFromFloat(c.Close)

		if fast.ready() && slow.ready() {
			diff := fast.value() - slow.value()
			if !math.IsNaN(prevDiff) {
				switch {
				case prevDiff <= 0 && diff > 0 && qty.IsZero():
					notional := cash.Mul(posPct)
					fee := notional.Mul(feeRate)
					qty = notional.Sub(fee).Div(price)
					cash = cash.Sub(notional)
					entry = price
				case prevDiff >= 0 && diff < 0 && qty.IsPositive():
					cash, qty = e.closePosition(cash, qty, price, feeRate, entry, &tradeReturns, &wins, &losses)
				}
			}
			prevDiff = diff
		}
		equity = append(equity, cash.Add(qty.Mul(price)).InexactFloat64())
	}

	if qty.IsPositive() {
		last := decimal.NewFromFloat(candles[len(candles)-1].Close)
		cash, qty = e.closePosition(cash, qty, last, feeRate, entry, &tradeReturns, &wins, &losses)
		equity[len(equity)-1] = cash.InexactFloat64()
	}

	return e.summarize(candles, cash, equity, tradeReturns, wins, losses)
}

func (e *Engine) closePosition(cash, qty, price, feeRate, entry decimal.Decimal,
	tradeReturns *[]float64, wins, losses *int) (decimal.Decimal, decimal.Decimal) {
	notional := qty.Mul(price)
	fee := notional.Mul(feeRate)
	cash = cash.Add(notional.Sub(fee))
	if entry.IsPositive() {
		ret := price.Sub(entry).Div(entry).InexactFloat64()
		*tradeReturns = append(*tradeReturns, ret)
		if ret > 0 {
			*wins++
		} else {
			*losses++
		}
	}
	return cash, decimal.Zero
}

// rollingMean 是固定窗口的简单均线。
type rollingMean struct {
	window int
	buf    []float64
	sum    float64
}

func newRollingMean(window int) *rollingMean {
	return &rollingMean{window: window, buf: make([]float64, 0, window)}
}

func (r *rollingMean) push(v float64) {
	r.buf = append(r.buf, v)
	r.sum += v
	if len(r.buf) > r.window {
		r.sum -= r.buf[0]
		r.buf = r.buf[1:]
	}
}

func (r *rollingMean) ready() bool { return len(r.buf) == r.window }

func (r *rollingMean) value() float64 {
	if len(r.buf) == 0 {
		return 0
	}
	return r.sum / float64(len(r.buf))
}
