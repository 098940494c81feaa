package engine

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"vela/internal/market"
)

// Result 汇总一次回测的收益与风险指标，字段会并入 HTTP 响应顶层。
type Result struct {
	Symbol           string  `json:"symbol"`
	Interval         string  `json:"interval"`
	StartDate        int64   `json:"startDate"`
	EndDate          int64   `json:"endDate"`
	InitialCapital   float64 `json:"initialCapital"`
	FinalCapital     float64 `json:"finalCapital"`
	Profit           float64 `json:"profit"`
	ReturnPct        float64 `json:"returnPct"`
	BuyHoldReturnPct float64 `json:"buyHoldReturnPct"`
	Trades           int     `json:"trades"`
	Wins             int     `json:"wins"`
	Losses           int     `json:"losses"`
	WinRate          float64 `json:"winRate"`
	MaxDrawdownPct   float64 `json:"maxDrawdownPct"`
	SharpeRatio      float64 `json:"sharpeRatio"`
}

func (e *Engine) summarize(candles []market.Candle, cash decimal.Decimal,
	equity, tradeReturns []float64, wins, losses int) (Result, error) {
	initial := e.initial.InexactFloat64()
	final := cash.InexactFloat64()

	res := Result{
		Symbol:         e.sp.Symbol,
		Interval:       e.sp.Interval,
		StartDate:      e.start,
		EndDate:        e.end,
		InitialCapital: initial,
		FinalCapital:   final,
		Profit:         final - initial,
		Trades:         len(tradeReturns),
		Wins:           wins,
		Losses:         losses,
	}
	if initial > 0 {
		res.ReturnPct = (final - initial) / initial * 100
	}
	if first := candles[0].Close; first > 0 {
		res.BuyHoldReturnPct = (candles[len(candles)-1].Close - first) / first * 100
	}
	if res.Trades > 0 {
		res.WinRate = float64(wins) / float64(res.Trades) * 100
	}
	res.MaxDrawdownPct = maxDrawdownPct(equity)
	res.SharpeRatio = sharpeRatio(equity, e.sp.Interval)
	return res, nil
}

func maxDrawdownPct(equity []float64) float64 {
	var peak, maxDD float64
	for _, eq := range equity {
		if eq > peak {
			peak = eq
		}
		if peak > 0 {
			if dd := (peak - eq) / peak * 100; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpeRatio 用资金曲线的逐周期收益估算年化夏普（无风险利率取 0）。
func sharpeRatio(equity []float64, interval string) float64 {
	if len(equity) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] <= 0 {
			continue
		}
		returns = append(returns, equity[i]/equity[i-1]-1)
	}
	if len(returns) < 2 {
		return 0
	}
	mean, err := stats.Mean(returns)
	if err != nil {
		return 0
	}
	sd, err := stats.StandardDeviation(returns)
	if err != nil || sd == 0 {
		return 0
	}
	periodsPerYear := float64(millisPerYear) / float64(market.IntervalMillis(interval))
	return mean / sd * math.Sqrt(periodsPerYear)
}
