package backtest

import (
	"vela/internal/engine"
	"vela/internal/market"
	"vela/internal/pkg/maputil"
)

// TradingConfig 透传给引擎的策略配置，至少应携带 symbol 与 interval，
// 其余键由引擎自行解释。
type TradingConfig map[string]any

func (c TradingConfig) Symbol() string {
	return maputil.String(c, "symbol")
}

func (c TradingConfig) Interval() string {
	return maputil.String(c, "interval")
}

// RunRequest 是 POST /backtest 的请求体。
type RunRequest struct {
	StartDate      int64         `json:"startDate" binding:"required"`
	EndDate        int64         `json:"endDate" binding:"required"`
	InitialCapital float64       `json:"initialCapital" binding:"required"`
	TradingConfig  TradingConfig `json:"tradingConfig" binding:"required"`
}

// RunResponse 成功响应：引擎结果并入顶层，外加数据来源标记、
// 截断后的 K 线序列与截断前的总量。
type RunResponse struct {
	engine.Result
	RunID        string          `json:"runId"`
	Candles      []market.Candle `json:"candles"`
	DataSource   string          `json:"dataSource"`
	TotalCandles int             `json:"totalCandles"`
}
