package source

import (
	"context"

	"vela/internal/market"
)

// Query 描述一次完整的历史区间抓取请求（毫秒时间戳，左闭右开）。
type Query struct {
	Symbol   string
	Interval string
	Start    int64
	End      int64
}

// CandleSource 抽象一个可以按区间产出 K 线序列的数据源。
// Name 返回数据来源标识，会原样写入响应的 dataSource 字段。
type CandleSource interface {
	Fetch(ctx context.Context, q Query) ([]market.Candle, error)
	Name() string
}
