package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"vela/internal/market"
)

// BinanceSourceName 写入响应 dataSource 字段的远端数据标识。
const BinanceSourceName = "binance-public"

// ErrAllEndpointsFailed 单页上所有端点都失败、整次抓取中止时返回，
// 包装最后一个端点的错误。
var ErrAllEndpointsFailed = errors.New("全部端点失败")

const (
	defaultBatchLimit = 1500
	defaultMaxTotal   = 20000
	defaultPageDelay  = 200 * time.Millisecond
)

var defaultEndpoints = []string{
	"https://api.binance.com/api/v3",
	"https://api1.binance.com/api/v3",
	"https://data-api.binance.vision/api/v3",
}

// DefaultEndpoints 返回默认的公网端点列表（按优先级）。
func DefaultEndpoints() []string {
	out := make([]string, len(defaultEndpoints))
	copy(out, defaultEndpoints)
	return out
}

// PageOutcome 标记单页抓取的结果形态。
type PageOutcome int

const (
	PageFailed PageOutcome = iota
	PageEmpty
	PagePartial
	PageFull
)

func (o PageOutcome) String() string {
	switch o {
	case PageEmpty:
		return "empty"
	case PagePartial:
		return "partial"
	case PageFull:
		return "full"
	default:
		return "failed"
	}
}

func (o PageOutcome) event() Outcome {
	switch o {
	case PageEmpty:
		return OutcomeEmpty
	case PagePartial:
		return OutcomePartial
	case PageFull:
		return OutcomeFull
	default:
		return OutcomeFailed
	}
}

func classifyPage(got, want int) PageOutcome {
	switch {
	case got == 0:
		return PageEmpty
	case got < want:
		return PagePartial
	default:
		return PageFull
	}
}

// BinanceSource 按固定优先级在多个公网端点间容灾的分页 K 线抓取器。
// 每页至多 batchLimit 根，整单累计至多 maxTotal 根，页间按 pageDelay 限速。
type BinanceSource struct {
	endpoints  []string
	client     *HTTPClient
	batchLimit int
	maxTotal   int
	pageDelay  time.Duration
	obs        Observer
}

// BinanceConfig 配置 BinanceSource，零值字段取默认。
type BinanceConfig struct {
	Endpoints      []string
	BatchLimit     int
	MaxTotal       int
	PageDelay      time.Duration
	Attempts       int
	AttemptTimeout time.Duration
	BackoffUnit    time.Duration
	Observer       Observer
}

func NewBinanceSource(cfg BinanceConfig) *BinanceSource {
	endpoints := make([]string, 0, len(cfg.Endpoints))
	for _, e := range cfg.Endpoints {
		if s := strings.TrimSpace(e); s != "" {
			endpoints = append(endpoints, s)
		}
	}
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints()
	}
	batchLimit := cfg.BatchLimit
	if batchLimit <= 0 {
		batchLimit = defaultBatchLimit
	}
	maxTotal := cfg.MaxTotal
	if maxTotal <= 0 {
		maxTotal = defaultMaxTotal
	}
	pageDelay := cfg.PageDelay
	if pageDelay <= 0 {
		pageDelay = defaultPageDelay
	}
	obs := cfg.Observer
	if obs == nil {
		obs = LogObserver()
	}
	return &BinanceSource{
		endpoints:  endpoints,
		client: NewHTTPClient(ClientConfig{
			Attempts:       cfg.Attempts,
			AttemptTimeout: cfg.AttemptTimeout,
			BackoffUnit:    cfg.BackoffUnit,
			Observer:       obs,
		}),
		batchLimit: batchLimit,
		maxTotal:   maxTotal,
		pageDelay:  pageDelay,
		obs:        obs,
	}
}

func (b *BinanceSource) Name() string { return BinanceSourceName }

// Fetch 分页拉取 [q.Start, q.End) 区间的 K 线。游标推进到上一页最后
// 一根的 closeTime+1；空页或短页视为最后一页；累计达到 maxTotal 立即
// 截止。单页内所有端点都失败时整体失败，并返回最后记录的错误。
func (b *BinanceSource) Fetch(ctx context.Context, q Query) ([]market.Candle, error) {
	limiter := rate.NewLimiter(rate.Every(b.pageDelay), 1)
	acc := make([]market.Candle, 0, b.batchLimit)
	cursor := q.Start
	for cursor < q.End && len(acc) < b.maxTotal {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		limit := b.batchLimit
		if remaining := b.maxTotal - len(acc); remaining < limit {
			limit = remaining
		}
		page, err := b.fetchPage(ctx, pageRequest{
			Symbol:   q.Symbol,
			Interval: q.Interval,
			Start:    cursor,
			End:      q.End,
			Limit:    limit,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: 光标 %d: %w", ErrAllEndpointsFailed, cursor, err)
		}
		acc = append(acc, page...)
		outcome := classifyPage(len(page), limit)
		b.obs.OnEvent(Event{Stage: StagePage, Cursor: cursor, Outcome: outcome.event()})
		if outcome != PageFull {
			break
		}
		cursor = page[len(page)-1].CloseTime + 1
	}
	return acc, nil
}

// fetchPage 对一页按优先级依次尝试各端点，返回第一个可用结果。
func (b *BinanceSource) fetchPage(ctx context.Context, req pageRequest) ([]market.Candle, error) {
	var lastErr error
	for i, base := range b.endpoints {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := b.fetchEndpoint(ctx, base, req)
		if err == nil {
			return page, nil
		}
		lastErr = err
		outcome := OutcomeFailover
		if i == len(b.endpoints)-1 {
			outcome = OutcomeFailed
		}
		b.obs.OnEvent(Event{
			Stage:    StagePage,
			Endpoint: endpointLabel(base),
			Cursor:   req.Start,
			Outcome:  outcome,
			Err:      err,
		})
	}
	return nil, lastErr
}

func (b *BinanceSource) fetchEndpoint(ctx context.Context, base string, req pageRequest) ([]market.Candle, error) {
	u, err := klinesURL(base, req)
	if err != nil {
		return nil, err
	}
	body, err := b.client.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	page, err := parseKlines(body, req.Start)
	if err != nil {
		return nil, err
	}
	if len(page) > req.Limit {
		return nil, fmt.Errorf("端点返回 %d 行，超过请求上限 %d", len(page), req.Limit)
	}
	return page, nil
}
