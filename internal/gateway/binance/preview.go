package binance

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"

	"vela/internal/market"
	"vela/internal/pkg/convert"
	"vela/internal/pkg/symbol"
)

const maxPreviewLimit = 1500

// Config 配置现货行情预览网关。
type Config struct {
	RESTBaseURL string
	HTTPTimeout time.Duration
}

// Preview 基于 go-binance SDK 拉取最近已收盘 K 线，服务行情预览接口。
type Preview struct {
	client *binance.Client
}

func New(cfg Config) *Preview {
	client := binance.NewClient("", "")
	if base := strings.TrimSpace(cfg.RESTBaseURL); base != "" {
		client.BaseURL = base
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client.HTTPClient = &http.Client{Timeout: timeout}
	return &Preview{client: client}
}

// Latest 返回最近 limit 根 K 线（按时间升序）。
func (p *Preview) Latest(ctx context.Context, pair, interval string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxPreviewLimit {
		limit = maxPreviewLimit
	}
	// Binance requires symbols without slashes (e.g. ETHUSDT)
	pair = symbol.ToBinance(pair)
	if pair == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	kls, err := p.client.NewKlinesService().
		Symbol(pair).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			Open:      convert.ToFloat64(kl.Open),
			High:      convert.ToFloat64(kl.High),
			Low:       convert.ToFloat64(kl.Low),
			Close:     convert.ToFloat64(kl.Close),
			Volume:    convert.ToFloat64(kl.Volume),
			CloseTime: kl.CloseTime,
		})
	}
	return out, nil
}
