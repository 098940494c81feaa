package source

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"vela/internal/market"
	"vela/internal/pkg/convert"
	"vela/internal/pkg/symbol"
)

// pageRequest 描述对单个端点的一页 /klines 请求。
type pageRequest struct {
	Symbol   string
	Interval string
	Start    int64
	End      int64
	Limit    int
}

func klinesURL(base string, req pageRequest) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("解析端点地址失败: %w", err)
	}
	u.Path = path.Join(u.Path, "klines")
	q := u.Query()
	q.Set("symbol", symbol.ToBinance(req.Symbol))
	q.Set("interval", strings.TrimSpace(req.Interval))
	q.Set("startTime", strconv.FormatInt(req.Start, 10))
	q.Set("endTime", strconv.FormatInt(req.End, 10))
	q.Set("limit", strconv.Itoa(req.Limit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseKlines 解码 Binance 数组型 K 线响应：
// [openTime, open, high, low, close, volume, closeTime, …]，
// 数值单元格可能是字符串或数字。任何一行不合法都判整页失败，
// 不接受部分解析结果。minOpen 用于校验返回数据不早于游标。
func parseKlines(body []byte, minOpen int64) ([]market.Candle, error) {
	var raw [][]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("解码 K 线响应失败: %w", err)
	}
	out := make([]market.Candle, 0, len(raw))
	prevOpen := minOpen - 1
	for i, row := range raw {
		if len(row) < 7 {
			return nil, fmt.Errorf("第 %d 行仅 %d 列，至少需要 7 列", i, len(row))
		}
		openTime, err := convert.Int64E(row[0])
		if err != nil {
			return nil, fmt.Errorf("第 %d 行 openTime 非法: %w", i, err)
		}
		closeTime, err := convert.Int64E(row[6])
		if err != nil {
			return nil, fmt.Errorf("第 %d 行 closeTime 非法: %w", i, err)
		}
		c := market.Candle{OpenTime: openTime, CloseTime: closeTime}
		for pos, dst := range map[int]*float64{
			1: &c.Open, 2: &c.High, 3: &c.Low, 4: &c.Close, 5: &c.Volume,
		} {
			v, err := convert.Float64E(row[pos])
			if err != nil {
				return nil, fmt.Errorf("第 %d 行第 %d 列非法: %w", i, pos, err)
			}
			*dst = v
		}
		if c.OpenTime <= prevOpen {
			return nil, fmt.Errorf("第 %d 行 openTime=%d 乱序（前值 %d）", i, c.OpenTime, prevOpen)
		}
		prevOpen = c.OpenTime
		out = append(out, c)
	}
	return out, nil
}

