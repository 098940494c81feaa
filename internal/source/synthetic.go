package source

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strconv"

	"vela/internal/market"
	symbolutil "vela/internal/pkg/symbol"
)

// GeneratedSourceName 写入响应 dataSource 字段的降级数据标识。
const GeneratedSourceName = "generated"

const (
	defaultBasePrice  = 30000.0
	defaultVolatility = 0.02
	defaultBaseVolume = 150.0
)

// Synthetic 在远端数据不可用时生成确定性随机游走 K 线。
// 相同入参产出完全相同的序列，便于复现降级期间的回测结果。
type Synthetic struct {
	basePrice  float64
	volatility float64
	baseVolume float64
}

// SyntheticConfig 配置生成器，零值字段取默认。
type SyntheticConfig struct {
	BasePrice  float64
	Volatility float64
	BaseVolume float64
}

func NewSynthetic(cfg SyntheticConfig) *Synthetic {
	basePrice := cfg.BasePrice
	if basePrice <= 0 {
		basePrice = defaultBasePrice
	}
	volatility := cfg.Volatility
	if volatility <= 0 || volatility >= 1 {
		volatility = defaultVolatility
	}
	baseVolume := cfg.BaseVolume
	if baseVolume <= 0 {
		baseVolume = defaultBaseVolume
	}
	return &Synthetic{basePrice: basePrice, volatility: volatility, baseVolume: baseVolume}
}

func (s *Synthetic) Name() string { return GeneratedSourceName }

// Generate 自 start 起按 interval 周期生成 count 根 K 线；openTime
// 不越过 end（end<=start 时不做该截断），count<=0 返回空序列。
func (s *Synthetic) Generate(symbol, interval string, count int, start, end int64) []market.Candle {
	if count <= 0 {
		return []market.Candle{}
	}
	step := market.IntervalMillis(interval)
	rng := rand.New(rand.NewSource(seedFor(symbol, interval, count, start)))
	price := s.basePrice * (0.25 + 1.5*rng.Float64())
	out := make([]market.Candle, 0, count)
	for i := 0; i < count; i++ {
		openTime := start + int64(i)*step
		if end > start && openTime >= end {
			break
		}
		open := price
		change := (rng.Float64()*2 - 1) * s.volatility
		closePrice := open * (1 + change)
		high := math.Max(open, closePrice) * (1 + rng.Float64()*s.volatility/2)
		low := math.Min(open, closePrice) * (1 - rng.Float64()*s.volatility/2)
		out = append(out, market.Candle{
			OpenTime:  openTime,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    s.baseVolume * (0.5 + rng.Float64()),
			CloseTime: openTime + step - 1,
		})
		price = closePrice
	}
	return out
}

// seedFor 对交易对拼写做归一化，"btc/usdt" 与 "BTCUSDT" 产出同一序列。
func seedFor(symbol, interval string, count int, start int64) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbolutil.ToBinance(symbol)))
	h.Write([]byte{'|'})
	h.Write([]byte(interval))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.Itoa(count)))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.FormatInt(start, 10)))
	return int64(h.Sum64())
}
