package market

type Candle struct {
	OpenTime  int64   `json:"openTime"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	CloseTime int64   `json:"closeTime"`
}

// Tail 返回序列末尾最多 n 根 K 线（不复制底层数组）。
func Tail(candles []Candle, n int) []Candle {
	if n <= 0 || len(candles) == 0 {
		return []Candle{}
	}
	if len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}
