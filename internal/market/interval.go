package market

import (
	"sort"
	"strings"
	"time"
)

// DefaultInterval 未识别的周期标记一律按 1m 处理。
const DefaultInterval = "1m"

var intervalDurations = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

// IntervalDuration 把周期标记解析为时长；未知标记回退到 1 分钟，永不报错。
func IntervalDuration(token string) time.Duration {
	key := strings.ToLower(strings.TrimSpace(token))
	if d, ok := intervalDurations[key]; ok {
		return d
	}
	return intervalDurations[DefaultInterval]
}

// IntervalMillis 返回周期对应的毫秒数。
func IntervalMillis(token string) int64 {
	return IntervalDuration(token).Milliseconds()
}

// KnownInterval 判断标记是否在支持表内（回退前的原始判断）。
func KnownInterval(token string) bool {
	_, ok := intervalDurations[strings.ToLower(strings.TrimSpace(token))]
	return ok
}

// SupportedIntervals 返回支持的周期标记（按时长升序）。
func SupportedIntervals() []string {
	keys := make([]string, 0, len(intervalDurations))
	for k := range intervalDurations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return intervalDurations[keys[i]] < intervalDurations[keys[j]]
	})
	return keys
}

// CandleSpan 估算 start~end 区间可容纳的 K 线数量（向上取整）。
func CandleSpan(start, end int64, token string) int {
	if end <= start {
		return 0
	}
	step := IntervalMillis(token)
	if step <= 0 {
		return 0
	}
	return int((end - start + step - 1) / step)
}
