package config

import (
	"strings"
	"time"
)

// Config 是 Vela 的主配置载体。
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Market   MarketConfig   `mapstructure:"market"`
	Synth    SynthConfig    `mapstructure:"synth"`
	Backtest BacktestConfig `mapstructure:"backtest"`
	Preview  PreviewConfig  `mapstructure:"preview"`
}

type AppConfig struct {
	Env           string `mapstructure:"env"`
	LogLevel      string `mapstructure:"log_level"`
	HTTPAddr      string `mapstructure:"http_addr"`
	LogPath       string `mapstructure:"log_path"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days"`
}

// MarketConfig 描述历史 K 线抓取端点与分页、重试参数。
type MarketConfig struct {
	Endpoints             []string `mapstructure:"endpoints"`
	BatchLimit            int      `mapstructure:"batch_limit"`
	MaxCandles            int      `mapstructure:"max_candles"`
	Attempts              int      `mapstructure:"attempts"`
	AttemptTimeoutSeconds int      `mapstructure:"attempt_timeout_seconds"`
	BackoffUnitMS         int      `mapstructure:"backoff_unit_ms"`
	PageDelayMS           int      `mapstructure:"page_delay_ms"`
}

func (m MarketConfig) AttemptTimeout() time.Duration {
	return time.Duration(m.AttemptTimeoutSeconds) * time.Second
}

func (m MarketConfig) BackoffUnit() time.Duration {
	return time.Duration(m.BackoffUnitMS) * time.Millisecond
}

func (m MarketConfig) PageDelay() time.Duration {
	return time.Duration(m.PageDelayMS) * time.Millisecond
}

// SynthConfig 控制远端数据不可用时合成序列的形态。
type SynthConfig struct {
	BasePrice  float64 `mapstructure:"base_price"`
	Volatility float64 `mapstructure:"volatility"`
	BaseVolume float64 `mapstructure:"base_volume"`
}

type BacktestConfig struct {
	TailLimit int `mapstructure:"tail_limit"`
}

// PreviewConfig 描述可选的实时行情预览网关。
type PreviewConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	RESTBaseURL    string `mapstructure:"rest_base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (p PreviewConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
