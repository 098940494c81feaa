package config

import "strings"

// 默认值常量
const (
	defaultAppEnv           = "dev"
	defaultAppLogLevel      = "info"
	defaultAppHTTPAddr      = ":8090"
	defaultLogMaxSizeMB     = 100
	defaultLogMaxBackups    = 3
	defaultLogMaxAgeDays    = 28
	defaultMarketBatchLimit = 1500
	defaultMarketMaxCandles = 20000
	defaultMarketAttempts   = 3
	defaultMarketTimeoutSec = 30
	defaultMarketBackoffMS  = 1000
	defaultMarketPageDelay  = 200
	defaultSynthBasePrice   = 30000
	defaultSynthVolatility  = 0.02
	defaultSynthBaseVolume  = 150
	defaultBacktestTail     = 500
	defaultPreviewTimeout   = 10
)

var defaultMarketEndpoints = []string{
	"https://api.binance.com/api/v3",
	"https://api1.binance.com/api/v3",
	"https://data-api.binance.vision/api/v3",
}

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Synth.applyDefaults(keys)
	c.Backtest.applyDefaults(keys)
	c.Preview.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		fieldDefault{
			key:   "app.log_max_size_mb",
			need:  func() bool { return a.LogMaxSizeMB <= 0 },
			apply: func() { a.LogMaxSizeMB = defaultLogMaxSizeMB },
		},
		fieldDefault{
			key:   "app.log_max_backups",
			need:  func() bool { return a.LogMaxBackups <= 0 },
			apply: func() { a.LogMaxBackups = defaultLogMaxBackups },
		},
		fieldDefault{
			key:   "app.log_max_age_days",
			need:  func() bool { return a.LogMaxAgeDays <= 0 },
			apply: func() { a.LogMaxAgeDays = defaultLogMaxAgeDays },
		},
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	if len(m.Endpoints) == 0 {
		m.Endpoints = append([]string(nil), defaultMarketEndpoints...)
	}
	for i := range m.Endpoints {
		m.Endpoints[i] = strings.TrimSpace(m.Endpoints[i])
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "market.batch_limit",
			need:  func() bool { return m.BatchLimit <= 0 },
			apply: func() { m.BatchLimit = defaultMarketBatchLimit },
		},
		fieldDefault{
			key:   "market.max_candles",
			need:  func() bool { return m.MaxCandles <= 0 },
			apply: func() { m.MaxCandles = defaultMarketMaxCandles },
		},
		fieldDefault{
			key:   "market.attempts",
			need:  func() bool { return m.Attempts <= 0 },
			apply: func() { m.Attempts = defaultMarketAttempts },
		},
		fieldDefault{
			key:   "market.attempt_timeout_seconds",
			need:  func() bool { return m.AttemptTimeoutSeconds <= 0 },
			apply: func() { m.AttemptTimeoutSeconds = defaultMarketTimeoutSec },
		},
		fieldDefault{
			key:   "market.backoff_unit_ms",
			need:  func() bool { return m.BackoffUnitMS <= 0 },
			apply: func() { m.BackoffUnitMS = defaultMarketBackoffMS },
		},
		fieldDefault{
			key:   "market.page_delay_ms",
			need:  func() bool { return m.PageDelayMS <= 0 },
			apply: func() { m.PageDelayMS = defaultMarketPageDelay },
		},
	)
}

func (s *SynthConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "synth.base_price",
			need:  func() bool { return s.BasePrice <= 0 },
			apply: func() { s.BasePrice = defaultSynthBasePrice },
		},
		fieldDefault{
			key:   "synth.volatility",
			need:  func() bool { return s.Volatility <= 0 },
			apply: func() { s.Volatility = defaultSynthVolatility },
		},
		fieldDefault{
			key:   "synth.base_volume",
			need:  func() bool { return s.BaseVolume <= 0 },
			apply: func() { s.BaseVolume = defaultSynthBaseVolume },
		},
	)
}

func (b *BacktestConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "backtest.tail_limit",
			need:  func() bool { return b.TailLimit <= 0 },
			apply: func() { b.TailLimit = defaultBacktestTail },
		},
	)
}

func (p *PreviewConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("preview.enabled", &p.Enabled, true),
		fieldDefault{
			key:   "preview.timeout_seconds",
			need:  func() bool { return p.TimeoutSeconds <= 0 },
			apply: func() { p.TimeoutSeconds = defaultPreviewTimeout },
		},
	)
	p.RESTBaseURL = strings.TrimSpace(p.RESTBaseURL)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
