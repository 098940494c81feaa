package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.Synth.validate(); err != nil {
		return err
	}
	if err := c.Backtest.validate(); err != nil {
		return err
	}
	if err := c.Preview.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogLevel)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug/info/warn/error, got %s", a.LogLevel)
	}
	if strings.TrimSpace(a.HTTPAddr) == "" {
		return fmt.Errorf("app.http_addr cannot be empty")
	}
	return nil
}

func (m *MarketConfig) validate() error {
	if len(m.Endpoints) == 0 {
		return fmt.Errorf("market.endpoints requires at least one endpoint")
	}
	for _, ep := range m.Endpoints {
		if err := validateEndpoint(ep); err != nil {
			return err
		}
	}
	if m.BatchLimit < 1 || m.BatchLimit > 1500 {
		return fmt.Errorf("market.batch_limit must be in [1,1500]")
	}
	if m.MaxCandles < m.BatchLimit {
		return fmt.Errorf("market.max_candles must be >= market.batch_limit")
	}
	if m.Attempts < 1 {
		return fmt.Errorf("market.attempts must be >= 1")
	}
	if m.AttemptTimeoutSeconds < 1 {
		return fmt.Errorf("market.attempt_timeout_seconds must be >= 1")
	}
	if m.BackoffUnitMS < 0 {
		return fmt.Errorf("market.backoff_unit_ms must be >= 0")
	}
	if m.PageDelayMS < 0 {
		return fmt.Errorf("market.page_delay_ms must be >= 0")
	}
	return nil
}

func validateEndpoint(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("market.endpoints contains an empty entry")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("market.endpoints contains invalid url %s: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("market.endpoints url %s must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("market.endpoints url %s missing host", raw)
	}
	return nil
}

func (s *SynthConfig) validate() error {
	if s.BasePrice <= 0 {
		return fmt.Errorf("synth.base_price must be > 0")
	}
	if s.Volatility <= 0 || s.Volatility >= 1 {
		return fmt.Errorf("synth.volatility must be in (0,1)")
	}
	if s.BaseVolume <= 0 {
		return fmt.Errorf("synth.base_volume must be > 0")
	}
	return nil
}

func (b *BacktestConfig) validate() error {
	if b.TailLimit < 1 {
		return fmt.Errorf("backtest.tail_limit must be >= 1")
	}
	return nil
}

func (p *PreviewConfig) validate() error {
	if !p.Enabled {
		return nil
	}
	if p.RESTBaseURL != "" {
		if err := validateEndpoint(p.RESTBaseURL); err != nil {
			return fmt.Errorf("preview.rest_base_url invalid: %w", err)
		}
	}
	if p.TimeoutSeconds < 1 {
		return fmt.Errorf("preview.timeout_seconds must be >= 1")
	}
	return nil
}
