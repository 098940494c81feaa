package app

import (
	"fmt"

	"vela/internal/backtest"
	"vela/internal/config"
	binancegw "vela/internal/gateway/binance"
	"vela/internal/logger"
	"vela/internal/source"
	backtesthttp "vela/internal/transport/http/backtest"
)

// AppBuilder 按配置组装回测服务依赖，构造函数字段均可注入替身。
type AppBuilder struct {
	cfg *config.Config

	sourceFn    func(config.MarketConfig, source.Observer) source.CandleSource
	generatorFn func(config.SynthConfig) backtest.Generator
	previewFn   func(config.PreviewConfig) backtesthttp.PreviewSource
	serverFn    func(backtesthttp.Config) (*backtesthttp.Server, error)
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:         cfg,
		sourceFn:    buildMarketSource,
		generatorFn: buildGenerator,
		previewFn:   buildPreview,
		serverFn:    backtesthttp.NewServer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// WithMarketSource 覆盖历史行情来源（测试/回放用）。
func WithMarketSource(src source.CandleSource) AppBuilderOption {
	return func(b *AppBuilder) {
		if src == nil {
			return
		}
		b.sourceFn = func(config.MarketConfig, source.Observer) source.CandleSource {
			return src
		}
	}
}

// WithGenerator 覆盖降级数据生成器。
func WithGenerator(gen backtest.Generator) AppBuilderOption {
	return func(b *AppBuilder) {
		if gen == nil {
			return
		}
		b.generatorFn = func(config.SynthConfig) backtest.Generator {
			return gen
		}
	}
}

// WithPreview 覆盖行情预览网关。
func WithPreview(p backtesthttp.PreviewSource) AppBuilderOption {
	return func(b *AppBuilder) {
		if p == nil {
			return
		}
		b.previewFn = func(config.PreviewConfig) backtesthttp.PreviewSource {
			return p
		}
	}
}

func (b *AppBuilder) Build() (*App, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)
	if path := cfg.App.LogPath; path != "" {
		logger.SetFile(path, cfg.App.LogMaxSizeMB, cfg.App.LogMaxBackups, cfg.App.LogMaxAgeDays)
	}

	obs := source.LogObserver()
	src := b.sourceFn(cfg.Market, obs)
	gen := b.generatorFn(cfg.Synth)

	svc, err := backtest.NewService(backtest.ServiceConfig{
		Source:    src,
		Generator: gen,
		MaxTotal:  cfg.Market.MaxCandles,
		TailLimit: cfg.Backtest.TailLimit,
		Observer:  obs,
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("✓ 回测服务就绪 数据源=%s 降级=%s 上限=%d", src.Name(), gen.Name(), cfg.Market.MaxCandles)

	var preview backtesthttp.PreviewSource
	if cfg.Preview.Enabled {
		preview = b.previewFn(cfg.Preview)
		logger.Infof("✓ 行情预览网关已启用")
	}

	httpSrv, err := b.serverFn(backtesthttp.Config{
		Addr:    cfg.App.HTTPAddr,
		Svc:     svc,
		Preview: preview,
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("✓ HTTP 服务监听 %s", cfg.App.HTTPAddr)

	return &App{cfg: cfg, http: httpSrv}, nil
}

func buildMarketSource(mc config.MarketConfig, obs source.Observer) source.CandleSource {
	return source.NewBinanceSource(source.BinanceConfig{
		Endpoints:      mc.Endpoints,
		BatchLimit:     mc.BatchLimit,
		MaxTotal:       mc.MaxCandles,
		PageDelay:      mc.PageDelay(),
		Attempts:       mc.Attempts,
		AttemptTimeout: mc.AttemptTimeout(),
		BackoffUnit:    mc.BackoffUnit(),
		Observer:       obs,
	})
}

func buildGenerator(sc config.SynthConfig) backtest.Generator {
	return source.NewSynthetic(source.SyntheticConfig{
		BasePrice:  sc.BasePrice,
		Volatility: sc.Volatility,
		BaseVolume: sc.BaseVolume,
	})
}

func buildPreview(pc config.PreviewConfig) backtesthttp.PreviewSource {
	return binancegw.New(binancegw.Config{
		RESTBaseURL: pc.RESTBaseURL,
		HTTPTimeout: pc.Timeout(),
	})
}
