package backtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"vela/internal/engine"
	"vela/internal/logger"
	"vela/internal/market"
	"vela/internal/source"
)

var (
	// ErrValidation 请求缺少必填字段，对应 HTTP 400。
	ErrValidation = errors.New("请求参数不完整")
	// ErrNoData 远端与降级两条路径都没有产出数据，对应 HTTP 404。
	ErrNoData = errors.New("no candle data available for the requested range")
)

const (
	defaultMaxTotal  = 20000
	defaultTailLimit = 500
)

// Runner 是引擎的最小运行契约。
type Runner interface {
	Run(candles []market.Candle) (engine.Result, error)
}

// EngineFactory 按参数构造引擎实例。
type EngineFactory func(engine.Params) (Runner, error)

func defaultEngineFactory(p engine.Params) (Runner, error) {
	return engine.New(p)
}

// Generator 抽象降级数据生成器。
type Generator interface {
	Generate(symbol, interval string, count int, start, end int64) []market.Candle
	Name() string
}

// ServiceConfig 配置回测服务。
type ServiceConfig struct {
	Source    source.CandleSource
	Generator Generator
	MaxTotal  int
	TailLimit int
	Engine    EngineFactory
	Observer  source.Observer
}

// Service 串联 校验 → 远端抓取 → 降级生成 → 引擎 的回测流程。
// 单个请求内严格串行，跨请求不共享可变状态。
type Service struct {
	src       source.CandleSource
	gen       Generator
	maxTotal  int
	tailLimit int
	newEngine EngineFactory
	obs       source.Observer
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("source 不能为空")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator 不能为空")
	}
	maxTotal := cfg.MaxTotal
	if maxTotal <= 0 {
		maxTotal = defaultMaxTotal
	}
	tailLimit := cfg.TailLimit
	if tailLimit <= 0 {
		tailLimit = defaultTailLimit
	}
	newEngine := cfg.Engine
	if newEngine == nil {
		newEngine = defaultEngineFactory
	}
	obs := cfg.Observer
	if obs == nil {
		obs = source.LogObserver()
	}
	return &Service{
		src:       cfg.Source,
		gen:       cfg.Generator,
		maxTotal:  maxTotal,
		tailLimit: tailLimit,
		newEngine: newEngine,
		obs:       obs,
	}, nil
}

// Run 执行一次完整回测：优先远端数据，失败或为空时降级到生成数据，
// 两条路都为空返回 ErrNoData。
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	symbol := req.TradingConfig.Symbol()
	interval := req.TradingConfig.Interval()

	candles, dataSource, err := s.acquire(ctx, symbol, interval, req)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, ErrNoData
	}

	eng, err := s.newEngine(engine.Params{
		Start:          req.StartDate,
		End:            req.EndDate,
		InitialCapital: req.InitialCapital,
		TradingConfig:  req.TradingConfig,
	})
	if err != nil {
		return nil, err
	}
	result, err := eng.Run(candles)
	if err != nil {
		return nil, err
	}

	logger.Infof("[backtest] run %s 完成 symbol=%s interval=%s source=%s total=%d",
		runID, symbol, interval, dataSource, len(candles))
	return &RunResponse{
		Result:       result,
		RunID:        runID,
		Candles:      market.Tail(candles, s.tailLimit),
		DataSource:   dataSource,
		TotalCandles: len(candles),
	}, nil
}

// acquire 先尝试远端抓取；失败或为空时按区间估算数量生成降级数据。
// 宿主 ctx 已取消时不再降级，直接向上返回取消原因。
func (s *Service) acquire(ctx context.Context, symbol, interval string, req RunRequest) ([]market.Candle, string, error) {
	candles, err := s.src.Fetch(ctx, source.Query{
		Symbol:   symbol,
		Interval: interval,
		Start:    req.StartDate,
		End:      req.EndDate,
	})
	if err == nil && len(candles) > 0 {
		return candles, s.src.Name(), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, "", ctxErr
	}
	if err != nil {
		logger.Warnf("[backtest] 远端抓取失败，降级到生成数据 symbol=%s interval=%s err=%v", symbol, interval, err)
	} else {
		logger.Warnf("[backtest] 远端数据为空，降级到生成数据 symbol=%s interval=%s", symbol, interval)
	}
	s.obs.OnEvent(source.Event{Stage: source.StageSelect, Outcome: source.OutcomeFallback, Err: err})

	count := market.CandleSpan(req.StartDate, req.EndDate, interval)
	if count > s.maxTotal {
		count = s.maxTotal
	}
	return s.gen.Generate(symbol, interval, count, req.StartDate, req.EndDate), s.gen.Name(), nil
}

func (r RunRequest) validate() error {
	switch {
	case r.StartDate == 0:
		return fmt.Errorf("%w: 缺少 startDate", ErrValidation)
	case r.EndDate == 0:
		return fmt.Errorf("%w: 缺少 endDate", ErrValidation)
	case r.InitialCapital <= 0:
		return fmt.Errorf("%w: initialCapital 必须为正数", ErrValidation)
	case len(r.TradingConfig) == 0:
		return fmt.Errorf("%w: 缺少 tradingConfig", ErrValidation)
	}
	return nil
}
