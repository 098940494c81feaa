package backtesthttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"vela/internal/backtest"
	"vela/internal/market"

	"github.com/gin-gonic/gin"
)

// PreviewSource 提供最近行情预览，由 SDK 网关实现；未配置时相关
// 路由返回 503。
type PreviewSource interface {
	Latest(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error)
}

// Server 提供回测相关的 HTTP API。
type Server struct {
	addr    string
	svc     *backtest.Service
	preview PreviewSource
	router  *gin.Engine
}

// Config 描述 HTTP Server 的依赖。
type Config struct {
	Addr    string
	Svc     *backtest.Service
	Preview PreviewSource
}

// NewServer 构建 HTTP Server。
func NewServer(cfg Config) (*Server, error) {
	if cfg.Svc == nil {
		return nil, errors.New("service 不能为空")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8090"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:    cfg.Addr,
		svc:     cfg.Svc,
		preview: cfg.Preview,
		router:  router,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.POST("/backtest", s.handleRun)
	s.router.GET("/healthz", s.handleHealth)
	api := s.router.Group("/api")
	api.GET("/intervals", s.handleIntervals)
	api.GET("/klines/latest", s.handleLatestKlines)
}

// Handler 暴露底层路由，测试直接走 ServeHTTP。
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleRun(c *gin.Context) {
	var req backtest.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := s.svc.Run(c.Request.Context(), req)
	if err != nil {
		s.renderRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// renderRunError 把服务层错误映射为 HTTP 状态码：
// 校验 400，无数据 404，其余一律 500。
func (s *Server) renderRunError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, backtest.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, backtest.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleIntervals(c *gin.Context) {
	tokens := market.SupportedIntervals()
	out := make([]gin.H, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, gin.H{"token": token, "millis": market.IntervalMillis(token)})
	}
	c.JSON(http.StatusOK, gin.H{"intervals": out, "default": market.DefaultInterval})
}

func (s *Server) handleLatestKlines(c *gin.Context) {
	if s.preview == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "行情预览未启用"})
		return
	}
	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol 必填"})
		return
	}
	interval := c.DefaultQuery("interval", market.DefaultInterval)
	if !market.KnownInterval(interval) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "不支持的周期: " + interval,
			"supported": market.SupportedIntervals(),
		})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit 非法"})
		return
	}
	candles, err := s.preview.Latest(c.Request.Context(), symbol, interval, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"candles": candles})
}

// Start 启动 HTTP 服务，阻塞直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
