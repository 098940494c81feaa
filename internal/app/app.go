package app

import (
	"context"
	"fmt"

	"vela/internal/config"
	backtesthttp "vela/internal/transport/http/backtest"

	"golang.org/x/sync/errgroup"
)

// App 负责应用级编排：加载配置→初始化依赖→启动回测 HTTP 服务。
type App struct {
	cfg  *config.Config
	http *backtesthttp.Server
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	return NewAppBuilder(cfg).Build()
}

// Run 启动 HTTP 服务并阻塞至 ctx 取消或服务退出。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.http == nil {
		return fmt.Errorf("http server not initialized")
	}
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.http.Start(ctx); err != nil {
			return fmt.Errorf("backtest http server error: %w", err)
		}
		return nil
	})
	return group.Wait()
}

// Server exposes the underlying HTTP server instance (for testing harnesses).
func (a *App) Server() *backtesthttp.Server {
	if a == nil {
		return nil
	}
	return a.http
}
