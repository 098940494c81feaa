package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"vela/internal/app"
	"vela/internal/config"
	"vela/internal/logger"
)

func main() {
	// Ignore error so the service still starts when .env is missing.
	_ = godotenv.Load()

	cfgPath := os.Getenv("VELA_CONFIG")
	explicit := cfgPath != ""
	if !explicit {
		cfgPath = "configs/config.yaml"
	}

	var cfg *config.Config
	if !explicit {
		if _, statErr := os.Stat(cfgPath); os.IsNotExist(statErr) {
			logger.Warnf("未找到配置文件 %s，使用内置默认配置", cfgPath)
			cfg = config.Default()
		}
	}
	if cfg == nil {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			log.Fatalf("读取配置失败: %v", err)
		}
		cfg = loaded
	}
	logger.Infof("✓ 配置加载成功（环境=%s，监听=%s）", cfg.App.Env, cfg.App.HTTPAddr)

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := application.Run(ctx); err != nil {
		log.Fatalf("运行失败: %v", err)
	}
	logger.Infof("服务已退出")
}
