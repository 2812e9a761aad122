// @title AI Study Buddy 后端 API
// @version 1.0
// @description AI 学习伙伴的后端服务器，提供聊天辅导、测验生成与学习资料分析。

// @contact.name API支持

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"log"
	"path/filepath"
	"study_buddy_backend/internal/app"
	"study_buddy_backend/internal/config"
	"study_buddy_backend/pkg/configwatcher"
	"study_buddy_backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 配置热更新，变更后通知已注册的回调
	go configwatcher.WatchConfig(filepath.Join("configs", "config.yaml"), cfg, func(newCfg interface{}) {
		reloaded, ok := newCfg.(*config.Config)
		if !ok {
			return
		}
		logger.Log.Info("configuration reloaded", zap.String("path", "configs/config.yaml"))
		application.ApplyConfig(reloaded)
	})

	application.Run()
}
