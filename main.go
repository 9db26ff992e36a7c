// @title SkillForge 后端 API
// @version 1.0
// @description 技能发展平台的积分、成就与排行榜后端服务。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"

	"skillforge_backend/internal/app"
	"skillforge_backend/internal/config"
	"skillforge_backend/pkg/configwatcher"
	"skillforge_backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		log.Println("数据库迁移完成，退出程序")
		return
	}

	// 热更新限流等运行时参数
	if err := configwatcher.Watch("configs/config.yaml", application.ReloadConfig); err != nil {
		logger.Log.Warn("配置监听未启用", zap.Error(err))
	}

	application.Run()
}
