// @title 学生风险分析 API
// @version 1.0
// @description 学生出勤与成绩风险分析服务，包含出勤预测与 AI 洞察。

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"fmt"
	"log"
	"student_risk_backend/internal/app"
	"student_risk_backend/internal/config"
	"student_risk_backend/internal/service"
	"student_risk_backend/pkg/logger"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件目录")
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	hashPassword := flag.String("hash-password", "", "输出操作员密码的 bcrypt 哈希后退出")
	flag.Parse()

	if *hashPassword != "" {
		hashed, err := service.HashPassword(*hashPassword)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hashed)
		return
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg, *configDir)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		defer application.Close()
		if application.DB == nil {
			log.Println("数据库未启用，无需迁移")
			return
		}
		// InitDB 已执行 AutoMigrate
		log.Println("数据库迁移完成，退出程序")
		return
	}

	application.Run()
}
