package database

import (
	"fmt"
	"student_risk_backend/internal/config"
	"student_risk_backend/internal/model"
	"student_risk_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	logLevel := gormlogger.Warn
	if debug {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Log.Info("Database connection established", zap.String("host", cfg.Host), zap.String("db", cfg.DBName))

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate 自动迁移上传历史相关的表
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.CohortUpload{},
		&model.StudentRiskSnapshot{},
	)
	if err != nil {
		return err
	}

	logger.Log.Info("Database migration completed")
	return nil
}
