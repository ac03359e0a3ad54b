package database

import (
	"fmt"
	"log"
	"os"

	"github.com/SlpAus/peer-review-backend/internal/platform/config"
	"github.com/SlpAus/peer-review-backend/internal/platform/logging"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是全局的数据库连接，由 InitDB 设置
var DB *gorm.DB

// InitDB 按配置的驱动初始化数据库连接
func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	// GORM日志配置
	level := logger.Silent
	if cfg.Debug {
		level = logger.Info
	}
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 0,
			LogLevel:      level,
			Colorful:      true,
		},
	)

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSqlite:
		dialector = sqlite.Open(cfg.Sqlite.Path)
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.Postgres.DSN)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	if cfg.Driver == config.DriverSqlite {
		// SQLite只允许一个写者，串行化连接避免 "database is locked"
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("获取底层数据库连接失败: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	DB = db
	logging.Log.WithField("driver", cfg.Driver).Info("数据库连接成功")
	return db, nil
}

// CloseDB 关闭全局数据库连接
func CloseDB() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
