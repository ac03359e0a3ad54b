// Package dbtest 为测试提供独立的内存SQLite数据库。
package dbtest

import (
	"fmt"
	"testing"

	"github.com/SlpAus/peer-review-backend/internal/model"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New 创建一个迁移好全部模型的内存数据库，测试结束时自动关闭。
// 连接池限制为1，事务之间天然串行，与SQLite的单写者模型一致。
func New(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}
	return db
}

// MustCreate 插入记录，失败时终止测试
func MustCreate(t *testing.T, db *gorm.DB, values ...any) {
	t.Helper()
	for _, v := range values {
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("插入测试数据失败: %v", err)
		}
	}
}
