// Package startup 负责应用启动时的数据库准备工作。
package startup

import (
	"fmt"

	"github.com/SlpAus/peer-review-backend/internal/model"
	"github.com/SlpAus/peer-review-backend/internal/platform/logging"
	"gorm.io/gorm"
)

// InitializeApplication 迁移全部模型的表结构
func InitializeApplication(db *gorm.DB) error {
	logging.Log.Info("开始应用初始化...")

	for _, m := range model.All() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("无法迁移 %T 表: %w", m, err)
		}
	}

	logging.Log.WithField("tables", len(model.All())).Info("应用初始化完成")
	return nil
}
