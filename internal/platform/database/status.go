package database

import (
	"sync"

	"github.com/SlpAus/peer-review-backend/internal/platform/logging"
)

// statusManager 负责线程安全地管理和提供Redis的健康状态。
type statusManager struct {
	mu             sync.RWMutex
	isRedisHealthy bool
}

// 全局的状态管理器实例
var globalStatus = &statusManager{}

// IsRedisHealthy 返回当前Redis的健康状态。未配置Redis时始终为false。
func IsRedisHealthy() bool {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.isRedisHealthy
}

// UpdateStatus 用于线程安全地更新健康状态，只在状态变化时记录日志。
func UpdateStatus(isHealthy bool) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()

	if globalStatus.isRedisHealthy == isHealthy {
		return
	}
	globalStatus.isRedisHealthy = isHealthy
	if isHealthy {
		logging.Log.Info("健康检查: Redis服务状态已更新为 [可用]")
	} else {
		logging.Log.Warn("健康检查警告: Redis服务状态已更新为 [不可用]")
	}
}
