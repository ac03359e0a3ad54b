package shutdown

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SlpAus/peer-review-backend/internal/platform/logging"
	"github.com/SlpAus/peer-review-backend/pkg/lifecycle"
)

const (
	httpTimeout     = 15 * time.Second
	gracefulTimeout = 30 * time.Second
	forcefulTimeout = 1 * time.Second
)

// Coordinator 负责编排应用程序的优雅停机流程。
type Coordinator struct {
	GracefulManager *lifecycle.Manager
	ForcefulManager *lifecycle.Manager

	// Finalizers 在所有后台服务退出后按顺序执行，例如关闭数据库连接
	Finalizers []func() error
}

// NewCoordinator 创建一个新的停机协调器。
func NewCoordinator(gracefulMgr, forcefulMgr *lifecycle.Manager, finalizers ...func() error) *Coordinator {
	return &Coordinator{
		GracefulManager: gracefulMgr,
		ForcefulManager: forcefulMgr,
		Finalizers:      finalizers,
	}
}

// ListenForSignalsAndShutdown 阻塞直到收到停机信号，然后执行停机流程。
func (c *Coordinator) ListenForSignalsAndShutdown(server *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logging.Log.Info("收到关闭信号，开始优雅停机")

	c.Shutdown(server)
}

// Shutdown 关闭HTTP服务器，然后分两个阶段停止后台服务。
func (c *Coordinator) Shutdown(server *http.Server) {
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logging.Log.WithError(err).Error("HTTP服务器关闭错误")
		} else {
			logging.Log.Info("HTTP服务器已关闭")
		}
	}

	// --- 阶段一: 优雅停机 ---
	c.GracefulManager.Shutdown()
	remaining := c.GracefulManager.WaitWithTimeout(gracefulTimeout)
	if len(remaining) == 0 {
		logging.Log.Info("所有服务已在第一阶段优雅关闭")
	} else {
		// --- 阶段二: 强制停机 ---
		logging.Log.WithField("remaining", remaining).Warn("第一阶段超时，发送强制停机信号")
		c.ForcefulManager.Shutdown()
		c.ForcefulManager.WaitWithTimeout(forcefulTimeout)
	}

	for _, finalize := range c.Finalizers {
		if err := finalize(); err != nil {
			logging.Log.WithError(err).Error("停机清理失败")
		}
	}
	logging.Log.Info("优雅停机完成")
}
