package health

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/SlpAus/peer-review-backend/internal/platform/database"
	"github.com/SlpAus/peer-review-backend/internal/platform/logging"
	"github.com/SlpAus/peer-review-backend/pkg/lifecycle"
	"github.com/redis/go-redis/v9"
)

const (
	checkInterval = 5 * time.Second
	pingTimeout   = 2 * time.Second
)

var runIDPattern = regexp.MustCompile(`run_id:([a-f0-9]+)`)

// Checker 定期检查Redis的可用性，并把结果写入全局健康状态
type Checker struct {
	client   *redis.Client
	interval time.Duration
	tracker  runIDTracker
}

// NewChecker 创建一个健康检查器
func NewChecker(client *redis.Client) *Checker {
	return &Checker{client: client, interval: checkInterval}
}

// getRedisRunID 从Redis服务器信息中提取run_id
func (c *Checker) getRedisRunID(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	info, err := c.client.Info(ctx, "server").Result()
	if err != nil {
		return "", err
	}
	matches := runIDPattern.FindStringSubmatch(info)
	if len(matches) < 2 {
		return "", errors.New("无法在Redis INFO中找到run_id")
	}
	return matches[1], nil
}

// PerformCheck 执行一次健康检查并更新状态
func (c *Checker) PerformCheck(ctx context.Context) {
	runID, err := c.getRedisRunID(ctx)
	if err != nil {
		// 部分Redis实现不提供run_id，此时退化为Ping
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if pingErr := c.client.Ping(pingCtx).Err(); pingErr != nil {
			database.UpdateStatus(false)
			return
		}
		database.UpdateStatus(true)
		return
	}

	if c.tracker.observe(runID) {
		// 登录限流的滑动窗口只保存在Redis中，重启即清空，无需重建
		logging.Log.WithField("run_id", runID).Warn("健康检查: 检测到Redis重启，登录限流窗口已重置")
	}
	database.UpdateStatus(true)
}

// Run 在后台循环执行健康检查。
// graceful 被取消后不再开始新的检查；正在进行的Redis调用使用 forceful 的上下文，
// 只有在第二阶段强制停机时才会被中断。
func (c *Checker) Run(graceful, forceful *lifecycle.Handle) {
	defer forceful.Close()
	defer graceful.Close()
	logging.Log.Info("Redis健康检查器已启动")

	for {
		if err := graceful.Sleep(c.interval); err != nil {
			logging.Log.Info("Redis健康检查器: 收到停机信号，正在退出")
			return
		}
		c.PerformCheck(forceful.Ctx())
	}
}
