// Package ratelimit 基于Redis有序集合实现滑动窗口限流。
package ratelimit

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/SlpAus/peer-review-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
)

// Limiter 在 window 时间内对同一个键最多放行 limit 次请求。
// Redis不可用时放行所有请求，限流只是保护措施，不应阻断登录。
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration

	// healthy 默认读取全局Redis健康状态，测试中可替换
	healthy func() bool
}

// New 创建限流器。client 为nil或 limit 为0时限流器不生效。
func New(client *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		client:  client,
		prefix:  prefix,
		limit:   limit,
		window:  window,
		healthy: database.IsRedisHealthy,
	}
}

// Decision 是一次限流判断的结果
type Decision struct {
	Allowed bool
	Count   int64
}

// Allow 为键记录一次请求并判断是否放行
func (l *Limiter) Allow(ctx context.Context, key string, now time.Time) (Decision, error) {
	if l == nil || l.client == nil || l.limit <= 0 || !l.healthy() {
		return Decision{Allowed: true}, nil
	}

	redisKey := l.prefix + key
	minScore := float64(now.Add(-l.window).UnixMicro())
	member, err := generateUniqueID(now)
	if err != nil {
		return Decision{Allowed: true}, fmt.Errorf("生成 memberID 失败: %w", err)
	}

	// 清理窗口外的记录、写入本次请求、刷新过期时间并计数，在一个事务中完成
	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("(%f", minScore))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixMicro()), Member: member})
	pipe.Expire(ctx, redisKey, l.window+time.Minute)
	countCmd := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{Allowed: true}, fmt.Errorf("执行限流事务失败: %w", err)
	}

	count := countCmd.Val()
	return Decision{Allowed: count <= int64(l.limit), Count: count}, nil
}

// generateUniqueID 生成一个16字节、抗冲突的有序集合成员ID:
// [ 8字节纳秒时间戳 (Big Endian) | 8字节随机数 ]
func generateUniqueID(t time.Time) (string, error) {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], uint64(t.UnixNano()))
	if _, err := rand.Read(b[8:16]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SetHealthCheck 替换判断Redis是否可用的函数
func (l *Limiter) SetHealthCheck(fn func() bool) {
	l.healthy = fn
}
