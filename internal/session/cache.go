// Package session 维护进程内的活跃会话缓存。
// 缓存以邮箱为键保存用户记录的快照，只是缓存而不是事实来源:
// 条目有容量上限和过期时间，存储层的状态随时可以覆盖它。
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SlpAus/peer-review-backend/internal/apperr"
	"github.com/SlpAus/peer-review-backend/internal/model"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultMaxEntries = 10000
	DefaultTTL        = 24 * time.Hour
)

// UserFinder 是会话缓存需要的存储能力。
// 找不到记录时必须返回 apperr.ErrNotFound。
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// Cache 是并发安全、有界且会过期的活跃会话缓存
type Cache struct {
	users   UserFinder
	entries *expirable.LRU[string, model.User]

	// mu 串行化所有写操作，使 Refresh 的“存在才替换”不会复活刚被登出的会话
	mu sync.Mutex
	// invalidations 每次移除会话时递增，受 mu 保护
	invalidations uint64
}

// NewCache 创建会话缓存。maxEntries 或 ttl 非正时使用默认值。
func NewCache(users UserFinder, maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		users:   users,
		entries: expirable.NewLRU[string, model.User](maxEntries, nil, ttl),
	}
}

// Login 登录一个用户。
// 如果该邮箱已有活跃会话，直接返回缓存的视图，不访问存储也不重新校验密码；
// 否则按邮箱查找用户并校验密码，成功后写入缓存。
func (c *Cache) Login(ctx context.Context, email, password string) (model.PublicView, error) {
	if cached, ok := c.entries.Get(email); ok {
		return cached.View(), nil
	}

	c.mu.Lock()
	seen := c.invalidations
	c.mu.Unlock()

	u, err := c.users.FindByEmail(ctx, email)
	if err != nil {
		return model.PublicView{}, err
	}
	if !Verify(u.Password, password) {
		return model.PublicView{}, apperr.ErrInvalidCredentials
	}

	// 查询期间有会话被移除(例如用户被删除)时，读到的记录可能已失效，不写入缓存
	c.mu.Lock()
	if c.invalidations == seen {
		c.entries.Add(u.Email, *u)
	}
	c.mu.Unlock()
	return u.View(), nil
}

// Logout 结束用户的活跃会话。操作是幂等的:
// 用户不存在或会话早已不在缓存中(例如进程重启过)都视为成功。
func (c *Cache) Logout(ctx context.Context, userID string) error {
	u, err := c.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("登出时查询用户失败: %w", err)
	}
	c.Invalidate(u.Email)
	return nil
}

// Admit 直接为一个刚通过其他途径认证的用户(如注册)建立会话
func (c *Cache) Admit(u model.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(u.Email, u)
}

// Refresh 用存储中的最新记录替换已缓存的快照。没有活跃会话时不做任何事。
func (c *Cache) Refresh(u model.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries.Peek(u.Email); ok {
		c.entries.Add(u.Email, u)
	}
}

// Invalidate 移除某个邮箱的会话，例如用户被删除时
func (c *Cache) Invalidate(email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	c.entries.Remove(email)
}

// IsActive 判断邮箱是否有未过期的活跃会话
func (c *Cache) IsActive(email string) bool {
	_, ok := c.entries.Peek(email)
	return ok
}

// Len 返回当前缓存的会话数量
func (c *Cache) Len() int {
	return c.entries.Len()
}
