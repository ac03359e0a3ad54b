package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SlpAus/peer-review-backend/internal/platform/logging"
)

// Manager 向后台服务分发生命周期句柄，并在停机时广播信号、等待它们退出。
type Manager struct {
	name     string
	wg       sync.WaitGroup
	mu       sync.Mutex
	services map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager 创建一个新的生命周期管理器，name 只用于日志
func NewManager(name string) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		name:     name,
		services: make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// NewServiceHandle 为一个服务注册并返回生命周期句柄。
// 服务退出前必须调用 Handle.Close。
func (m *Manager) NewServiceHandle(service string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.services[service] {
		return nil, fmt.Errorf("生命周期管理器 %s: 服务 '%s' 已被注册", m.name, service)
	}
	m.services[service] = true
	m.wg.Add(1)
	logging.Log.WithFields(map[string]any{"manager": m.name, "service": service}).Debug("服务已注册")

	var once sync.Once
	return &Handle{
		ctx: m.ctx,
		Close: func() {
			once.Do(func() {
				m.mu.Lock()
				delete(m.services, service)
				m.mu.Unlock()
				m.wg.Done()
			})
		},
	}, nil
}

// Shutdown 广播停机信号
func (m *Manager) Shutdown() {
	logging.Log.WithField("manager", m.name).Info("生命周期管理器: 广播停机信号")
	m.cancel()
}

// WaitWithTimeout 等待所有已注册的服务退出，超时时返回仍在运行的服务名
func (m *Manager) WaitWithTimeout(timeout time.Duration) []string {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		m.mu.Lock()
		defer m.mu.Unlock()
		remaining := make([]string, 0, len(m.services))
		for service := range m.services {
			remaining = append(remaining, service)
		}
		sort.Strings(remaining)
		return remaining
	}
}
