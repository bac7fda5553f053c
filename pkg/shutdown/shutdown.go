package shutdown

import (
	"context"
	"sync"

	"github.com/betbot/tradedesk/pkg/logger"
)

// Handler 关闭处理函数
type Handler func(ctx context.Context) error

type namedHandler struct {
	name string
	fn   Handler
}

// Manager 优雅关闭管理器，按注册的逆序执行（后打开的资源先关闭）
type Manager struct {
	mu        sync.Mutex
	callbacks []namedHandler
	done      bool
}

// NewManager 创建新的关闭管理器
func NewManager() *Manager {
	return &Manager{}
}

// OnShutdown 注册关闭回调
func (m *Manager) OnShutdown(name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, namedHandler{name: name, fn: handler})
}

// Shutdown 执行所有关闭回调（阻塞调用，只执行一次）
// ctx 应该是一个带超时的 context，避免无限等待
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return
	}
	m.done = true
	callbacks := m.callbacks
	m.mu.Unlock()

	logger.Infof("shutting down, %d handlers", len(callbacks))
	for i := len(callbacks) - 1; i >= 0; i-- {
		cb := callbacks[i]
		if ctx.Err() != nil {
			logger.Warnf("shutdown timeout, skip %s: %v", cb.name, ctx.Err())
			continue
		}
		if err := cb.fn(ctx); err != nil {
			logger.Warnf("shutdown %s failed: %v", cb.name, err)
			continue
		}
		logger.Debugf("shutdown %s done", cb.name)
	}
}
