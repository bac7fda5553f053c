package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow 滑动窗口速率限制器
type SlidingWindow struct {
	limit      int           // 限制数量
	windowSize time.Duration // 窗口大小
	requests   []time.Time   // 请求时间戳
	now        func() time.Time
	mu         sync.Mutex
}

// NewSlidingWindow 创建新的滑动窗口速率限制器
func NewSlidingWindow(limit int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
}

// Allow 检查是否允许请求
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.allowLocked(sw.now())
}

func (sw *SlidingWindow) allowLocked(now time.Time) bool {
	sw.evictLocked(now)
	if len(sw.requests) >= sw.limit {
		return false
	}
	sw.requests = append(sw.requests, now)
	return true
}

// 移除窗口外的请求（requests 按时间递增）
func (sw *SlidingWindow) evictLocked(now time.Time) {
	cutoff := now.Add(-sw.windowSize)
	i := 0
	for i < len(sw.requests) && !sw.requests[i].After(cutoff) {
		i++
	}
	if i > 0 {
		sw.requests = append(sw.requests[:0], sw.requests[i:]...)
	}
}

// RetryAfter 距离下一次允许请求的时间
func (sw *SlidingWindow) RetryAfter() time.Duration {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	now := sw.now()
	sw.evictLocked(now)
	if len(sw.requests) < sw.limit || len(sw.requests) == 0 {
		return 0
	}
	return sw.requests[0].Add(sw.windowSize).Sub(now)
}

func (sw *SlidingWindow) idle(now time.Time) bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.evictLocked(now)
	return len(sw.requests) == 0
}

// Keyed 按 key（例如客户端 IP）分别限流
type Keyed struct {
	limit      int
	windowSize time.Duration
	now        func() time.Time

	mu      sync.Mutex
	windows map[string]*SlidingWindow
	calls   int
}

// NewKeyed 创建按 key 限流器
func NewKeyed(limit int, windowSize time.Duration) *Keyed {
	return &Keyed{
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
		windows:    make(map[string]*SlidingWindow),
	}
}

// WithClock 替换时间源（测试用）
func (k *Keyed) WithClock(now func() time.Time) *Keyed {
	k.mu.Lock()
	k.now = now
	for _, w := range k.windows {
		w.now = now
	}
	k.mu.Unlock()
	return k
}

// Allow 检查 key 是否允许请求，返回 false 时附带建议的等待时间
func (k *Keyed) Allow(key string) (bool, time.Duration) {
	w := k.window(key)
	if w.Allow() {
		return true, 0
	}
	return false, w.RetryAfter()
}

func (k *Keyed) window(key string) *SlidingWindow {
	k.mu.Lock()
	defer k.mu.Unlock()

	// 每 256 次调用顺带清理一次空闲窗口，避免 map 无限增长
	k.calls++
	if k.calls%256 == 0 {
		now := k.now()
		for key, w := range k.windows {
			if w.idle(now) {
				delete(k.windows, key)
			}
		}
	}

	w, ok := k.windows[key]
	if !ok {
		w = NewSlidingWindow(k.limit, k.windowSize)
		w.now = k.now
		k.windows[key] = w
	}
	return w
}
