package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyed_LimitsPerKey(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	k := NewKeyed(2, time.Minute).WithClock(func() time.Time { return now })

	ok, _ := k.Allow("1.1.1.1")
	assert.True(t, ok)
	ok, _ = k.Allow("1.1.1.1")
	assert.True(t, ok)

	ok, wait := k.Allow("1.1.1.1")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, wait)

	// 其它 IP 不受影响
	ok, _ = k.Allow("2.2.2.2")
	assert.True(t, ok)

	now = now.Add(61 * time.Second)
	ok, _ = k.Allow("1.1.1.1")
	assert.True(t, ok)
}

func TestSlidingWindow_RetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sw := NewSlidingWindow(1, 10*time.Second)
	sw.now = func() time.Time { return now }

	assert.True(t, sw.Allow())
	now = now.Add(4 * time.Second)
	assert.False(t, sw.Allow())
	assert.Equal(t, 6*time.Second, sw.RetryAfter())
}
