package shutdown

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_ReverseOrderOnce(t *testing.T) {
	m := NewManager()
	var order []string
	m.OnShutdown("store", func(context.Context) error { order = append(order, "store"); return nil })
	m.OnShutdown("http", func(context.Context) error { order = append(order, "http"); return errors.New("boom") })
	m.OnShutdown("cache", func(context.Context) error { order = append(order, "cache"); return nil })

	m.Shutdown(context.Background())
	m.Shutdown(context.Background())

	assert.Equal(t, []string{"cache", "http", "store"}, order)
}

func TestManager_SkipsAfterTimeout(t *testing.T) {
	m := NewManager()
	called := false
	m.OnShutdown("store", func(context.Context) error { called = true; return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Shutdown(ctx)
	assert.False(t, called)
}
