package shutdown

import (
	"errors"
	"testing"
	"time"

	"github.com/SlpAus/peer-review-backend/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdown_StopsServicesThenFinalizes(t *testing.T) {
	graceful := lifecycle.NewManager("graceful")
	forceful := lifecycle.NewManager("forceful")

	h, err := graceful.NewServiceHandle("checker")
	require.NoError(t, err)
	stopped := make(chan struct{})
	go func() {
		defer h.Close()
		defer close(stopped)
		_ = h.Sleep(time.Hour)
	}()

	var order []string
	c := NewCoordinator(graceful, forceful,
		func() error { order = append(order, "redis"); return nil },
		func() error { order = append(order, "db"); return errors.New("已关闭") },
	)

	c.Shutdown(nil)

	select {
	case <-stopped:
	default:
		t.Fatal("后台服务应已退出")
	}
	assert.Equal(t, []string{"redis", "db"}, order)
}
