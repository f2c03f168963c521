package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownWaitsForServices(t *testing.T) {
	m := NewManager()
	stopped := make(chan struct{})
	require.NoError(t, m.Go("worker", func(h *Handle) {
		defer h.Close()
		for h.Sleep(time.Hour) == nil {
		}
		close(stopped)
	}))

	_, err := m.NewServiceHandle("worker")
	assert.Error(t, err, "同名服务不能重复注册")

	m.Shutdown()
	assert.Empty(t, m.WaitWithTimeout(time.Second))
	<-stopped

	_, err = m.NewServiceHandle("late")
	assert.Error(t, err)
}

func TestWaitReportsStragglers(t *testing.T) {
	m := NewManager()
	b, err := m.NewServiceHandle("b")
	require.NoError(t, err)
	_, err = m.NewServiceHandle("a")
	require.NoError(t, err)

	b.Close()
	b.Close()

	m.Shutdown()
	assert.Equal(t, []string{"a"}, m.WaitWithTimeout(20*time.Millisecond))
}

func TestSleepInterrupted(t *testing.T) {
	m := NewManager()
	h, err := m.NewServiceHandle("s")
	require.NoError(t, err)
	defer h.Close()

	assert.NoError(t, h.Sleep(time.Millisecond))
	m.Shutdown()
	assert.ErrorIs(t, h.Sleep(time.Hour), context.Canceled)
}
