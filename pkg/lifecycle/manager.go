// Package lifecycle 协调后台服务的两阶段停机：先广播取消，再等待各服务确认退出。
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Manager 向后台服务分发句柄(Handle)，并在停机时等待它们全部退出。
type Manager struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	services map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager 创建一个新的生命周期管理器。
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		services: make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// NewServiceHandle 为服务注册一个句柄。服务退出前必须调用 Handle.Close。
func (m *Manager) NewServiceHandle(name string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx.Err() != nil {
		return nil, fmt.Errorf("生命周期管理器: 已停机，拒绝注册服务 '%s'", name)
	}
	if m.services[name] {
		return nil, fmt.Errorf("生命周期管理器: 服务 '%s' 已被注册", name)
	}
	m.services[name] = true
	m.wg.Add(1)
	slog.Debug("生命周期管理器: 服务已注册", "service", name)

	h := &Handle{ctx: m.ctx}
	h.release = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.services, name)
		m.wg.Done()
	}
	return h, nil
}

// Go 注册服务并在新的goroutine中运行 run。run 负责在退出前关闭句柄。
func (m *Manager) Go(name string, run func(*Handle)) error {
	h, err := m.NewServiceHandle(name)
	if err != nil {
		return err
	}
	go run(h)
	return nil
}

// Shutdown 广播停机信号。
func (m *Manager) Shutdown() {
	slog.Info("生命周期管理器: 广播停机信号...")
	m.cancel()
}

// WaitWithTimeout 等待所有已注册的服务完成，超时后返回仍未退出的服务名。
func (m *Manager) WaitWithTimeout(timeout time.Duration) []string {
	doneChan := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(doneChan)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-doneChan:
		return nil
	case <-timer.C:
		m.mu.Lock()
		defer m.mu.Unlock()
		remaining := make([]string, 0, len(m.services))
		for name := range m.services {
			remaining = append(remaining, name)
		}
		slices.Sort(remaining)
		return remaining
	}
}
