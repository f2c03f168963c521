package health

import (
	"log/slog"
	"sync"
	"time"
)

// State 是单个组件的健康状态。
type State string

const (
	StateHealthy  State = "healthy"
	StateDegraded State = "degraded"
)

// ComponentStatus 是一个组件最近一次检查的结果。
type ComponentStatus struct {
	State     State     `json:"state"`
	Detail    string    `json:"detail,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Report 是 /healthz 返回的整体状态。任一组件降级则整体降级。
type Report struct {
	Status     State                      `json:"status"`
	Components map[string]ComponentStatus `json:"components"`
}

// statusManager 线程安全地保存各组件状态，只在状态变化时打印日志。
type statusManager struct {
	mu         sync.RWMutex
	components map[string]ComponentStatus
}

func (sm *statusManager) update(name string, err error, now time.Time) {
	next := ComponentStatus{State: StateHealthy, CheckedAt: now}
	if err != nil {
		next.State = StateDegraded
		next.Detail = err.Error()
	}

	sm.mu.Lock()
	prev, known := sm.components[name]
	sm.components[name] = next
	sm.mu.Unlock()

	if known && prev.State == next.State {
		return
	}
	if next.State == StateHealthy {
		slog.Info("健康检查: 组件状态 -> [健康]", "component", name)
	} else {
		slog.Warn("健康检查: 组件状态 -> [降级]", "component", name, "error", err)
	}
}

func (sm *statusManager) report() Report {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	r := Report{Status: StateHealthy, Components: make(map[string]ComponentStatus, len(sm.components))}
	for name, st := range sm.components {
		r.Components[name] = st
		if st.State != StateHealthy {
			r.Status = StateDegraded
		}
	}
	return r
}
