package lifecycle

import (
	"context"
	"sync"
	"time"
)

// Handle 是分发给每个后台服务的生命周期控制器。
type Handle struct {
	ctx     context.Context
	release func()
	once    sync.Once
}

// Close 通知管理器服务已经退出，重复调用无效。
// 应该在服务的goroutine中通过 defer 调用。
func (h *Handle) Close() {
	h.once.Do(h.release)
}

// Ctx 返回在停机时被取消的上下文。
func (h *Handle) Ctx() context.Context {
	return h.ctx
}

// Done 在管理器发出停机信号时关闭。
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

// Err 返回上下文被取消的原因。
func (h *Handle) Err() error {
	return h.ctx.Err()
}

// Sleep 暂停指定的时长，句柄被取消时提前返回错误。
func (h *Handle) Sleep(duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-h.Done():
		return h.Err()
	case <-timer.C:
		return nil
	}
}
