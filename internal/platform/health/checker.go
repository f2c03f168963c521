// Package health 定期探测外部依赖（数据库、Redis），并汇总为 /healthz 的报告。
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/pkg/lifecycle"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

// Probe 探测一个组件，返回 nil 表示健康。
type Probe func(ctx context.Context) error

// Checker 持有已注册的探针及其最近结果。
type Checker struct {
	mu     sync.Mutex
	probes map[string]Probe
	status statusManager
	now    func() time.Time
}

// NewChecker 创建一个没有任何探针的检查器，此时报告总是健康。
func NewChecker() *Checker {
	return &Checker{
		probes: make(map[string]Probe),
		status: statusManager{components: make(map[string]ComponentStatus)},
		now:    time.Now,
	}
}

// Register 注册一个探针，同名探针会被替换。
func (c *Checker) Register(name string, probe Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[name] = probe
}

// PerformCheck 依次执行所有探针。
func (c *Checker) PerformCheck(ctx context.Context) {
	c.mu.Lock()
	probes := make(map[string]Probe, len(c.probes))
	for name, p := range c.probes {
		probes[name] = p
	}
	c.mu.Unlock()

	for name, probe := range probes {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := probe(pctx)
		cancel()
		c.status.update(name, err, c.now())
	}
}

// Report 返回最近一次检查的汇总。
func (c *Checker) Report() Report {
	return c.status.report()
}

// Start 按固定间隔执行检查，直到生命周期句柄被取消。
func (c *Checker) Start(handle *lifecycle.Handle, interval time.Duration) {
	defer handle.Close()
	slog.Info("健康检查器已启动", "interval", interval)

	for {
		if err := handle.Sleep(interval); err != nil {
			return
		}
		c.PerformCheck(handle.Ctx())
	}
}

// RedisProbe 通过 PING 探测Redis。
func RedisProbe(rdb *redis.Client) Probe {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

// DBProbe 通过底层连接池探测数据库。
func DBProbe(db *gorm.DB) Probe {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
