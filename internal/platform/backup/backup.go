// Package backup 定期把领域存储写成快照。
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/internal/snapshot"
	"github.com/SlpAus/hotelier-ranking-backend/internal/store"
	"github.com/SlpAus/hotelier-ranking-backend/pkg/lifecycle"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	snapshotsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hotelier_snapshots_total",
		Help: "Snapshots attempted, by backend and result.",
	}, []string{"backend", "result"})
	snapshotDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hotelier_snapshot_duration_seconds",
		Help:    "Time spent writing one snapshot.",
		Buckets: prometheus.DefBuckets,
	})
)

const (
	maxRetry   = 3
	retryDelay = 50 * time.Millisecond
)

// Source 提供待持久化的状态，*store.Store 满足该接口。
type Source interface {
	Export() store.Snapshot
}

// Scheduler 是快照调度器。
type Scheduler struct {
	source   Source
	exporter snapshot.Exporter
	backend  string
	interval time.Duration

	backupMutex sync.Mutex // 避免定时快照与最终快照并发
}

// NewScheduler 创建调度器，backend 只用于日志与指标。
func NewScheduler(source Source, exporter snapshot.Exporter, backend string, interval time.Duration) *Scheduler {
	return &Scheduler{source: source, exporter: exporter, backend: backend, interval: interval}
}

// StartBackupScheduler 定期执行快照，直到生命周期句柄被取消。
func (s *Scheduler) StartBackupScheduler(handle *lifecycle.Handle) {
	defer handle.Close() // 确保在退出时通知管理器
	slog.Info("快照调度器已启动。", "backend", s.backend, "interval", s.interval)

	for {
		// 使用可中断的休眠，停机信号到来时立刻从休眠中唤醒并退出
		if err := handle.Sleep(s.interval); err != nil {
			slog.Info("快照调度器: 休眠被中断，正在关闭...")
			return
		}

		artifact, err := s.CreateSnapshot(handle.Ctx())
		if err != nil {
			// 如果错误是由于停机信号导致的，则静默退出
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				slog.Error("快照调度器错误: 执行快照失败", "error", err)
			}
			continue
		}
		slog.Info("快照调度器: 快照成功。", "artifact", artifact)
	}
}

// CreateSnapshot 导出当前状态并写出，失败时短暂等待后重试。
func (s *Scheduler) CreateSnapshot(ctx context.Context) (artifact string, err error) {
	s.backupMutex.Lock()
	defer s.backupMutex.Unlock()

	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		snapshotsTotal.WithLabelValues(s.backend, result).Inc()
		snapshotDuration.Observe(time.Since(start).Seconds())
	}()

	snap := s.source.Export()
	for i := 0; i < maxRetry; i++ {
		if err = ctx.Err(); err != nil {
			return "", err
		}
		artifact, err = s.exporter.Export(ctx, snap)
		if err == nil {
			return artifact, nil
		}
		slog.Warn("快照写入失败，准备重试", "attempt", i+1, "error", err)
		time.Sleep(retryDelay)
	}
	return "", fmt.Errorf("快照在 %d 次尝试后仍然失败: %w", maxRetry, err)
}
