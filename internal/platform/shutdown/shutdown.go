package shutdown

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/pkg/lifecycle"
)

const (
	httpTimeout     = 15 * time.Second
	gracefulTimeout = 30 * time.Second
	snapshotTimeout = 30 * time.Second
)

// Coordinator 负责编排应用程序的优雅停机流程。
// 字段为空的步骤会被跳过。
type Coordinator struct {
	// Manager 持有排名引擎、快照调度器等后台服务的句柄。
	Manager *lifecycle.Manager
	// HTTP 是gin所在的HTTP服务器。
	HTTP *http.Server
	// StopTCP 停止TCP服务器并等待其退出，期间所有在线会话被登出。
	StopTCP func()
	// Registry 是订阅表，停机时关闭所有推送。
	Registry interface{ Close() }
	// FinalSnapshot 在所有写入者停止后执行最后一次快照。
	FinalSnapshot func(ctx context.Context) (string, error)
	// Closers 在最后关闭，例如广播器与Redis客户端。
	Closers []io.Closer
}

// ListenForSignalsAndShutdown 阻塞直到收到停机信号，然后执行停机流程。
func (c *Coordinator) ListenForSignalsAndShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 阻塞直到接收到停机信号
	<-sigChan
	slog.Info("收到关闭信号，开始优雅停机...")
	c.Shutdown()
}

// Shutdown 按顺序停止各组件：先停止接收请求，再停止后台服务，最后写出快照。
func (c *Coordinator) Shutdown() {
	// 关闭HTTP服务器，允许正在进行的请求完成
	if c.HTTP != nil {
		ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
		if err := c.HTTP.Shutdown(ctx); err != nil {
			slog.Error("HTTP服务器关闭错误", "error", err)
		} else {
			slog.Info("HTTP服务器已关闭。")
		}
		cancel()
	}

	if c.StopTCP != nil {
		c.StopTCP()
		slog.Info("TCP服务器已关闭。")
	}

	if c.Manager != nil {
		slog.Info("等待后台服务完成...", "timeout", gracefulTimeout)
		c.Manager.Shutdown()
		if remaining := c.Manager.WaitWithTimeout(gracefulTimeout); len(remaining) > 0 {
			slog.Warn("部分后台服务未能按时退出", "services", remaining)
		} else {
			slog.Info("所有后台服务已关闭。")
		}
	}

	if c.Registry != nil {
		c.Registry.Close()
	}

	// --- 最终步骤 ---
	if c.FinalSnapshot != nil {
		slog.Info("正在执行最终快照...")
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		if artifact, err := c.FinalSnapshot(ctx); err != nil {
			slog.Error("最终快照失败", "error", err)
		} else {
			slog.Info("最终快照成功。", "artifact", artifact)
		}
		cancel()
	}

	for _, closer := range c.Closers {
		if err := closer.Close(); err != nil {
			slog.Warn("关闭资源失败", "error", err)
		}
	}
	slog.Info("优雅停机完成。")
}
