package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/api"
	"github.com/SlpAus/hotelier-ranking-backend/internal/notify"
	"github.com/SlpAus/hotelier-ranking-backend/internal/platform/backup"
	"github.com/SlpAus/hotelier-ranking-backend/internal/platform/config"
	"github.com/SlpAus/hotelier-ranking-backend/internal/platform/database"
	"github.com/SlpAus/hotelier-ranking-backend/internal/platform/health"
	"github.com/SlpAus/hotelier-ranking-backend/internal/platform/shutdown"
	"github.com/SlpAus/hotelier-ranking-backend/internal/platform/startup"
	"github.com/SlpAus/hotelier-ranking-backend/internal/protocol"
	"github.com/SlpAus/hotelier-ranking-backend/internal/ranking"
	"github.com/SlpAus/hotelier-ranking-backend/internal/server"
	"github.com/SlpAus/hotelier-ranking-backend/internal/snapshot"
	"github.com/SlpAus/hotelier-ranking-backend/internal/store"
	"github.com/SlpAus/hotelier-ranking-backend/pkg/lifecycle"
	"github.com/SlpAus/hotelier-ranking-backend/pkg/token"
)

const healthInterval = 15 * time.Second

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("服务器启动失败", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	term, err := ranking.ParseUpvoteTerm(cfg.Ranking.UpvoteTerm)
	if err != nil {
		return err
	}
	signer, err := token.NewSigner(cfg.Token.Secret)
	if err != nil {
		return err
	}

	ctx := context.Background()
	checker := health.NewChecker()
	var closers []io.Closer

	// 2. 准备快照后端
	backend, err := openBackend(cfg, checker)
	if err != nil {
		return err
	}

	// 3. 加载快照或生成默认目录
	st := store.New(store.Options{Cooldown: cfg.Review.Cooldown})
	if _, err := startup.InitializeApplication(ctx, st, backend); err != nil {
		return fmt.Errorf("应用初始化失败，无法启动: %w", err)
	}

	// 4. 订阅表与广播
	registry := notify.NewRegistry(st.Hotels(),
		notify.WithMaxFailures(cfg.Notify.MaxFailures),
		notify.WithMailboxSize(cfg.Notify.MailboxSize),
	)
	broadcaster, bcClosers, err := openBroadcaster(ctx, cfg, checker)
	if err != nil {
		return err
	}
	closers = append(closers, bcClosers...)

	// 5. 后台服务：排名引擎、快照调度器、健康检查
	manager := lifecycle.NewManager()
	engine := ranking.NewEngine(ranking.Config{Interval: cfg.Ranking.Interval, Term: term}, st.Hotels(), registry, broadcaster)
	scheduler := backup.NewScheduler(st, backend, cfg.Backup.Backend, cfg.Backup.Interval)

	if err := manager.Go("ranking", engine.Start); err != nil {
		return err
	}
	if err := manager.Go("backup", scheduler.StartBackupScheduler); err != nil {
		return err
	}
	slog.Info("正在执行启动后健康检查...")
	checker.PerformCheck(ctx)
	if err := manager.Go("health", func(h *lifecycle.Handle) { checker.Start(h, healthInterval) }); err != nil {
		return err
	}

	// 6. TCP协议服务器
	tcp := server.New(cfg.Server.Address, protocol.NewDispatcher(st), st)
	tcpCtx, stopTCP := context.WithCancel(ctx)
	tcpDone := make(chan struct{})
	go func() {
		defer close(tcpDone)
		if err := tcp.Serve(tcpCtx); err != nil {
			slog.Error("TCP服务器异常退出", "error", err)
		}
	}()

	// 7. HTTP服务器
	handler := api.NewHandler(st, st.Hotels(), registry, signer, checker)
	httpServer := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: api.NewRouter(cfg.HTTP, handler),
	}
	go func() {
		slog.Info("HTTP服务器已准备就绪", "address", cfg.HTTP.Address)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP服务器异常退出", "error", err)
		}
	}()

	// 8. 阻塞等待停机信号
	coordinator := &shutdown.Coordinator{
		Manager: manager,
		HTTP:    httpServer,
		StopTCP: func() {
			stopTCP()
			<-tcpDone
		},
		Registry:      registry,
		FinalSnapshot: scheduler.CreateSnapshot,
		Closers:       closers,
	}
	coordinator.ListenForSignalsAndShutdown()
	return nil
}

func openBackend(cfg *config.Config, checker *health.Checker) (snapshot.Backend, error) {
	if cfg.Backup.Backend == config.BackendFile {
		return snapshot.NewFileStore(cfg.Backup.Directory, cfg.Backup.BaseFile), nil
	}
	db, err := database.OpenDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	checker.Register("database", health.DBProbe(db))
	return snapshot.NewDBStore(db)
}

func openBroadcaster(ctx context.Context, cfg *config.Config, checker *health.Checker) (notify.Broadcaster, []io.Closer, error) {
	var (
		closers []io.Closer
		fanout  notify.Fanout
	)

	mode := cfg.Broadcast.Mode
	if mode == config.BroadcastMulticast || mode == config.BroadcastFanout {
		mc, err := notify.NewMulticastBroadcaster(cfg.Broadcast.GroupAddress())
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, mc)
		fanout = append(fanout, mc)
	}
	if mode == config.BroadcastRedis || mode == config.BroadcastFanout {
		rdb, err := database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, rdb)
		checker.Register("redis", health.RedisProbe(rdb))
		fanout = append(fanout, notify.NewRedisBroadcaster(rdb, cfg.Broadcast.RedisChannel))
	}

	switch len(fanout) {
	case 0:
		return notify.Discard{}, closers, nil
	case 1:
		return fanout[0], closers, nil
	default:
		return fanout, closers, nil
	}
}
