// Package ranking 周期性地重新计算每家酒店的排名值、对各城市排序，并把变化交给通知模块。
package ranking

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/internal/catalog"
	"github.com/SlpAus/hotelier-ranking-backend/internal/notify"
	"github.com/SlpAus/hotelier-ranking-backend/internal/review"
	"github.com/SlpAus/hotelier-ranking-backend/pkg/lifecycle"
)

// announceTimeout 限制一次领先者变化广播的耗时。
const announceTimeout = 2 * time.Second

// Store 是排名引擎需要的酒店存储能力。
type Store interface {
	HotelNames(city string) []string
	Rescore(city string, score func(reviews []*review.Review) int) map[string]int
	Ranking(city string) []string
	SetRanking(city string, order []string)
}

// Notifier 接收排行发生变化的城市。
type Notifier interface {
	Notify(city string, hotels []string)
}

// Config 配置排名引擎。
type Config struct {
	Interval time.Duration
	Term     UpvoteTerm
	// Now 用于替换时钟，为空时使用 time.Now。
	Now func() time.Time
}

// Engine 是排名引擎。同一时刻只运行一个周期。
type Engine struct {
	store       Store
	notifier    Notifier
	broadcaster notify.Broadcaster
	cfg         Config

	cycleMu sync.Mutex
}

// NewEngine 创建排名引擎。broadcaster 为空时不广播。
func NewEngine(cfg Config, store Store, notifier Notifier, broadcaster notify.Broadcaster) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Term == "" {
		cfg.Term = TermLog2PlusOne
	}
	if broadcaster == nil {
		broadcaster = notify.Discard{}
	}
	return &Engine{store: store, notifier: notifier, broadcaster: broadcaster, cfg: cfg}
}

// CycleResult 汇总一个周期内检测到的变化。
type CycleResult struct {
	Changed       []string
	LeaderChanges []notify.LeaderChange
}

// RunCycle 执行一次完整的重新计算。
// 每家酒店只在自己的锁内计算，排行榜在计算完一个城市后整体替换。
func (e *Engine) RunCycle(ctx context.Context) CycleResult {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	start := time.Now()
	now := e.cfg.Now()
	var result CycleResult

	for _, city := range catalog.CityNames() {
		values := e.store.Rescore(city, func(reviews []*review.Review) int {
			return Score(reviews, now, e.cfg.Term)
		})
		if len(values) == 0 {
			continue
		}

		prev := e.store.Ranking(city)
		next := order(prev, e.store.HotelNames(city), values)
		e.store.SetRanking(city, next)

		if slices.Equal(prev, next) {
			continue
		}
		result.Changed = append(result.Changed, city)
		if len(prev) > 0 && prev[0] != next[0] {
			result.LeaderChanges = append(result.LeaderChanges, notify.LeaderChange{City: city, Old: prev[0], New: next[0]})
		}
	}

	// 通知在释放所有存储锁之后进行
	for _, city := range result.Changed {
		if e.notifier != nil {
			e.notifier.Notify(city, e.store.Ranking(city))
		}
	}
	for _, lc := range result.LeaderChanges {
		actx, cancel := context.WithTimeout(ctx, announceTimeout)
		if err := e.broadcaster.Announce(actx, lc); err != nil {
			slog.Warn("排名引擎: 领先者变化广播失败", "city", lc.City, "error", err)
		}
		cancel()
	}

	cyclesTotal.Inc()
	cycleDuration.Observe(time.Since(start).Seconds())
	changedCitiesTotal.Add(float64(len(result.Changed)))
	leaderChangesTotal.Add(float64(len(result.LeaderChanges)))
	if len(result.Changed) > 0 {
		slog.Info("排名引擎: 排行已更新", "changed", result.Changed, "leaders", len(result.LeaderChanges))
	}
	return result
}

// order 以上一轮的排行为基础做稳定降序排序，使同分酒店保持原有相对顺序。
// 不在上一轮排行中的酒店按目录顺序追加在末尾参与排序。
func order(prev, all []string, values map[string]int) []string {
	next := make([]string, 0, len(all))
	seen := make(map[string]bool, len(all))
	for _, name := range prev {
		if _, ok := values[name]; ok && !seen[name] {
			next = append(next, name)
			seen[name] = true
		}
	}
	for _, name := range all {
		if !seen[name] {
			next = append(next, name)
			seen[name] = true
		}
	}
	sort.SliceStable(next, func(i, j int) bool {
		return values[next[i]] > values[next[j]]
	})
	return next
}

// Start 按固定间隔运行排名周期，直到生命周期句柄被取消。
func (e *Engine) Start(handle *lifecycle.Handle) {
	defer handle.Close()
	slog.Info("排名引擎已启动", "interval", e.cfg.Interval, "term", e.cfg.Term)

	for {
		// 使用可中断的休眠，停机信号到来时立刻退出
		if err := handle.Sleep(e.cfg.Interval); err != nil {
			slog.Info("排名引擎: 休眠被中断，正在关闭")
			return
		}
		e.RunCycle(handle.Ctx())
	}
}
