// Package store 组合用户、酒店、评论与排行榜几个逻辑存储，对外提供原子的组合操作。
//
// 全局锁顺序（任何需要同时持有多把锁的操作都必须遵守）：
//
//	用户表 -> 在线会话表 -> 酒店结构 -> 单个酒店（评论列表与评分） -> 评论索引 -> 排行榜 -> 订阅表
//
// 评论冷却的锁是叶子锁，可以在任何位置获取。任何锁都不会跨网络写持有。
package store

import (
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/internal/hotel"
	"github.com/SlpAus/hotelier-ranking-backend/internal/review"
	"github.com/SlpAus/hotelier-ranking-backend/internal/user"
	"github.com/SlpAus/hotelier-ranking-backend/pkg/idgen"
)

// Options 配置 Store。
type Options struct {
	// Cooldown 是同一作者对同一酒店两次评论之间的最短间隔。
	Cooldown time.Duration
	// Now 用于替换时钟，为空时使用 time.Now。
	Now func() time.Time
}

// Store 是领域存储的门面。
type Store struct {
	users     *user.Repository
	hotels    *hotel.Repository
	cooldown  *review.Cooldown
	reviewIDs *idgen.Generator
	now       func() time.Time
}

// New 创建一个空的 Store，需要通过 Import 加载酒店目录后才能使用。
func New(opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		users:     user.NewRepository(),
		hotels:    hotel.NewRepository(),
		cooldown:  review.NewCooldown(opts.Cooldown),
		reviewIDs: idgen.New(review.IDBase()),
		now:       now,
	}
}

// Hotels 返回酒店仓库，供排名引擎使用。
func (s *Store) Hotels() *hotel.Repository { return s.hotels }

// Users 返回用户仓库。
func (s *Store) Users() *user.Repository { return s.users }

// Now 返回 Store 使用的当前时间。
func (s *Store) Now() time.Time { return s.now() }

// Snapshot 是用户与酒店两个持久化集合。Rank 与 Ranking 不在其中。
type Snapshot struct {
	Users  []user.User
	Hotels []hotel.Snapshot
}

// Export 导出当前状态。复制酒店期间一直持有用户表的读锁，
// 而 InsertReview 需要用户表的写锁，所以两个集合来自同一时刻。
func (s *Store) Export() Snapshot {
	s.users.RLock()
	defer s.users.RUnlock()
	return Snapshot{
		Users:  s.users.SnapshotLocked(),
		Hotels: s.hotels.Snapshot(),
	}
}

// Import 用快照替换当前状态，恢复ID分配器与评论冷却。
func (s *Store) Import(snap Snapshot) {
	s.users.Load(snap.Users)
	maxReviewID := s.hotels.Load(snap.Hotels)
	s.reviewIDs.Advance(maxReviewID)

	var all []review.Review
	for _, h := range snap.Hotels {
		all = append(all, h.Reviews...)
	}
	s.cooldown.Rebuild(all, s.now())
}
