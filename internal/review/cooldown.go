package review

import (
	"log/slog"
	"sync"
	"time"
)

// Cooldown 记录每个 (作者, 酒店) 最近一次被接受的评论时间。
// 它的互斥锁是叶子锁：只在自身方法内部持有，可以在任何存储锁之内调用。
type Cooldown struct {
	window time.Duration

	mu   sync.Mutex
	last map[cooldownKey]time.Time
}

type cooldownKey struct {
	author string
	hotel  string
}

// NewCooldown 创建一个冷却窗口为 window 的限制器。window<=0 时不做限制。
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window: window,
		last:   make(map[cooldownKey]time.Time),
	}
}

// Window 返回冷却窗口。
func (c *Cooldown) Window() time.Duration {
	return c.window
}

// Reservation 是一次尚未提交的冷却占位。
// 它在业务流程失败时通过 defer 安全地撤销占位。
type Reservation struct {
	c         *Cooldown
	key       cooldownKey
	prev      time.Time
	hadPrev   bool
	committed bool
}

// Reserve 检查冷却并为本次评论占位。冷却未结束时返回 *RateLimitedError。
func (c *Cooldown) Reserve(author, hotel string, now time.Time) (*Reservation, error) {
	key := cooldownKey{author: author, hotel: hotel}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev, hadPrev := c.last[key]
	if hadPrev && c.window > 0 {
		if elapsed := now.Sub(prev); elapsed < c.window {
			return nil, &RateLimitedError{Remaining: c.window - elapsed}
		}
	}
	c.last[key] = now
	return &Reservation{c: c, key: key, prev: prev, hadPrev: hadPrev}, nil
}

// Commit 标记上层业务已成功，阻止后续的回滚。
func (r *Reservation) Commit() {
	r.committed = true
}

// RollbackUnlessCommitted 用于 defer 调用：未提交时恢复占位前的状态。
func (r *Reservation) RollbackUnlessCommitted() {
	if r.committed {
		return
	}
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if r.hadPrev {
		r.c.last[r.key] = r.prev
	} else {
		delete(r.c.last, r.key)
	}
}

// Rebuild 从已加载的评论恢复冷却状态，只保留窗口内仍然有效的记录。
func (c *Cooldown) Rebuild(reviews []Review, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.last = make(map[cooldownKey]time.Time)
	for _, r := range reviews {
		if c.window > 0 && now.Sub(r.Date) >= c.window {
			continue
		}
		key := cooldownKey{author: r.Author, hotel: r.Hotel}
		if r.Date.After(c.last[key]) {
			c.last[key] = r.Date
		}
	}
	slog.Info("评论冷却：已从快照恢复", "entries", len(c.last))
}
