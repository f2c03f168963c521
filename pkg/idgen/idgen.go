// Package idgen 提供带固定偏移量的单调递增ID分配器。
package idgen

import "sync/atomic"

// Generator 分配严格递增、永不复用的ID。零值不可用，请使用 New。
type Generator struct {
	last int64
}

// New 创建一个分配器，第一个分配出的ID为 base+1。
func New(base int64) *Generator {
	return &Generator{last: base}
}

// Next 原子地分配下一个ID。
func (g *Generator) Next() int64 {
	return atomic.AddInt64(&g.last, 1)
}

// Last 返回最近一次分配的ID（尚未分配时为 base）。
func (g *Generator) Last() int64 {
	return atomic.LoadInt64(&g.last)
}

// Advance 确保之后分配的ID都大于 seen，用于从快照恢复后续号。
func (g *Generator) Advance(seen int64) {
	for {
		cur := atomic.LoadInt64(&g.last)
		if seen <= cur {
			return
		}
		if atomic.CompareAndSwapInt64(&g.last, cur, seen) {
			return
		}
	}
}
