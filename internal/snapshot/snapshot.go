// Package snapshot 把领域存储的用户与酒店集合持久化，并在启动时加载最近一次的结果。
// 提供两种后端：带时间戳的JSON文件，以及通过gorm写入的数据库。
package snapshot

import (
	"context"

	"github.com/SlpAus/hotelier-ranking-backend/internal/store"
)

// Exporter 写出一次快照，返回可读的产物描述（文件路径或后端名称）。
type Exporter interface {
	Export(ctx context.Context, snap store.Snapshot) (string, error)
}

// Loader 加载最近一次快照。没有任何可用酒店数据时 found 为 false，
// 此时返回的 Users 仍然可能非空。
type Loader interface {
	LoadLatest(ctx context.Context) (snap store.Snapshot, found bool, err error)
}

// Backend 同时具备导出与加载能力。
type Backend interface {
	Exporter
	Loader
}

func countReviews(snap store.Snapshot) int {
	n := 0
	for _, h := range snap.Hotels {
		n += len(h.Reviews)
	}
	return n
}
