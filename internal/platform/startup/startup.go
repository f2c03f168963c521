package startup

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/SlpAus/hotelier-ranking-backend/internal/hotel"
	"github.com/SlpAus/hotelier-ranking-backend/internal/snapshot"
	"github.com/SlpAus/hotelier-ranking-backend/internal/store"
)

// catalogSeed 固定目录生成器的种子，没有快照时每次启动得到相同的酒店目录。
const catalogSeed = 2024

// Source 描述初始状态的来源。
type Source string

const (
	SourceSnapshot Source = "snapshot"
	SourceSeed     Source = "seed"
)

// InitializeApplication 是应用启动时执行的总入口：加载最近的快照，
// 没有可用的酒店数据时生成默认目录，然后导入领域存储。
func InitializeApplication(ctx context.Context, st *store.Store, loader snapshot.Loader) (Source, error) {
	slog.Info("开始应用初始化...")

	snap, found, err := loader.LoadLatest(ctx)
	if err != nil {
		return "", fmt.Errorf("加载快照失败: %w", err)
	}

	source := SourceSnapshot
	if !found {
		slog.Info("没有可用的酒店快照，使用默认目录")
		snap.Hotels = hotel.Seed(rand.New(rand.NewPCG(catalogSeed, catalogSeed)))
		source = SourceSeed
	}
	st.Import(snap)

	slog.Info("应用初始化完成！", "source", source, "hotels", st.Hotels().Count(), "users", len(snap.Users))
	return source, nil
}
