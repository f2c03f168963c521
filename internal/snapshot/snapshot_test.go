package snapshot

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/internal/hotel"
	"github.com/SlpAus/hotelier-ranking-backend/internal/platform/metadata"
	"github.com/SlpAus/hotelier-ranking-backend/internal/review"
	"github.com/SlpAus/hotelier-ranking-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// populatedStore 返回一个有两个用户、两条评论和一个点赞的存储。
func populatedStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(store.Options{Cooldown: time.Minute})
	s.Import(store.Snapshot{Hotels: hotel.Seed(rand.New(rand.NewPCG(7, 8)))})
	for _, name := range []string{"alice", "bob"} {
		require.NoError(t, s.Register(name, "pw-"+name))
		require.NoError(t, s.Login(name, "pw-"+name))
	}
	rv, err := s.InsertReview("Hotel Torino 4S", "Torino", 4.5, review.Scores{4, 5, 4, 3}, "alice")
	require.NoError(t, err)
	_, err = s.InsertReview("Hotel Genova 3", "Genova", 2, review.Scores{2, 2, 2, 2}, "bob")
	require.NoError(t, err)
	_, err = s.Upvote(rv.ID, "bob")
	require.NoError(t, err)
	return s
}

// assertRestored 把快照导入新存储，并检查关键状态都被恢复。
func assertRestored(t *testing.T, snap store.Snapshot) {
	t.Helper()
	restored := store.New(store.Options{Cooldown: time.Minute})
	restored.Import(snap)

	assert.Equal(t, 100, restored.Hotels().Count())

	mine, err := restored.ShowMyReviews("alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Hotel Torino 4S", mine[0].Hotel)
	assert.Equal(t, []string{"bob"}, mine[0].Upvotes)

	badge, err := restored.ShowBadge("bob")
	require.NoError(t, err)
	assert.Equal(t, "Recensore", badge)

	hotels, err := restored.Search("Hotel Torino 4S", "Torino")
	require.NoError(t, err)
	require.Len(t, hotels, 1)
	assert.Equal(t, 4.5, hotels[0].Rate)

	// 重启后所有用户离线，ID继续递增
	require.NoError(t, restored.Login("alice", "pw-alice"))
	rv, err := restored.InsertReview("Hotel Torino 3", "Torino", 3, review.Scores{3, 3, 3, 3}, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1003), rv.ID)
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir, "snapshot")
	fs.now = func() time.Time { return time.Date(2024, 5, 1, 9, 8, 7, 0, time.UTC) }

	artifact, err := fs.Export(context.Background(), populatedStore(t).Export())
	require.NoError(t, err)
	assert.Equal(t,
		filepath.Join(dir, "hotel", "snapshot_2024-05-01_09-08-07.json")+","+
			filepath.Join(dir, "user", "snapshot_2024-05-01_09-08-07.json"),
		artifact)

	snap, found, err := fs.LoadLatest(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assertRestored(t, snap)
}

func TestLoadLatestPicksNewestNonEmpty(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string, age time.Duration) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		at := time.Now().Add(-age)
		require.NoError(t, os.Chtimes(path, at, at))
	}
	write("base.json", `["base"]`, 3*time.Hour)
	write("base_2024-01-01_00-00-00.json", `["old"]`, 2*time.Hour)
	write("base_2024-01-02_00-00-00.json", `["new"]`, time.Hour)
	write("base_2024-01-03_00-00-00.json", ``, 0)
	write("other_2024-01-04_00-00-00.json", `["other"]`, 0)

	got, found, err := loadLatest[[]string](dir, "base")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"new"}, got)
}

func TestLoadLatestFallsBackToBaseFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.json"), []byte(`["base"]`), 0o644))

	got, found, err := loadLatest[[]string](dir, "base")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"base"}, got)

	_, found, err = loadLatest[[]string](filepath.Join(dir, "missing"), "base")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoadLatestReportsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base_2024-01-01_00-00-00.json"), []byte(`{`), 0o644))
	_, _, err := loadLatest[[]string](dir, "base")
	assert.Error(t, err)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestDBStoreRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ds, err := NewDBStore(db)
	require.NoError(t, err)

	_, found, err := ds.LoadLatest(context.Background())
	require.NoError(t, err)
	assert.False(t, found)

	s := populatedStore(t)
	_, err = ds.Export(context.Background(), s.Export())
	require.NoError(t, err)
	// 第二次导出覆盖同一批行
	artifact, err := ds.Export(context.Background(), s.Export())
	require.NoError(t, err)
	assert.Equal(t, "db", artifact)

	var n int64
	require.NoError(t, db.Table("reviews").Count(&n).Error)
	assert.EqualValues(t, 2, n)

	rec, ok, err := metadata.LastSnapshot(db)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, rec.Reviews)

	snap, found, err := ds.LoadLatest(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assertRestored(t, snap)
}
