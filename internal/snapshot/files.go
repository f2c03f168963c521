package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/internal/hotel"
	"github.com/SlpAus/hotelier-ranking-backend/internal/store"
	"github.com/SlpAus/hotelier-ranking-backend/internal/user"
	"golang.org/x/sync/errgroup"
)

const (
	hotelDir = "hotel"
	userDir  = "user"
	// timestampLayout 对应 yyyy-MM-dd_HH-mm-ss
	timestampLayout = "2006-01-02_15-04-05"
)

// FileStore 把快照写到 <dir>/hotel/<base>_<时间>.json 与 <dir>/user/<base>_<时间>.json。
type FileStore struct {
	dir  string
	base string
	now  func() time.Time
}

// NewFileStore 创建文件后端。
func NewFileStore(dir, base string) *FileStore {
	return &FileStore{dir: dir, base: base, now: time.Now}
}

// Export 写出酒店与用户两个文件。每个文件先写临时文件再改名，读者不会看到写了一半的文件。
func (f *FileStore) Export(ctx context.Context, snap store.Snapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := f.base + "_" + f.now().Format(timestampLayout) + ".json"
	hotelPath := filepath.Join(f.dir, hotelDir, name)
	userPath := filepath.Join(f.dir, userDir, name)

	hotels := snap.Hotels
	if hotels == nil {
		hotels = []hotel.Snapshot{}
	}
	users := snap.Users
	if users == nil {
		users = []user.User{}
	}
	if err := writeJSON(hotelPath, hotels); err != nil {
		return "", err
	}
	if err := writeJSON(userPath, users); err != nil {
		return "", err
	}
	return hotelPath + "," + userPath, nil
}

// LoadLatest 并行加载两个目录中最新的文件。
func (f *FileStore) LoadLatest(ctx context.Context) (store.Snapshot, bool, error) {
	var (
		snap       store.Snapshot
		hotelFound bool
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Hotels, hotelFound, err = loadLatest[[]hotel.Snapshot](filepath.Join(f.dir, hotelDir), f.base)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Users, _, err = loadLatest[[]user.User](filepath.Join(f.dir, userDir), f.base)
		return err
	})
	if err := g.Wait(); err != nil {
		return store.Snapshot{}, false, err
	}
	return snap, hotelFound && len(snap.Hotels) > 0, nil
}

// loadLatest 在 dir 中选出修改时间最新的非空 <base>_*.json；没有时退回 <base>.json。
func loadLatest[T any](dir, base string) (T, bool, error) {
	var zero T

	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return zero, false, fmt.Errorf("无法读取快照目录 %s: %w", dir, err)
	}

	var (
		newest   string
		newestAt time.Time
	)
	prefix := base + "_"
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		if newest == "" || info.ModTime().After(newestAt) {
			newest, newestAt = name, info.ModTime()
		}
	}

	path := filepath.Join(dir, newest)
	if newest == "" {
		path = filepath.Join(dir, base+".json")
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			return zero, false, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return zero, false, fmt.Errorf("无法读取快照 %s: %w", path, err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, false, fmt.Errorf("无法解析快照 %s: %w", path, err)
	}
	return out, true, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("无法创建快照目录: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("无法序列化快照: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("无法创建临时文件: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("无法写入快照: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("无法写入快照: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("无法保存快照 %s: %w", path, err)
	}
	return nil
}
