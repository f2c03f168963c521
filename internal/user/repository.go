package user

import (
	"sort"
	"sync"

	"github.com/SlpAus/hotelier-ranking-backend/internal/catalog"
	"github.com/SlpAus/hotelier-ranking-backend/pkg/idgen"
)

// idBase 是用户ID的偏移量，第一个注册用户的ID为 idBase+1。
const idBase = 1000

// Repository 持有用户表和在线会话表两个逻辑存储。
// 锁顺序：先用户表（mu），后会话表（sessionMu）。
type Repository struct {
	mu    sync.RWMutex
	users map[string]*User
	ids   *idgen.Generator

	sessionMu sync.Mutex
	online    map[string]struct{}
}

// NewRepository 创建一个空的用户仓库。
func NewRepository() *Repository {
	return &Repository{
		users:  make(map[string]*User),
		ids:    idgen.New(idBase),
		online: make(map[string]struct{}),
	}
}

// --- 并发控制 ---

// Lock 封装了对用户表的写锁定操作，供跨存储的组合操作使用。
func (r *Repository) Lock() { r.mu.Lock() }

// Unlock 封装了对用户表的写解锁操作。
func (r *Repository) Unlock() { r.mu.Unlock() }

// RLock 封装了对用户表的读锁定操作。
func (r *Repository) RLock() { r.mu.RLock() }

// RUnlock 封装了对用户表的读解锁操作。
func (r *Repository) RUnlock() { r.mu.RUnlock() }

// --- 对外操作 ---

// Register 创建新用户并返回其副本。
func (r *Repository) Register(username, password string) (User, error) {
	if username == "" || password == "" {
		return User{}, ErrInvalidCredential
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[username]; exists {
		return User{}, ErrAlreadyExists
	}
	u := &User{
		ID:       r.ids.Next(),
		Username: username,
		Password: password,
	}
	r.users[username] = u
	return u.clone(), nil
}

// Login 校验凭据，并在会话表中原子地将用户标记为在线。
func (r *Repository) Login(username, password string) error {
	if username == "" || password == "" {
		return ErrInvalidCredential
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[username]
	if !ok {
		return ErrNotRegistered
	}
	if u.Password != password {
		return ErrWrongCredential
	}

	r.sessionMu.Lock()
	defer r.sessionMu.Unlock()
	if _, online := r.online[username]; online {
		return ErrAlreadyLoggedIn
	}
	r.online[username] = struct{}{}
	return nil
}

// Logout 将用户从会话表中移除。
func (r *Repository) Logout(username string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.users[username]; !ok {
		return ErrNotRegistered
	}

	r.sessionMu.Lock()
	defer r.sessionMu.Unlock()
	if _, online := r.online[username]; !online {
		return ErrNotLoggedIn
	}
	delete(r.online, username)
	return nil
}

// IsOnline 报告用户当前是否在线。
func (r *Repository) IsOnline(username string) bool {
	r.sessionMu.Lock()
	defer r.sessionMu.Unlock()
	_, online := r.online[username]
	return online
}

// OnlineCount 返回当前在线用户数。
func (r *Repository) OnlineCount() int {
	r.sessionMu.Lock()
	defer r.sessionMu.Unlock()
	return len(r.online)
}

// Get 返回用户副本。
func (r *Repository) Get(username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return User{}, ErrNotRegistered
	}
	return u.clone(), nil
}

// --- 需要调用方持锁的操作 ---

// CheckAuthorLocked 确认作者已注册且在线。调用方必须持有用户表的锁。
func (r *Repository) CheckAuthorLocked(username string) error {
	if _, ok := r.users[username]; !ok {
		return ErrNotRegistered
	}
	if !r.IsOnline(username) {
		return ErrNotLoggedIn
	}
	return nil
}

// AddReviewLocked 为用户追加一条评论并重新计算徽章。调用方必须持有用户表的写锁。
func (r *Repository) AddReviewLocked(username string, reviewID int64) error {
	u, ok := r.users[username]
	if !ok {
		return ErrNotRegistered
	}
	u.addReview(reviewID)
	return nil
}

// ReviewIDsLocked 返回用户评论ID列表的副本。调用方必须持有用户表的锁。
func (r *Repository) ReviewIDsLocked(username string) ([]int64, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, ErrNotRegistered
	}
	return append([]int64(nil), u.ReviewIDs...), nil
}

// --- 快照 ---

// Snapshot 返回按ID排序的全部用户副本。
func (r *Repository) Snapshot() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.SnapshotLocked()
}

// SnapshotLocked 与 Snapshot 相同，调用方必须持有用户表的锁。
func (r *Repository) SnapshotLocked() []User {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Load 用快照内容替换仓库中的全部用户，并让ID分配器越过已加载的最大ID。
// 会话表被清空：重启后所有用户都处于离线状态。
func (r *Repository) Load(users []User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = make(map[string]*User, len(users))
	for i := range users {
		u := users[i].clone()
		u.Badge = catalog.BadgeFor(len(u.ReviewIDs))
		r.users[u.Username] = &u
		r.ids.Advance(u.ID)
	}

	r.sessionMu.Lock()
	r.online = make(map[string]struct{})
	r.sessionMu.Unlock()
}
