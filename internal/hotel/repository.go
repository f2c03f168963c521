package hotel

import (
	"sort"
	"strings"
	"sync"

	"github.com/SlpAus/hotelier-ranking-backend/internal/catalog"
	"github.com/SlpAus/hotelier-ranking-backend/internal/review"
)

// entry 是一家酒店及其评论列表。mu 保护 hotel 的可变字段与 reviews，
// 使一次评论的写入对排名引擎的读取不可分割。
type entry struct {
	mu      sync.Mutex
	hotel   Hotel
	reviews []*review.Review // 按发布时间倒序
}

type reviewRef struct {
	e *entry
	r *review.Review
}

// Repository 持有酒店、评论与排行榜。
//
// 锁顺序（与 user.Repository 组合时，用户表总在最前）：
//
//	mu（结构） -> entry.mu（单个酒店） -> indexMu（评论索引） -> rankMu（排行榜）
//
// 同一时刻最多持有一个 entry.mu。
type Repository struct {
	mu     sync.RWMutex
	byName map[string]*entry
	byCity map[string][]*entry

	indexMu sync.RWMutex
	index   map[int64]reviewRef

	rankMu   sync.RWMutex
	rankings map[string][]string
}

// NewRepository 创建一个空仓库。
func NewRepository() *Repository {
	return &Repository{
		byName:   make(map[string]*entry),
		byCity:   make(map[string][]*entry),
		index:    make(map[int64]reviewRef),
		rankings: make(map[string][]string),
	}
}

// Load 用快照替换全部内容，返回已加载评论中的最大ID。
// 各城市的初始排行按快照中的顺序建立。
func (r *Repository) Load(snaps []Snapshot) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	byName := make(map[string]*entry, len(snaps))
	byCity := make(map[string][]*entry)
	index := make(map[int64]reviewRef)
	rankings := make(map[string][]string)
	var maxID int64

	for i := range snaps {
		s := snaps[i]
		e := &entry{hotel: s.Hotel.clone()}
		e.hotel.Rank, e.hotel.Ranking = 0, 0

		e.reviews = make([]*review.Review, 0, len(s.Reviews))
		for j := range s.Reviews {
			rv := s.Reviews[j].Clone()
			e.reviews = append(e.reviews, &rv)
			index[rv.ID] = reviewRef{e: e, r: &rv}
			if rv.ID > maxID {
				maxID = rv.ID
			}
		}
		sort.SliceStable(e.reviews, func(a, b int) bool {
			return e.reviews[a].Date.After(e.reviews[b].Date)
		})

		byName[strings.ToLower(e.hotel.Name)] = e
		byCity[e.hotel.City] = append(byCity[e.hotel.City], e)
		rankings[e.hotel.City] = append(rankings[e.hotel.City], e.hotel.Name)
	}
	for _, list := range byCity {
		for pos, e := range list {
			e.hotel.Rank = pos + 1
		}
	}

	r.byName, r.byCity = byName, byCity

	r.indexMu.Lock()
	r.index = index
	r.indexMu.Unlock()

	r.rankMu.Lock()
	r.rankings = rankings
	r.rankMu.Unlock()

	return maxID
}

// cityEntries 返回规范化后的城市名及其酒店。调用方必须持有 mu 的读锁。
func (r *Repository) cityEntries(city string) (string, []*entry, error) {
	c, _, err := catalog.LookupCity(city)
	if err != nil {
		return "", nil, err
	}
	return c.Name, r.byCity[c.Name], nil
}

// Search 在城市中按名称子串（不区分大小写）查找酒店，query 为空时返回全部。
// 结果按当前排行榜顺序排列。
func (r *Repository) Search(query, city string) ([]Hotel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, entries, err := r.cityEntries(city)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)

	matched := make(map[string]*entry, len(entries))
	for _, e := range entries {
		if q == "" || strings.Contains(strings.ToLower(e.hotel.Name), q) {
			matched[e.hotel.Name] = e
		}
	}

	out := make([]Hotel, 0, len(matched))
	for _, hotelName := range r.Ranking(name) {
		e, ok := matched[hotelName]
		if !ok {
			continue
		}
		e.mu.Lock()
		out = append(out, e.hotel.clone())
		e.mu.Unlock()
	}
	return out, nil
}

// Handle 是解析后的酒店引用，供跨存储的组合操作在单个酒店锁内完成写入。
type Handle struct {
	e *entry
}

// Name 返回酒店名称。名称在酒店生命周期内不变，读取无需加锁。
func (h *Handle) Name() string { return h.e.hotel.Name }

// Lock 锁定该酒店。
func (h *Handle) Lock() { h.e.mu.Lock() }

// Unlock 解锁该酒店。
func (h *Handle) Unlock() { h.e.mu.Unlock() }

// Resolve 在城市中按名称子串解析唯一的酒店。
// 恰好两个匹配时视为 superior 命名歧义并接受：若其中之一与查询完全相同（不区分大小写）则取它，
// 否则取第一个；超过两个匹配返回 ErrAmbiguousHotel，没有匹配返回 ErrUnknownHotel。
func (r *Repository) Resolve(query, city string) (*Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, entries, err := r.cityEntries(city)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))

	var matches []*entry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.hotel.Name), q) {
			matches = append(matches, e)
		}
	}

	switch {
	case len(matches) == 0:
		return nil, ErrUnknownHotel
	case len(matches) > 2:
		return nil, ErrAmbiguousHotel
	}
	for _, e := range matches {
		if strings.ToLower(e.hotel.Name) == q {
			return &Handle{e: e}, nil
		}
	}
	return &Handle{e: matches[0]}, nil
}

// ReviewCountLocked 返回该酒店的评论数。调用方必须持有酒店锁。
func (h *Handle) ReviewCountLocked() int {
	return len(h.e.reviews)
}

// AddReviewLocked 把新评论放在该酒店评论列表头部，更新滑动平均并登记到评论索引。
// 调用方必须持有酒店锁。
func (r *Repository) AddReviewLocked(h *Handle, rv review.Review) Hotel {
	stored := rv.Clone()
	e := h.e
	e.reviews = append([]*review.Review{&stored}, e.reviews...)
	e.hotel.applyReview(stored.Rate, stored.Ratings, len(e.reviews))

	r.indexMu.Lock()
	r.index[stored.ID] = reviewRef{e: e, r: &stored}
	r.indexMu.Unlock()

	return e.hotel.clone()
}

// ReviewsLocked 返回该酒店评论的副本，按发布时间倒序。调用方必须持有酒店锁。
func (h *Handle) ReviewsLocked() []review.Review {
	out := make([]review.Review, len(h.e.reviews))
	for i, rv := range h.e.reviews {
		out[i] = rv.Clone()
	}
	return out
}

// Reviews 解析酒店并返回其评论副本。
func (r *Repository) Reviews(query, city string) ([]review.Review, error) {
	h, err := r.Resolve(query, city)
	if err != nil {
		return nil, err
	}
	h.Lock()
	defer h.Unlock()
	return h.ReviewsLocked(), nil
}

func (r *Repository) lookupReview(id int64) (reviewRef, bool) {
	r.indexMu.RLock()
	defer r.indexMu.RUnlock()
	ref, ok := r.index[id]
	return ref, ok
}

// Upvote 以 identity 的身份给评论点赞，返回这是否是一次新的点赞。
func (r *Repository) Upvote(reviewID int64, identity string) (bool, error) {
	ref, ok := r.lookupReview(reviewID)
	if !ok {
		return false, review.ErrUnknownReview
	}

	ref.e.mu.Lock()
	defer ref.e.mu.Unlock()

	if ref.r.Author == identity {
		return false, review.ErrSelfVote
	}
	return ref.r.AddUpvote(identity), nil
}

// Review 返回指定评论的副本。
func (r *Repository) Review(id int64) (review.Review, error) {
	ref, ok := r.lookupReview(id)
	if !ok {
		return review.Review{}, review.ErrUnknownReview
	}
	ref.e.mu.Lock()
	defer ref.e.mu.Unlock()
	return ref.r.Clone(), nil
}

// ReviewsByID 按给定顺序返回评论副本，忽略不存在的ID。
func (r *Repository) ReviewsByID(ids []int64) []review.Review {
	out := make([]review.Review, 0, len(ids))
	for _, id := range ids {
		if rv, err := r.Review(id); err == nil {
			out = append(out, rv)
		}
	}
	return out
}

// --- 排名引擎使用的接口 ---

// HotelNames 返回城市中全部酒店的名称，顺序与目录一致。
func (r *Repository) HotelNames(city string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.byCity[city]
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.hotel.Name
	}
	return names
}

// Rescore 对城市中的每家酒店依次调用 score，并把返回值写入该酒店的 Ranking。
// 每次调用只持有对应酒店的锁，score 不得回调仓库。
func (r *Repository) Rescore(city string, score func(reviews []*review.Review) int) map[string]int {
	r.mu.RLock()
	entries := append([]*entry(nil), r.byCity[city]...)
	r.mu.RUnlock()

	values := make(map[string]int, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		e.hotel.Ranking = score(e.reviews)
		values[e.hotel.Name] = e.hotel.Ranking
		e.mu.Unlock()
	}
	return values
}

// Ranking 返回城市当前排行榜的副本。
func (r *Repository) Ranking(city string) []string {
	r.rankMu.RLock()
	defer r.rankMu.RUnlock()
	return append([]string(nil), r.rankings[city]...)
}

// SetRanking 替换城市的排行榜，并把每家酒店的 Rank 设为其从1开始的名次。
func (r *Repository) SetRanking(city string, order []string) {
	r.rankMu.Lock()
	r.rankings[city] = append([]string(nil), order...)
	r.rankMu.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()
	for pos, name := range order {
		e, ok := r.byName[strings.ToLower(name)]
		if !ok {
			continue
		}
		e.mu.Lock()
		e.hotel.Rank = pos + 1
		e.mu.Unlock()
	}
}

// --- 快照 ---

// Snapshot 返回全部酒店及其评论的副本，按城市目录顺序排列。
func (r *Repository) Snapshot() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Snapshot, 0, len(r.byName))
	for _, city := range catalog.CityNames() {
		for _, e := range r.byCity[city] {
			e.mu.Lock()
			s := Snapshot{Hotel: e.hotel.clone(), Reviews: make([]review.Review, len(e.reviews))}
			for i, rv := range e.reviews {
				s.Reviews[i] = rv.Clone()
			}
			e.mu.Unlock()
			out = append(out, s)
		}
	}
	return out
}

// Count 返回酒店总数。
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}
