// Package review 定义评论实体、评分校验以及按 (作者, 酒店) 计算的发表冷却。
package review

import (
	"slices"
	"time"
)

// idBase 是评论ID的偏移量。
const idBase = 1000

// IDBase 返回评论ID分配器的起点。
func IDBase() int64 { return idBase }

// Scores 依次为位置、清洁、服务、性价比四个分项评分。
type Scores [4]float64

// Review 是一条已被接受的评论。除 Upvotes 只增不减外，其余字段创建后不再修改。
type Review struct {
	ID      int64     `json:"id"`
	Author  string    `json:"author"`
	Hotel   string    `json:"hotel"`
	Rate    float64   `json:"rate"`
	Ratings Scores    `json:"ratings"`
	Date    time.Time `json:"date"`
	Upvotes []string  `json:"upvotes"`
}

// UpvoteCount 返回点赞数。
func (r *Review) UpvoteCount() int {
	return len(r.Upvotes)
}

// AddUpvote 记录一次点赞，身份已存在时返回 false。
func (r *Review) AddUpvote(identity string) bool {
	if slices.Contains(r.Upvotes, identity) {
		return false
	}
	r.Upvotes = append(r.Upvotes, identity)
	return true
}

// Clone 返回不与原评论共享切片的副本。
func (r *Review) Clone() Review {
	c := *r
	c.Upvotes = append([]string(nil), r.Upvotes...)
	return c
}
