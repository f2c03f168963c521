package user

import "github.com/SlpAus/hotelier-ranking-backend/internal/catalog"

// User 是注册用户。ReviewIDs 按发布时间倒序保存该用户发表的评论ID，
// Badge 总是由评论数派生，加载快照时会重新计算。
type User struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	ReviewIDs []int64 `json:"reviews"`
	Badge     string  `json:"badge"`
}

// ReviewCount 返回用户已发表的评论数。
func (u *User) ReviewCount() int {
	return len(u.ReviewIDs)
}

// addReview 将新评论放在列表头部并重新计算徽章。
func (u *User) addReview(id int64) {
	u.ReviewIDs = append([]int64{id}, u.ReviewIDs...)
	u.Badge = catalog.BadgeFor(len(u.ReviewIDs))
}

// clone 返回一个不与仓库共享切片的副本。
func (u *User) clone() User {
	c := *u
	c.ReviewIDs = append([]int64(nil), u.ReviewIDs...)
	return c
}
