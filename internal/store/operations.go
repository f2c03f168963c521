package store

import (
	"github.com/SlpAus/hotelier-ranking-backend/internal/hotel"
	"github.com/SlpAus/hotelier-ranking-backend/internal/review"
)

// Register 注册新用户。
func (s *Store) Register(username, password string) error {
	_, err := s.users.Register(username, password)
	return err
}

// Login 登录，同一用户名同时只允许一个在线会话。
func (s *Store) Login(username, password string) error {
	return s.users.Login(username, password)
}

// Logout 登出。
func (s *Store) Logout(username string) error {
	return s.users.Logout(username)
}

// Search 在城市中按名称子串查找酒店。
func (s *Store) Search(query, city string) ([]hotel.Hotel, error) {
	return s.hotels.Search(query, city)
}

// SearchAll 返回城市中的全部酒店，按排行榜顺序。
func (s *Store) SearchAll(city string) ([]hotel.Hotel, error) {
	return s.hotels.Search("", city)
}

// InsertReview 发表一条评论。校验通过后，评论在同一个酒店锁内被追加到酒店与作者的评论列表，
// 并更新酒店的滑动平均，因此排名引擎不会观察到写入一半的评论。
func (s *Store) InsertReview(hotelQuery, city string, rate float64, scores review.Scores, author string) (review.Review, error) {
	s.users.Lock()
	defer s.users.Unlock()

	if err := s.users.CheckAuthorLocked(author); err != nil {
		return review.Review{}, err
	}

	h, err := s.hotels.Resolve(hotelQuery, city)
	if err != nil {
		return review.Review{}, err
	}
	if err := review.ValidateScores(rate, scores); err != nil {
		return review.Review{}, err
	}

	h.Lock()
	defer h.Unlock()

	now := s.now()
	reservation, err := s.cooldown.Reserve(author, h.Name(), now)
	if err != nil {
		return review.Review{}, err
	}
	defer reservation.RollbackUnlessCommitted()

	rv := review.Review{
		ID:      s.reviewIDs.Next(),
		Author:  author,
		Hotel:   h.Name(),
		Rate:    rate,
		Ratings: scores,
		Date:    now,
	}
	if err := s.users.AddReviewLocked(author, rv.ID); err != nil {
		return review.Review{}, err
	}
	s.hotels.AddReviewLocked(h, rv)

	reservation.Commit()
	return rv, nil
}

// Upvote 以 voter 的身份点赞，返回这是否是一次新的点赞。
func (s *Store) Upvote(reviewID int64, voter string) (bool, error) {
	return s.hotels.Upvote(reviewID, voter)
}

// ShowReviews 返回酒店的全部评论，按发布时间倒序。名称解析规则与 InsertReview 相同。
func (s *Store) ShowReviews(hotelQuery, city string) ([]review.Review, error) {
	return s.hotels.Reviews(hotelQuery, city)
}

// ShowMyReviews 返回作者的全部评论，按发布时间倒序。
func (s *Store) ShowMyReviews(author string) ([]review.Review, error) {
	s.users.RLock()
	defer s.users.RUnlock()

	ids, err := s.users.ReviewIDsLocked(author)
	if err != nil {
		return nil, err
	}
	return s.hotels.ReviewsByID(ids), nil
}

// ShowBadge 返回作者当前的徽章，没有徽章时为空字符串。
func (s *Store) ShowBadge(author string) (string, error) {
	u, err := s.users.Get(author)
	if err != nil {
		return "", err
	}
	return u.Badge, nil
}
