package review

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidScore  = errors.New("评分必须在0到5之间")
	ErrSelfVote      = errors.New("不能给自己的评论点赞")
	ErrUnknownReview = errors.New("评论不存在")
)

// RateLimitedError 表示同一作者对同一酒店的评论仍在冷却期内。
type RateLimitedError struct {
	Remaining time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("还需等待 %ds 才能再次评论该酒店", e.RemainingSeconds())
}

// RemainingSeconds 向上取整到秒，保证冷却期内的值总是大于0。
func (e *RateLimitedError) RemainingSeconds() int64 {
	return int64(math.Ceil(e.Remaining.Seconds()))
}

// ValidateScores 校验总评分与四个分项评分都在 [0,5] 之内。
func ValidateScores(rate float64, scores Scores) error {
	if !inRange(rate) {
		return ErrInvalidScore
	}
	for _, s := range scores {
		if !inRange(s) {
			return ErrInvalidScore
		}
	}
	return nil
}

func inRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 5
}
