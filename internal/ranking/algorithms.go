package ranking

import (
	"fmt"
	"math"
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/internal/review"
)

// --- 算法常量 ---
const (
	rateScale = 20 // 把 [0,5] 的评分放大到 [0,100]
)

// UpvoteTerm 决定点赞数在排名函数中的贡献方式。
type UpvoteTerm string

const (
	// TermLog2PlusOne 使用 floor(log2(1+u))，0个点赞贡献0。
	TermLog2PlusOne UpvoteTerm = "log2-plus-one"
	// TermLog2Floor 使用 floor(log2(u))，0个点赞时按0计。
	TermLog2Floor UpvoteTerm = "log2-floor"
)

// ParseUpvoteTerm 解析配置中的取值，空字符串取默认值。
func ParseUpvoteTerm(s string) (UpvoteTerm, error) {
	switch UpvoteTerm(s) {
	case "", TermLog2PlusOne:
		return TermLog2PlusOne, nil
	case TermLog2Floor:
		return TermLog2Floor, nil
	}
	return "", fmt.Errorf("未知的点赞项: %q", s)
}

// upvoteContribution 计算单条评论点赞数的贡献。
func upvoteContribution(upvotes int, term UpvoteTerm) float64 {
	if term == TermLog2Floor {
		if upvotes <= 0 {
			return 0
		}
		return math.Floor(math.Log2(float64(upvotes)))
	}
	return math.Floor(math.Log2(float64(1 + upvotes)))
}

// reviewContribution 计算单条评论的贡献：
// 评分*20/(1+距发布的整秒数) + 点赞项。
func reviewContribution(r *review.Review, now time.Time, term UpvoteTerm) float64 {
	elapsed := int64(now.Sub(r.Date) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	return r.Rate*rateScale/float64(1+elapsed) + upvoteContribution(r.UpvoteCount(), term)
}

// Score 计算一家酒店的排名值：round(评论数 + Σ 单条贡献)。
func Score(reviews []*review.Review, now time.Time, term UpvoteTerm) int {
	total := float64(len(reviews))
	for _, r := range reviews {
		total += reviewContribution(r, now, term)
	}
	return int(math.Round(total))
}
