// Package hotel 持有酒店、按酒店归档的评论以及各城市排行榜三个逻辑存储。
package hotel

import (
	"math"

	"github.com/SlpAus/hotelier-ranking-backend/internal/review"
)

// Ratings 是四个分项评分的滑动平均值，保留一位小数。
type Ratings struct {
	Location    float64 `json:"location"`
	Cleanliness float64 `json:"cleanliness"`
	Service     float64 `json:"service"`
	Value       float64 `json:"value"`
}

// Values 按位置、清洁、服务、性价比的顺序返回分项评分。
func (r Ratings) Values() [4]float64 {
	return [4]float64{r.Location, r.Cleanliness, r.Service, r.Value}
}

func (r *Ratings) update(scores review.Scores, n int) {
	r.Location = runningMean(r.Location, scores[0], n)
	r.Cleanliness = runningMean(r.Cleanliness, scores[1], n)
	r.Service = runningMean(r.Service, scores[2], n)
	r.Value = runningMean(r.Value, scores[3], n)
}

// Hotel 是目录中的一家酒店。Rank 与 Ranking 由排名引擎在运行时派生，不参与持久化。
type Hotel struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	Type        string   `json:"type"`
	Phone       string   `json:"phone"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Rate        float64  `json:"rate"`
	Ratings     Ratings  `json:"ratings"`

	Rank    int `json:"-"`
	Ranking int `json:"-"`
}

// applyReview 把第 n 条评论计入滑动平均。
func (h *Hotel) applyReview(rate float64, scores review.Scores, n int) {
	h.Rate = runningMean(h.Rate, rate, n)
	h.Ratings.update(scores, n)
}

func (h *Hotel) clone() Hotel {
	c := *h
	c.Features = append([]string(nil), h.Features...)
	return c
}

// runningMean 在已有 n-1 个样本的平均值上加入第 n 个样本，并四舍五入到一位小数。
func runningMean(cur, sample float64, n int) float64 {
	if n <= 0 {
		return cur
	}
	avg := (float64(n-1)*cur + sample) / float64(n)
	return math.Round(avg*10) / 10
}

// Snapshot 是酒店及其全部评论的持久化形式，评论按发布时间倒序排列。
type Snapshot struct {
	Hotel
	Reviews []review.Review `json:"reviews"`
}
