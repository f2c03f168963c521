package protocol

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/SlpAus/hotelier-ranking-backend/internal/hotel"
	"github.com/SlpAus/hotelier-ranking-backend/internal/review"
)

// Service 是分发器调用的领域操作，*store.Store 满足该接口。
type Service interface {
	Login(username, password string) error
	Logout(username string) error
	Search(query, city string) ([]hotel.Hotel, error)
	SearchAll(city string) ([]hotel.Hotel, error)
	InsertReview(hotelQuery, city string, rate float64, scores review.Scores, author string) (review.Review, error)
	Upvote(reviewID int64, voter string) (bool, error)
	ShowReviews(hotelQuery, city string) ([]review.Review, error)
	ShowMyReviews(author string) ([]review.Review, error)
	ShowBadge(author string) (string, error)
}

// Dispatcher 把请求映射到领域操作，并计算会话的下一个状态。
// 它本身不持有会话，调用方（连接复用器的事件循环）负责保存返回的会话。
type Dispatcher struct {
	svc Service
	log *slog.Logger
}

// NewDispatcher 创建分发器。
func NewDispatcher(svc Service) *Dispatcher {
	return &Dispatcher{svc: svc, log: slog.With("component", "protocol")}
}

// HandleLine 解析并处理一行请求。
func (d *Dispatcher) HandleLine(sess Session, line string) (Response, Session) {
	req, err := ParseRequest(line)
	if err != nil {
		resp := failure(err)
		observeRequest("", resp)
		return resp, sess
	}
	return d.Handle(sess, req)
}

// Handle 处理一条已解析的请求，返回响应与会话的新状态。
func (d *Dispatcher) Handle(sess Session, req Request) (Response, Session) {
	resp, next := d.dispatch(sess, req)
	observeRequest(req.Verb, resp)
	if resp.IsError() {
		d.log.Debug("请求失败", "session", sess.Tag(), "verb", req.Verb, "error", resp.ErrName)
	}
	return resp, next
}

func (d *Dispatcher) dispatch(sess Session, req Request) (Response, Session) {
	a := req.Args
	switch req.Verb {
	case VerbLogin:
		return d.login(sess, stripUserPrefix(a[0]), a[1])
	case VerbLogout:
		return d.logout(sess, stripUserPrefix(a[0]))
	case VerbSearch:
		hotels, err := d.svc.Search(a[0], a[1])
		return found(formatHotels(hotels), err), sess
	case VerbSearchAll:
		hotels, err := d.svc.SearchAll(a[0])
		return found(formatHotels(hotels), err), sess
	case VerbInsertReview:
		return d.insertReview(sess, a), sess
	case VerbShowReviews:
		reviews, err := d.svc.ShowReviews(a[0], a[1])
		return found(formatReviews(reviews), err), sess
	case VerbUpvote:
		return d.upvote(sess, a[0]), sess
	case VerbShowMyReviews:
		username := stripUserPrefix(a[0])
		if !sess.owns(username) {
			return failure(ErrSession), sess
		}
		reviews, err := d.svc.ShowMyReviews(username)
		return found(formatReviews(reviews), err), sess
	case VerbShowMyBadges:
		username := stripUserPrefix(a[0])
		if !sess.owns(username) {
			return failure(ErrSession), sess
		}
		badge, err := d.svc.ShowBadge(username)
		if err != nil {
			return failure(err), sess
		}
		if badge == "" {
			badge = "N/A"
		}
		return success(InfoMore, badge), sess
	}
	return failure(badRequest("未知的请求")), sess
}

func (d *Dispatcher) login(sess Session, username, password string) (Response, Session) {
	if sess.IsAuthenticated() {
		return failure(ErrSession), sess
	}
	if err := d.svc.Login(username, password); err != nil {
		return failure(err), sess
	}
	d.log.Info("用户登录", "user", username, "peer", sess.PeerHost)
	return success(InfoOK, userPrefix+username), sess.login(username)
}

func (d *Dispatcher) logout(sess Session, username string) (Response, Session) {
	if !sess.owns(username) {
		return failure(ErrSession), sess
	}
	if err := d.svc.Logout(username); err != nil {
		return failure(err), sess
	}
	d.log.Info("用户登出", "user", username)
	return success(InfoDone), sess.logout()
}

// insertReview 的参数依次为：用户名 酒店 城市 总评分 位置 清洁 服务 性价比。
func (d *Dispatcher) insertReview(sess Session, a []string) Response {
	username := stripUserPrefix(a[0])
	if !sess.owns(username) {
		return failure(ErrSession)
	}
	rate, err := parseScore(a[3])
	if err != nil {
		return failure(err)
	}
	var scores review.Scores
	for i := range scores {
		if scores[i], err = parseScore(a[4+i]); err != nil {
			return failure(err)
		}
	}
	if _, err := d.svc.InsertReview(a[1], a[2], rate, scores, username); err != nil {
		return failure(err)
	}
	return success(InfoDone)
}

// upvote 以会话身份点赞：访客为对端主机，已登录为用户名。
func (d *Dispatcher) upvote(sess Session, arg string) Response {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil {
		return failure(review.ErrUnknownReview)
	}
	added, err := d.svc.Upvote(id, sess.Identity)
	if err != nil {
		return failure(err)
	}
	if !added {
		return success(InfoFailure)
	}
	return success(InfoDone)
}

func parseScore(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, review.ErrInvalidScore
	}
	return v, nil
}

// found 把查询结果包装为 Found 或 NotFound。
func found(records []string, err error) Response {
	if err != nil {
		return failure(err)
	}
	if len(records) == 0 {
		return success(InfoNotFound)
	}
	return success(InfoFound, records...)
}
