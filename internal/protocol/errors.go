package protocol

import (
	"errors"

	"github.com/SlpAus/hotelier-ranking-backend/internal/catalog"
	"github.com/SlpAus/hotelier-ranking-backend/internal/hotel"
	"github.com/SlpAus/hotelier-ranking-backend/internal/review"
	"github.com/SlpAus/hotelier-ranking-backend/internal/user"
)

var (
	// ErrSession 表示请求与当前会话状态不符。
	ErrSession = errors.New("会话状态不允许该请求")
	// ErrBadRequest 表示请求无法解析。
	ErrBadRequest = errors.New("请求格式错误")
)

// ErrorKind 是线路错误的分类，用于指标标签。
type ErrorKind string

const (
	KindAuth       ErrorKind = "auth"
	KindValidation ErrorKind = "validation"
	KindRateLimit  ErrorKind = "rate_limit"
	KindVote       ErrorKind = "vote"
	KindSession    ErrorKind = "session"
	KindProtocol   ErrorKind = "protocol"
)

// badRequestError 携带解析失败的细节，同时满足 errors.Is(err, ErrBadRequest)。
type badRequestError struct {
	detail string
}

func (e *badRequestError) Error() string        { return ErrBadRequest.Error() + ": " + e.detail }
func (e *badRequestError) Is(target error) bool { return target == ErrBadRequest }

func badRequest(detail string) error {
	return &badRequestError{detail: detail}
}

type wireError struct {
	target error
	name   string
	kind   ErrorKind
}

// wireErrors 按顺序匹配，先命中者生效。
var wireErrors = []wireError{
	{user.ErrNotRegistered, "NotRegistered", KindAuth},
	{user.ErrWrongCredential, "WrongCredential", KindAuth},
	{user.ErrInvalidCredential, "InvalidCredential", KindAuth},
	{user.ErrAlreadyLoggedIn, "AlreadyLoggedIn", KindAuth},
	{user.ErrNotLoggedIn, "NotLoggedIn", KindAuth},
	{user.ErrAlreadyExists, "AlreadyExists", KindAuth},
	{catalog.ErrInvalidCity, "InvalidCity", KindValidation},
	{hotel.ErrUnknownHotel, "UnknownHotel", KindValidation},
	{hotel.ErrAmbiguousHotel, "AmbiguousHotel", KindValidation},
	{review.ErrInvalidScore, "InvalidScore", KindValidation},
	{review.ErrSelfVote, "SelfVote", KindVote},
	{review.ErrUnknownReview, "UnknownReview", KindVote},
	{ErrSession, "SessionError", KindSession},
	{ErrBadRequest, "BadRequest", KindProtocol},
}

// Classify 返回错误在线路上的名称与分类。无法识别的错误按 BadRequest 处理。
func Classify(err error) (string, ErrorKind) {
	var rl *review.RateLimitedError
	if errors.As(err, &rl) {
		return "RateLimited", KindRateLimit
	}
	for _, we := range wireErrors {
		if errors.Is(err, we.target) {
			return we.name, we.kind
		}
	}
	return "BadRequest", KindProtocol
}
