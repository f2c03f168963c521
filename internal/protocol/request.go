// Package protocol 实现面向行的请求解析、会话规则、记录编码以及错误到线路名称的映射。
package protocol

import (
	"fmt"
	"strings"
)

// MaxLineBytes 是单条请求（不含换行）允许的最大字节数。
const MaxLineBytes = 64 * 1024

// Verb 是请求的动词。
type Verb string

const (
	VerbLogin         Verb = "LOGIN"
	VerbLogout        Verb = "LOGOUT"
	VerbSearch        Verb = "SEARCH"
	VerbSearchAll     Verb = "SEARCHALL"
	VerbInsertReview  Verb = "INSERTREVIEW"
	VerbShowReviews   Verb = "SHOWREVIEWS"
	VerbUpvote        Verb = "UPVOTE"
	VerbShowMyReviews Verb = "SHOWMYREVIEWS"
	VerbShowMyBadges  Verb = "SHOWMYBADGES"
)

// scoreTokens 是 INSERTREVIEW 中分项评分向量展开后的参数个数。
const scoreTokens = 4

// arity 记录每个动词的逻辑参数个数。INSERTREVIEW 的最后一个参数是分项评分向量，
// 在线路上展开为 scoreTokens 个独立参数。
var arity = map[Verb]int{
	VerbLogin:         2,
	VerbLogout:        1,
	VerbSearch:        2,
	VerbSearchAll:     1,
	VerbInsertReview:  5,
	VerbShowReviews:   2,
	VerbUpvote:        1,
	VerbShowMyReviews: 1,
	VerbShowMyBadges:  1,
}

// wireArgs 返回动词在线路上的参数个数。
func wireArgs(v Verb) int {
	n := arity[v]
	if v == VerbInsertReview {
		n += scoreTokens - 1
	}
	return n
}

// Request 是解析后的一条请求。
type Request struct {
	Verb Verb
	Args []string
}

// ParseRequest 解析一行请求。动词区分大小写；参数以空白分隔，双引号包围的参数可以包含空格。
func ParseRequest(line string) (Request, error) {
	tokens, err := tokenize(strings.TrimRight(line, "\r\n"))
	if err != nil {
		return Request{}, err
	}
	if len(tokens) == 0 {
		return Request{}, badRequest("空请求")
	}

	verb := Verb(tokens[0])
	if _, ok := arity[verb]; !ok {
		return Request{}, badRequest(fmt.Sprintf("未知的请求 %q", tokens[0]))
	}
	args := tokens[1:]
	if want := wireArgs(verb); len(args) != want {
		return Request{}, badRequest(fmt.Sprintf("%s 需要 %d 个参数，收到 %d 个", verb, want, len(args)))
	}
	return Request{Verb: verb, Args: args}, nil
}

// tokenize 按空白切分，双引号内的空白属于同一个参数，引号本身不保留。
func tokenize(line string) ([]string, error) {
	var (
		tokens  []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case (r == ' ' || r == '\t') && !inQuote:
			if started {
				tokens = append(tokens, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, badRequest("引号未闭合")
	}
	if started {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}

// stripUserPrefix 去掉用户名参数上可选的 "user:" 前缀。
func stripUserPrefix(arg string) string {
	return strings.TrimPrefix(arg, userPrefix)
}
