package protocol

import (
	"fmt"
	"strings"
)

// Info 是成功响应的补充说明。
type Info string

const (
	InfoOK       Info = "OK"
	InfoDone     Info = "Done"
	InfoFailure  Info = "Failure"
	InfoFound    Info = "Found"
	InfoMore     Info = "More"
	InfoNotFound Info = "NotFound"
)

// Response 是一条待写回的响应。ErrName 非空时表示错误响应。
type Response struct {
	Info Info
	Body []string

	ErrName string
	Message string
}

func success(info Info, body ...string) Response {
	return Response{Info: info, Body: body}
}

func failure(err error) Response {
	name, _ := Classify(err)
	return Response{ErrName: name, Message: err.Error()}
}

// IsError 判断是否为错误响应。
func (r Response) IsError() bool {
	return r.ErrName != ""
}

// Encode 编码响应。每条响应以一个空行结束。
//
//	SUCCESS <Info>[\n<body line>...]\n\n
//	ERROR <Name>\n<message>\n\n
func (r Response) Encode() []byte {
	var b strings.Builder
	if r.IsError() {
		b.WriteString("ERROR ")
		b.WriteString(r.ErrName)
		b.WriteByte('\n')
		b.WriteString(singleLine(r.Message))
	} else {
		b.WriteString("SUCCESS ")
		b.WriteString(string(r.Info))
		for _, line := range r.Body {
			b.WriteByte('\n')
			b.WriteString(singleLine(line))
		}
	}
	b.WriteString("\n\n")
	return []byte(b.String())
}

// singleLine 保证正文里不会出现空行，避免与响应分隔符混淆。
func singleLine(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}

// LineTooLong 返回请求超过 MaxLineBytes 时的响应，连接随后会被关闭。
func LineTooLong() Response {
	resp := failure(badRequest(fmt.Sprintf("请求超过 %d 字节", MaxLineBytes)))
	observeRequest("", resp)
	return resp
}
