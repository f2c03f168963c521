package api

import (
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// maxUsernameLen 限制用户名长度
const maxUsernameLen = 64

var registerOnce sync.Once

// registerValidators 向gin的验证器注册自定义规则。
func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("username", validUsername)
		}
	})
}

// validUsername 要求用户名可以作为TCP协议中的单个参数：
// 不含空白、引号，也不以 "user:" 开头。
func validUsername(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || len(name) > maxUsernameLen || strings.HasPrefix(name, "user:") {
		return false
	}
	for _, r := range name {
		if unicode.IsSpace(r) || r == '"' || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
