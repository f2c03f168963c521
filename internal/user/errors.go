package user

import "errors"

// 认证相关错误。协议层按这些哨兵值映射到线路上的错误名。
var (
	ErrNotRegistered     = errors.New("用户未注册")
	ErrWrongCredential   = errors.New("密码错误")
	ErrInvalidCredential = errors.New("用户名或密码为空")
	ErrAlreadyLoggedIn   = errors.New("用户已在其他会话中登录")
	ErrNotLoggedIn       = errors.New("用户未登录")
	ErrAlreadyExists     = errors.New("用户名已被占用")
)
