package domain

import "errors"

// 领域错误。基础设施错误（存储、网络）不属于这里，由调用方按 500 处理。
var (
	// ErrDuplicateIdentity 邮箱已注册
	ErrDuplicateIdentity = errors.New("email already registered")
	// ErrInvalidCredentials 邮箱不存在或密码错误（两种情况不区分）
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken token 签名不符或结构错误
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken token 已过期
	ErrExpiredToken = errors.New("token expired")
	// ErrUnauthenticated 身份解析失败（无效 token、过期 token、用户不存在）
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrNotFound 资源不存在，或者不属于调用者
	ErrNotFound = errors.New("not found")
)
