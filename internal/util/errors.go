package util

import "errors"

var (
	ErrUserNotFound         = errors.New("用户不存在")
	ErrEmailRegistered      = errors.New("该邮箱已被注册")
	ErrUsernameRegistered   = errors.New("该用户名已被注册")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrResultNotFound     = errors.New("quiz result not found")
	ErrAnalysisNotFound   = errors.New("file analysis not found")
	ErrInvalidSetting     = errors.New("invalid setting value")

	// AI 服务错误分类，配额类错误走降级而非直接报错
	ErrAIQuotaExceeded = errors.New("ai service quota exceeded")
	ErrAIInvalidKey    = errors.New("ai service api key invalid")
	ErrAIBadResponse   = errors.New("ai service returned an unparseable response")
)
