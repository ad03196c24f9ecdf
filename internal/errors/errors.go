package errors

import (
	"fmt"
	"strings"
)

// ErrorCode 错误码类型
type ErrorCode int

// 错误码定义（按模块分组）
const (
	// 通用错误 (1000-1999)
	ErrUnknown      ErrorCode = 1000
	ErrInvalidParam ErrorCode = 1001
	ErrNotFound     ErrorCode = 1002
	ErrTimeout      ErrorCode = 1003
	ErrInternal     ErrorCode = 1004

	// 匹配队列错误 (2000-2999)
	ErrEmptyQueue     ErrorCode = 2000
	ErrUnqueueInvalid ErrorCode = 2001

	// 匹配契约错误 (3000-3999)
	ErrContractNotFound ErrorCode = 3000
	ErrContractConsumed ErrorCode = 3001

	// 对局错误 (4000-4999)
	ErrMatchNotFound  ErrorCode = 4000
	ErrMatchForbidden ErrorCode = 4001
	ErrInvalidMove    ErrorCode = 4002
	ErrInvalidResign  ErrorCode = 4003
	ErrMatchNotReady  ErrorCode = 4004

	// 棋盘错误 (5000-5999)
	ErrBoardSerialize ErrorCode = 5000
	ErrBoardParse     ErrorCode = 5001

	// 存储错误 (6000-6999)
	ErrStoreUnavailable ErrorCode = 6000
	ErrDatabaseQuery    ErrorCode = 6001

	// 认证与授权错误 (7000-7999)
	ErrAuthentication    ErrorCode = 7000
	ErrUnauthorized      ErrorCode = 7001
	ErrTokenExpired      ErrorCode = 7002
	ErrTokenInvalid      ErrorCode = 7003
	ErrUsernameDuplicate ErrorCode = 7004
	ErrUserNotFound      ErrorCode = 7005
)

// 错误码消息映射
var errorMessages = map[ErrorCode]string{
	// 通用错误
	ErrUnknown:      "未知错误",
	ErrInvalidParam: "无效的参数",
	ErrNotFound:     "资源未找到",
	ErrTimeout:      "操作超时",
	ErrInternal:     "内部错误",

	// 匹配队列错误
	ErrEmptyQueue:     "匹配队列为空",
	ErrUnqueueInvalid: "玩家不在匹配队列中",

	// 匹配契约错误
	ErrContractNotFound: "匹配契约不存在或已过期",
	ErrContractConsumed: "匹配契约已被使用",

	// 对局错误
	ErrMatchNotFound:  "对局不存在",
	ErrMatchForbidden: "你不是该对局的棋手",
	ErrInvalidMove:    "无效的着法",
	ErrInvalidResign:  "当前不能认输",
	ErrMatchNotReady:  "对局尚未开始",

	// 棋盘错误
	ErrBoardSerialize: "棋盘状态序列化失败",
	ErrBoardParse:     "棋盘状态解析失败",

	// 存储错误
	ErrStoreUnavailable: "共享存储不可用",
	ErrDatabaseQuery:    "数据库查询失败",

	// 认证与授权错误
	ErrAuthentication:    "认证失败",
	ErrUnauthorized:      "没有权限执行该操作",
	ErrTokenExpired:      "令牌已过期",
	ErrTokenInvalid:      "无效的令牌",
	ErrUsernameDuplicate: "用户名已存在",
	ErrUserNotFound:      "用户不存在",
}

// AppError 应用错误结构
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, details ...string) *AppError {
	message, ok := errorMessages[code]
	if !ok {
		message = errorMessages[ErrUnknown]
	}

	err := &AppError{
		Code:    code,
		Message: message,
	}

	if len(details) > 0 {
		err.Details = strings.Join(details, "; ")
	}

	return err
}

// Newf 创建格式化的应用错误
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, details ...string) *AppError {
	if err == nil {
		return nil
	}

	// 如果已经是AppError，保留原始错误码
	if appErr, ok := err.(*AppError); ok {
		if len(details) > 0 {
			appErr.Details = strings.Join(details, "; ") + "; " + appErr.Details
		}
		return appErr
	}

	appErr := New(code, details...)
	appErr.Cause = err
	if appErr.Details == "" {
		appErr.Details = err.Error()
	}

	return appErr
}

// Is 判断错误是否为指定错误码
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}

// GetCode 获取错误码
func GetCode(err error) ErrorCode {
	if err == nil {
		return 0
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}

	return ErrUnknown
}

// HTTPStatus 返回对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrInvalidParam:
		return 400
	case ErrAuthentication, ErrTokenExpired, ErrTokenInvalid:
		return 401
	case ErrUnauthorized, ErrMatchForbidden, ErrInvalidResign:
		return 403
	case ErrNotFound, ErrMatchNotFound, ErrContractNotFound, ErrUserNotFound:
		return 404
	case ErrEmptyQueue, ErrUnqueueInvalid, ErrInvalidMove, ErrMatchNotReady, ErrUsernameDuplicate, ErrContractConsumed:
		return 409
	case ErrStoreUnavailable, ErrDatabaseQuery:
		return 503
	default:
		return 500
	}
}
