package apperrors

import (
	"errors"
	"net/http"
)

// Kind 错误分类
type Kind int

const (
	KindInvalidInput Kind = iota
	KindNotFound
	KindOwnershipDenied
	KindCodeSpaceExhausted
	KindUpstreamUnavailable
	KindRateLimited
	KindSystem
)

// AppError 自定义错误类型
type AppError struct {
	Kind    Kind
	Code    int
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode 创建通用业务错误
func WithCode(kind Kind, code int, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// InvalidInputError 封装参数校验错误
func InvalidInputError(message string) *AppError {
	return WithCode(KindInvalidInput, http.StatusBadRequest, message)
}

// InvalidInputErrorDefault 默认参数校验错误
func InvalidInputErrorDefault() *AppError {
	return WithCode(KindInvalidInput, http.StatusBadRequest, "Parameter verification failed")
}

// NotFoundError 封装资源不存在错误
func NotFoundError(message string) *AppError {
	return WithCode(KindNotFound, http.StatusNotFound, message)
}

// OwnershipDeniedError 封装归属校验错误
func OwnershipDeniedError(message string) *AppError {
	return WithCode(KindOwnershipDenied, http.StatusForbidden, message)
}

// CodeSpaceExhaustedError 短码生成重试耗尽
func CodeSpaceExhaustedError() *AppError {
	return WithCode(KindCodeSpaceExhausted, http.StatusConflict, "Failed to generate unique short code")
}

// UpstreamError 封装外部服务错误
func UpstreamError(message string, cause error) *AppError {
	return &AppError{
		Kind:    KindUpstreamUnavailable,
		Code:    http.StatusBadGateway,
		Message: message,
		Cause:   cause,
	}
}

// RateLimitedError 封装限流错误
func RateLimitedError(message string) *AppError {
	return WithCode(KindRateLimited, http.StatusTooManyRequests, message)
}

// SystemError 封装系统内部错误
func SystemError(message string) *AppError {
	return WithCode(KindSystem, http.StatusInternalServerError, message)
}

// SystemErrorDefault 默认系统内部错误
func SystemErrorDefault() *AppError {
	return WithCode(KindSystem, http.StatusInternalServerError, "System error")
}

// IsKind 判断错误是否属于指定分类
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
