// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType 定义错误类型
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation_error"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeError           ErrorType = "processing_error"
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypePayloadTooLarge ErrorType = "payload_too_large"
	ErrorTypeRateLimited     ErrorType = "rate_limited"

	// LLM 相关
	ErrorTypeLLMUnavailable   ErrorType = "llm_unavailable"
	ErrorTypeLLMInvalidOutput ErrorType = "llm_invalid_output"
)

// AppError 应用程序错误结构
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string // 用户友好的错误代码
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 实现错误链接
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus 映射到HTTP状态码
func (e *AppError) HTTPStatus() int {
	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case ErrorTypeLLMUnavailable, ErrorTypeLLMInvalidOutput:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError 创建新的 AppError
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewValidationError 创建验证错误
func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

// NewNotFoundError 创建未找到错误
func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

// NewProcessingError 创建处理错误
func NewProcessingError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeError, message, originalError)
}

func NewTimeoutError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeTimeout, message, originalError)
}

func NewPayloadTooLargeError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypePayloadTooLarge, message, originalError)
}

// NewLLMUnavailableError 凭证缺失、网络或服务端错误
func NewLLMUnavailableError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeLLMUnavailable, message, originalError)
}

// NewLLMInvalidOutputError 模型返回无法解析或不合法的结果
func NewLLMInvalidOutputError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeLLMInvalidOutput, message, originalError)
}

// TypeOf 返回错误链中第一个 AppError 的类型
func TypeOf(err error) (ErrorType, bool) {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type, true
	}
	return "", false
}

func isType(err error, errType ErrorType) bool {
	t, ok := TypeOf(err)
	return ok && t == errType
}

// IsValidationError 检查是否为验证错误
func IsValidationError(err error) bool { return isType(err, ErrorTypeValidation) }

// IsNotFoundError 检查是否为未找到错误
func IsNotFoundError(err error) bool { return isType(err, ErrorTypeNotFound) }

func IsTimeoutError(err error) bool { return isType(err, ErrorTypeTimeout) }

func IsLLMUnavailableError(err error) bool { return isType(err, ErrorTypeLLMUnavailable) }

func IsLLMInvalidOutputError(err error) bool { return isType(err, ErrorTypeLLMInvalidOutput) }

// generateErrorCode 根据错误类型生成错误代码
func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeError:
		return "PROCESSING_ERROR"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	case ErrorTypePayloadTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case ErrorTypeRateLimited:
		return "RATE_LIMITED"
	case ErrorTypeLLMUnavailable:
		return "LLM_UNAVAILABLE"
	case ErrorTypeLLMInvalidOutput:
		return "LLM_INVALID_OUTPUT"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapError 包装现有错误
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		// 如果已经是 AppError，只更新消息
		return &AppError{
			Type:    appError.Type,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError,
			Code:    appError.Code,
		}
	}

	return NewAppError(errType, message, err)
}
