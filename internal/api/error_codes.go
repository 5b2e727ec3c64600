// internal/api/error_codes.go
package api

// API错误代码常量
const (
	// 通用错误
	ErrorBadRequest      = "BAD_REQUEST"
	ErrorNotFound        = "NOT_FOUND"
	ErrorInternalError   = "INTERNAL_ERROR"
	ErrorPayloadTooLarge = "PAYLOAD_TOO_LARGE" // 与 AppError 的代码一致
	ErrorRateLimited     = "RATE_LIMIT_EXCEEDED"

	// 剧本分析
	ErrorScriptMissing = "SCRIPT_TEXT_REQUIRED"

	// 报告归档
	ErrorReportNotFound  = "REPORT_NOT_FOUND"
	ErrorReportListLimit = "REPORT_INVALID_LIMIT"
)
