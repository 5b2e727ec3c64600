// internal/api/handlers.go
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Corphon/ContinuityGuard/internal/errors"
	"github.com/Corphon/ContinuityGuard/internal/models"
	"github.com/Corphon/ContinuityGuard/internal/services"
	"github.com/Corphon/ContinuityGuard/internal/storage"
	"github.com/Corphon/ContinuityGuard/internal/utils"
)

const (
	onlineMessage   = "ContinuityGuard Risk Engine Online"
	defaultListSize = 50
)

// Handler 处理API请求
type Handler struct {
	AnalyzerService *services.AnalyzerService // 分析服务
	ReportStore     *storage.ReportStore      // 报告归档，可为 nil
	Metrics         *utils.MetricsCollector
	Response        *ResponseHelper // 响应助手
	logger          *utils.Logger
}

// AnalyzeRequest 剧本分析请求；script_text 必须出现，空字符串合法
type AnalyzeRequest struct {
	ScriptText *string `json:"script_text" binding:"required"`
	UseMock    bool   `json:"use_mock"`
	BudgetMode string `json:"budget_mode"`
}

// NewHandler 创建API处理器
func NewHandler(
	analyzerService *services.AnalyzerService,
	reportStore *storage.ReportStore,
	metrics *utils.MetricsCollector,
	logger *utils.Logger) *Handler {

	return &Handler{
		AnalyzerService: analyzerService,
		ReportStore:     reportStore,
		Metrics:         metrics,
		Response:        NewResponseHelper(),
		logger:          logger,
	}
}

// Root 服务在线探针
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": onlineMessage})
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "backend"})
}

// Analyze 分析剧本并返回完整结果；归档失败不影响响应
func (h *Handler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Response.FromError(c, payloadTooLarge(tooLarge.Limit))
			return
		}
		h.Response.BadRequest(c, ErrorScriptMissing, "script_text is required", err.Error())
		return
	}
	if strings.TrimSpace(req.BudgetMode) == "" {
		req.BudgetMode = string(models.BudgetMedium)
	}

	analysis := h.AnalyzerService.Analyze(c.Request.Context(), *req.ScriptText, models.BudgetMode(req.BudgetMode), req.UseMock)

	c.Header("X-Analysis-Engine", string(analysis.Engine))
	if analysis.FallbackReason != "" {
		c.Header("X-Fallback-Reason", analysis.FallbackReason)
	}
	if id := h.archive(analysis); id != "" {
		c.Header("X-Report-ID", id)
	}

	c.JSON(http.StatusOK, analysis.Result)
}

func payloadTooLarge(limit int64) error {
	return apperrors.NewPayloadTooLargeError("request body exceeds "+strconv.FormatInt(limit, 10)+" bytes", nil)
}

// archive 保存报告，失败时只记录日志和指标
func (h *Handler) archive(analysis *services.Analysis) string {
	if h.ReportStore == nil {
		return ""
	}
	meta, err := h.ReportStore.Save(analysis.Result, analysis.Engine, analysis.BudgetMode)
	if err != nil {
		h.Metrics.RecordArchiveFailure()
		h.logger.Warn("failed to archive report", map[string]interface{}{
			"error": err,
		})
		return ""
	}
	return meta.ID
}

// ListReports 列出归档报告，最新的在前
func (h *Handler) ListReports(c *gin.Context) {
	if h.ReportStore == nil {
		h.Response.Success(c, []models.ReportMetadata{})
		return
	}

	limit := defaultListSize
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.Response.BadRequest(c, ErrorReportListLimit, "limit must be a positive integer")
			return
		}
		limit = n
	}

	reports, err := h.ReportStore.List(limit)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, reports)
}

// GetReport 获取一份归档报告
func (h *Handler) GetReport(c *gin.Context) {
	if h.ReportStore == nil {
		h.Response.NotFound(c, "report")
		return
	}

	report, err := h.ReportStore.Get(c.Param("id"))
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, report)
}

// DeleteReport 删除一份归档报告
func (h *Handler) DeleteReport(c *gin.Context) {
	if h.ReportStore == nil {
		h.Response.NotFound(c, "report")
		return
	}

	id := c.Param("id")
	if err := h.ReportStore.Delete(id); err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, gin.H{"id": id}, "report deleted")
}

// GetLLMStatus 返回LLM服务状态
func (h *Handler) GetLLMStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.AnalyzerService.LLMStatus())
}
