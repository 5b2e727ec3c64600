// internal/api/router.go
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/ContinuityGuard/internal/config"
	"github.com/Corphon/ContinuityGuard/internal/di"
	"github.com/Corphon/ContinuityGuard/internal/services"
	"github.com/Corphon/ContinuityGuard/internal/storage"
	"github.com/Corphon/ContinuityGuard/internal/utils"
)

// SetupRouter 配置HTTP路由，服务从容器获取
func SetupRouter(cfg *config.Config, container *di.Container) (*gin.Engine, error) {
	analyzerService, err := di.Require[*services.AnalyzerService](container, di.ServiceAnalyzer)
	if err != nil {
		return nil, fmt.Errorf("分析服务未正确初始化: %w", err)
	}

	metrics, ok := di.Resolve[*utils.MetricsCollector](container, di.ServiceMetrics)
	if !ok {
		metrics = utils.GetMetricsCollector()
	}

	// 报告归档是可选的
	reportStore, _ := di.Resolve[*storage.ReportStore](container, di.ServiceReports)

	logger := utils.GetLogger()
	handler := NewHandler(analyzerService, reportStore, metrics, logger)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(requestLogMiddleware(logger))
	r.Use(metricsMiddleware(metrics))

	// 启用CORS
	r.Use(corsMiddleware(cfg.AllowedOrigins))

	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	analyze := []gin.HandlerFunc{
		limiter.Middleware(handler.Response),
		bodyLimitMiddleware(cfg.MaxScriptBytes, handler.Response),
		handler.Analyze,
	}

	// 根路径和健康检查
	r.GET("/", handler.Root)
	r.GET("/health", handler.Health)
	r.POST("/analyze", analyze...)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("", handler.Root)
		api.GET("/", handler.Root)
		api.GET("/health", handler.Health)
		api.POST("/analyze", analyze...)

		// 报告归档
		reports := api.Group("/reports")
		{
			reports.GET("", handler.ListReports)
			reports.GET("/:id", handler.GetReport)
			reports.DELETE("/:id", handler.DeleteReport)
		}

		llmGroup := api.Group("/llm")
		{
			llmGroup.GET("/status", handler.GetLLMStatus)
		}
	}

	return r, nil
}
