// internal/app/app.go
package app

import (
	"fmt"

	"github.com/Corphon/ContinuityGuard/internal/config"
	"github.com/Corphon/ContinuityGuard/internal/di"
	"github.com/Corphon/ContinuityGuard/internal/heuristic"
	"github.com/Corphon/ContinuityGuard/internal/services"
	"github.com/Corphon/ContinuityGuard/internal/storage"
	"github.com/Corphon/ContinuityGuard/internal/utils"

	// 注册 LLM 提供者
	_ "github.com/Corphon/ContinuityGuard/internal/llm/providers/google"
	_ "github.com/Corphon/ContinuityGuard/internal/llm/providers/openai"
)

// BuildEngine 创建启发式引擎；配置了 HEURISTICS_FILE 时从 YAML 加载规则表
func BuildEngine(cfg *config.Config, logger *utils.Logger, extra ...heuristic.Option) (*heuristic.Engine, error) {
	opts := append([]heuristic.Option{heuristic.WithLogger(logger)}, extra...)
	if cfg.HeuristicsFile != "" {
		rules, err := heuristic.LoadRules(cfg.HeuristicsFile)
		if err != nil {
			return nil, fmt.Errorf("加载启发式规则失败: %w", err)
		}
		opts = append(opts, heuristic.WithRules(rules))
	}
	return heuristic.New(opts...)
}

// InitServices 按依赖顺序创建所有服务并注册到容器
func InitServices(cfg *config.Config, container *di.Container) error {
	logger := utils.GetLogger()
	metrics := utils.GetMetricsCollector()
	container.Register(di.ServiceMetrics, metrics)

	// 1. 启发式引擎
	engine, err := BuildEngine(cfg, logger)
	if err != nil {
		return err
	}
	container.Register(di.ServiceEngine, engine)

	// 2. LLM服务，凭证缺失时仍注册未就绪的实例
	llmService := services.NewLLMService(cfg)
	container.Register(di.ServiceLLM, llmService)

	// 3. 分析服务
	analyzer := services.NewAnalyzerService(engine, llmService,
		services.WithLLMTimeout(cfg.LLMTimeout),
		services.WithCache(services.NewLLMCache(cfg.LLMCacheTTL)),
		services.WithMetrics(metrics),
		services.WithAnalyzerLogger(logger),
	)
	container.Register(di.ServiceAnalyzer, analyzer)

	// 4. 报告归档
	reports, err := storage.NewReportStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("初始化报告归档失败: %w", err)
	}
	container.Register(di.ServiceReports, reports)

	logger.Info("services initialized", map[string]interface{}{
		"services":     container.GetNames(),
		"llm_ready":    llmService.IsReady(),
		"llm_provider": cfg.LLMProvider,
		"data_dir":     cfg.DataDir,
	})
	return nil
}
