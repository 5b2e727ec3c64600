// internal/services/analyzer_service.go
package services

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/Corphon/ContinuityGuard/internal/errors"
	"github.com/Corphon/ContinuityGuard/internal/heuristic"
	"github.com/Corphon/ContinuityGuard/internal/models"
	"github.com/Corphon/ContinuityGuard/internal/utils"
)

// Fallback reasons, also used as metric labels.
const (
	ReasonNoCredential  = "no_credential"
	ReasonUnavailable   = "llm_unavailable"
	ReasonInvalidOutput = "llm_invalid_output"
	ReasonTimeout       = "timeout"
	ReasonPanic         = "panic"
)

// Analysis 一次分析的结果及其来源
type Analysis struct {
	Result         *models.AnalysisResult
	Engine         models.EngineKind
	BudgetMode     models.BudgetMode
	FallbackReason string
	Cached         bool
	Elapsed        time.Duration
}

// AnalyzerService 选择分析引擎：优先LLM，任何失败都回退到启发式引擎
type AnalyzerService struct {
	engine     *heuristic.Engine
	llmService *LLMService
	cache      *LLMCache
	semaphore  chan struct{}
	timeout    time.Duration
	metrics    *utils.MetricsCollector
	logger     *utils.Logger
}

// AnalyzerOption 配置 AnalyzerService
type AnalyzerOption func(*AnalyzerService)

func WithLLMTimeout(d time.Duration) AnalyzerOption {
	return func(s *AnalyzerService) { s.timeout = d }
}

// WithConcurrency 限制同时进行的LLM请求数
func WithConcurrency(n int) AnalyzerOption {
	return func(s *AnalyzerService) {
		if n > 0 {
			s.semaphore = make(chan struct{}, n)
		}
	}
}

func WithMetrics(m *utils.MetricsCollector) AnalyzerOption {
	return func(s *AnalyzerService) { s.metrics = m }
}

func WithAnalyzerLogger(l *utils.Logger) AnalyzerOption {
	return func(s *AnalyzerService) { s.logger = l }
}

func WithCache(c *LLMCache) AnalyzerOption {
	return func(s *AnalyzerService) { s.cache = c }
}

// NewAnalyzerService 创建分析服务；llmService 可以为 nil
func NewAnalyzerService(engine *heuristic.Engine, llmService *LLMService, opts ...AnalyzerOption) *AnalyzerService {
	s := &AnalyzerService{
		engine:     engine,
		llmService: llmService,
		cache:      NewLLMCache(defaultCacheTTL),
		semaphore:  make(chan struct{}, 3), // 限制并发数量为3
		timeout:    60 * time.Second,
		metrics:    utils.GetMetricsCollector(),
		logger:     utils.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine 返回启发式引擎
func (s *AnalyzerService) Engine() *heuristic.Engine {
	return s.engine
}

// LLMStatus 返回LLM服务状态
func (s *AnalyzerService) LLMStatus() LLMStatus {
	return s.llmService.Status()
}

// Analyze 按优先级分析：useMock 直接用引擎；有凭证时先试LLM；否则用引擎。从不失败。
func (s *AnalyzerService) Analyze(ctx context.Context, text string, mode models.BudgetMode, useMock bool) *Analysis {
	started := time.Now()
	mode = models.ParseBudgetMode(string(mode))

	var analysis *Analysis
	switch {
	case useMock:
		analysis = s.runEngine(text, mode, "")
	case !s.llmService.IsReady():
		analysis = s.runEngine(text, mode, ReasonNoCredential)
	default:
		analysis = s.tryLLM(ctx, text, mode)
	}

	analysis.BudgetMode = mode
	analysis.Elapsed = time.Since(started)
	s.metrics.RecordAnalysis(string(analysis.Engine), len(analysis.Result.Scenes), analysis.Elapsed)

	s.logger.Info("script analyzed", map[string]interface{}{
		"engine":          string(analysis.Engine),
		"budget_mode":     string(mode),
		"scenes":          len(analysis.Result.Scenes),
		"fallback_reason": analysis.FallbackReason,
		"cached":          analysis.Cached,
		"elapsed_ms":      analysis.Elapsed.Milliseconds(),
	})
	return analysis
}

// AnalyzeWithLLM 只走LLM路径，错误原样返回
func (s *AnalyzerService) AnalyzeWithLLM(ctx context.Context, text string, mode models.BudgetMode) (*models.AnalysisResult, error) {
	mode = models.ParseBudgetMode(string(mode))
	if !s.llmService.IsReady() {
		return nil, apperrors.NewLLMUnavailableError("LLM service not ready", nil)
	}

	key := CacheKey(text, string(mode), s.llmService.ProviderName(), s.llmService.Model())
	if cached, ok := s.cache.Get(key); ok {
		if result, ok := cached.(*models.AnalysisResult); ok {
			return result, nil
		}
	}

	select {
	case s.semaphore <- struct{}{}:
		defer func() { <-s.semaphore }()
	case <-ctx.Done():
		return nil, apperrors.NewTimeoutError("waiting for an LLM slot", ctx.Err())
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var result models.AnalysisResult
	if err := s.llmService.CreateStructuredCompletion(callCtx, buildUserPrompt(text), buildSystemPrompt(mode), &result); err != nil {
		return nil, err
	}
	if err := s.validate(&result); err != nil {
		return nil, err
	}

	s.cache.Put(key, &result)
	return &result, nil
}

func (s *AnalyzerService) tryLLM(ctx context.Context, text string, mode models.BudgetMode) (analysis *Analysis) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("llm analysis panicked, falling back", map[string]interface{}{
				"panic": fmt.Sprint(r),
			})
			analysis = s.fallback(text, mode, ReasonPanic, nil)
		}
	}()

	key := CacheKey(text, string(mode), s.llmService.ProviderName(), s.llmService.Model())
	_, wasCached := s.cache.Get(key)

	result, err := s.AnalyzeWithLLM(ctx, text, mode)
	if err != nil {
		return s.fallback(text, mode, fallbackReason(err), err)
	}
	return &Analysis{Result: result, Engine: models.EngineLLM, Cached: wasCached}
}

func (s *AnalyzerService) fallback(text string, mode models.BudgetMode, reason string, err error) *Analysis {
	s.metrics.RecordFallback(reason)
	s.logger.Warn("llm analysis failed, falling back to heuristic engine", map[string]interface{}{
		"reason": reason,
		"error":  err,
	})
	return s.runEngine(text, mode, reason)
}

func (s *AnalyzerService) runEngine(text string, mode models.BudgetMode, reason string) *Analysis {
	return &Analysis{
		Result:         s.engine.Analyze(text, mode),
		Engine:         models.EngineHeuristic,
		FallbackReason: reason,
	}
}

// validate 检查LLM结果；缺少汇总时用引擎重算
func (s *AnalyzerService) validate(result *models.AnalysisResult) error {
	if len(result.Scenes) == 0 {
		return apperrors.NewLLMInvalidOutputError("LLM result has no scenes", nil)
	}
	if result.TotalRiskScore < 0 || result.TotalRiskScore > 100 {
		return apperrors.NewLLMInvalidOutputError(
			fmt.Sprintf("LLM risk score %d outside 0-100", result.TotalRiskScore), nil)
	}
	for _, scene := range result.Scenes {
		for _, item := range scene.ExpenseBreakdown {
			if !item.Category.Valid() {
				return apperrors.NewLLMInvalidOutputError(
					fmt.Sprintf("LLM scene %s has unknown expense category %q", scene.ID, item.Category), nil)
			}
		}
	}
	if len(result.OverallBudgetBreakdown) == 0 {
		s.engine.Recompute(result)
	}
	return nil
}

func fallbackReason(err error) string {
	switch {
	case apperrors.IsTimeoutError(err):
		return ReasonTimeout
	case apperrors.IsLLMInvalidOutputError(err):
		return ReasonInvalidOutput
	default:
		return ReasonUnavailable
	}
}
