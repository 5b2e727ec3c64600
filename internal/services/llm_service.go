// internal/services/llm_service.go
package services

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/Corphon/ContinuityGuard/internal/config"
	apperrors "github.com/Corphon/ContinuityGuard/internal/errors"
	"github.com/Corphon/ContinuityGuard/internal/llm"
	"github.com/Corphon/ContinuityGuard/internal/utils"
)

const (
	defaultCacheTTL     = 30 * time.Minute
	maxCacheEntries     = 1000
	cacheEvictBatchSize = 100
)

// LLMService 提供统一的大语言模型调用接口
type LLMService struct {
	providerMutex sync.RWMutex
	provider      llm.Provider
	providerName  string
	model         string
	temperature   float32
	isReady       bool
	readyState    string
}

// LLMStatus 对外暴露的就绪状态
type LLMStatus struct {
	Ready    bool     `json:"ready"`
	State    string   `json:"state"`
	Provider string   `json:"provider"`
	Model    string   `json:"model"`
	Models   []string `json:"models,omitempty"`
}

// NewLLMService 根据配置创建LLM服务；凭证缺失时返回未就绪的服务而不是错误
func NewLLMService(cfg *config.Config) *LLMService {
	service := &LLMService{
		providerName: cfg.LLMProvider,
		model:        cfg.LLMModel,
		temperature:  0.2,
		readyState:   "Uninitialized",
	}

	if !cfg.LLMConfigured() {
		service.readyState = "API key not configured"
		return service
	}

	provider, err := llm.GetProvider(cfg.LLMProvider, map[string]string{
		"api_key":       cfg.LLMAPIKey(),
		"default_model": cfg.LLMModel,
		"base_url":      cfg.LLMBaseURL,
	})
	if err != nil {
		service.readyState = fmt.Sprintf("Initialization failed: %v", err)
		utils.GetLogger().Warn("llm provider initialization failed", map[string]interface{}{
			"provider": cfg.LLMProvider,
			"error":    err,
		})
		return service
	}

	service.provider = provider
	service.isReady = true
	service.readyState = "Ready"
	return service
}

// NewLLMServiceWithProvider 直接注入提供者
func NewLLMServiceWithProvider(provider llm.Provider, providerName, model string) *LLMService {
	return &LLMService{
		provider:     provider,
		providerName: providerName,
		model:        model,
		temperature:  0.2,
		isReady:      provider != nil,
		readyState:   "Ready",
	}
}

// IsReady 返回服务是否已就绪
func (s *LLMService) IsReady() bool {
	if s == nil {
		return false
	}
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.isReady && s.provider != nil
}

// Status 返回服务状态快照
func (s *LLMService) Status() LLMStatus {
	if s == nil {
		return LLMStatus{State: "LLM service not initialized"}
	}
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()

	status := LLMStatus{
		Ready:    s.isReady && s.provider != nil,
		State:    s.readyState,
		Provider: s.providerName,
		Model:    s.model,
	}
	if s.provider != nil {
		status.Models = s.provider.GetSupportedModels()
	}
	return status
}

// ProviderName 当前提供者名
func (s *LLMService) ProviderName() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.providerName
}

// Model 当前使用的模型
func (s *LLMService) Model() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.model
}

// CreateStructuredCompletion 请求JSON输出并解析到 outputSchema
func (s *LLMService) CreateStructuredCompletion(ctx context.Context, prompt string, systemPrompt string, outputSchema interface{}) error {
	s.providerMutex.RLock()
	if !s.isReady || s.provider == nil {
		state := s.readyState
		s.providerMutex.RUnlock()
		return apperrors.NewLLMUnavailableError("LLM service not ready", errors.New(state))
	}
	provider, model, temperature := s.provider, s.model, s.temperature
	s.providerMutex.RUnlock()

	req := llm.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		Temperature:  temperature,
		Model:        model,
		JSONMode:     true,
	}

	started := time.Now()
	resp, err := provider.CompleteText(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return apperrors.NewTimeoutError("LLM request did not finish in time", err)
		}
		return apperrors.NewLLMUnavailableError("LLM request failed", err)
	}

	utils.GetLogger().Debug("llm completion received", map[string]interface{}{
		"provider":    provider.GetName(),
		"model":       resp.ModelName,
		"tokens_used": resp.TokensUsed,
		"elapsed_ms":  time.Since(started).Milliseconds(),
	})

	text := cleanJSONString(resp.Text)
	if err := json.Unmarshal([]byte(text), outputSchema); err != nil {
		return apperrors.NewLLMInvalidOutputError("failed to parse LLM response into structured data", err)
	}
	return nil
}

// LLMCache 带过期时间的内存缓存
type LLMCache struct {
	cache      map[string]*CacheEntry
	mutex      sync.RWMutex
	expiration time.Duration
	now        func() time.Time
}

type CacheEntry struct {
	Response  interface{}
	CreatedAt time.Time
}

// NewLLMCache 创建缓存，ttl<=0 时使用默认30分钟
func NewLLMCache(ttl time.Duration) *LLMCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &LLMCache{
		cache:      make(map[string]*CacheEntry),
		expiration: ttl,
		now:        time.Now,
	}
}

// CacheKey 对输入做 md5 摘要
func CacheKey(parts ...string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(strings.Join(parts, ":::"))))
}

// Get 从缓存中获取结果
func (c *LLMCache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.cache[key]
	if !exists || c.now().Sub(entry.CreatedAt) > c.expiration {
		return nil, false
	}
	return entry.Response, true
}

// Put 保存结果到缓存
func (c *LLMCache) Put(key string, response interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache[key] = &CacheEntry{
		Response:  response,
		CreatedAt: c.now(),
	}

	if len(c.cache) > maxCacheEntries {
		c.cleanupOldest(cacheEvictBatchSize)
	}
}

// Len 当前条目数（含已过期未清理的）
func (c *LLMCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cache)
}

// cleanupOldest 清理最旧的缓存条目，调用方持有写锁
func (c *LLMCache) cleanupOldest(count int) {
	type keyAge struct {
		key string
		age time.Time
	}

	entries := make([]keyAge, 0, len(c.cache))
	for k, v := range c.cache {
		entries = append(entries, keyAge{k, v.CreatedAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].age.Before(entries[j].age)
	})

	for i := 0; i < min(count, len(entries)); i++ {
		delete(c.cache, entries[i].key)
	}
}

// 清理JSON字符串，去除前后非JSON内容
var jsonNoiseReplacer = strings.NewReplacer(
	"```json", "",
	"```", "",
	"\ufeff", "",
	"\u00a0", " ",
	"\u2028", "\n",
	"\u2029", "\n",
)

var structuralPunctuationMap = map[rune]rune{
	'：': ':',
	'，': ',',
	'［': '[',
	'］': ']',
	'｛': '{',
	'｝': '}',
}

var quotePairs = map[rune]rune{
	'“': '”',
	'”': '”',
	'„': '”',
}

// normalizeJSONStructure 把字符串外的全角标点和弯引号换成JSON结构符号
func normalizeJSONStructure(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))
	inString := false
	escaped := false
	closing := '"'

	for _, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == closing || r == '"':
				inString = false
				closing = '"'
				r = '"'
			}
			builder.WriteRune(r)
			continue
		}

		if replacement, ok := structuralPunctuationMap[r]; ok {
			r = replacement
		} else if c, ok := quotePairs[r]; ok {
			inString = true
			closing = c
			r = '"'
		} else if r == '"' {
			inString = true
			closing = '"'
		} else if r > unicode.MaxASCII && !unicode.IsSpace(r) {
			// 丢弃出现在字符串外的异常Unicode字符
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

// cleanJSONString 提取模型回复中的第一个完整JSON值
func cleanJSONString(s string) string {
	s = strings.TrimSpace(jsonNoiseReplacer.Replace(s))
	if s == "" {
		return s
	}

	// 移除零宽字符及除换行/制表符外的控制字符
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\u2060':
			return -1
		}
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	start := strings.IndexAny(s, "[{")
	if start == -1 {
		return s
	}
	s = normalizeJSONStructure(strings.TrimSpace(s[start:]))

	opener, closer := byte('{'), byte('}')
	if s[0] == '[' {
		opener, closer = '[', ']'
	}

	balance := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		char := s[i]
		switch {
		case escaped:
			escaped = false
		case char == '\\':
			escaped = true
		case char == '"':
			inString = !inString
		case !inString && char == opener:
			balance++
		case !inString && char == closer:
			balance--
			if balance == 0 {
				return strings.TrimSpace(s[:i+1])
			}
		}
	}

	// 未闭合时退回到最后一个结束符
	if end := strings.LastIndexByte(s, closer); end >= 0 {
		return strings.TrimSpace(s[:end+1])
	}
	return strings.TrimSpace(s)
}
