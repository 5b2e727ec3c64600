// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// 当前配置的单例实例
var (
	currentConfig *Config
	configMutex   sync.RWMutex
)

// Config 存储应用配置
type Config struct {
	// 基础配置
	Port      string `json:"port"`
	DataDir   string `json:"data_dir"`
	LogLevel  string `json:"log_level"`
	LogFile   string `json:"log_file,omitempty"`
	DebugMode bool   `json:"debug_mode"`

	// LLM相关配置
	OpenAIAPIKey string        `json:"-"`
	GeminiAPIKey string        `json:"-"`
	LLMProvider  string        `json:"llm_provider"`
	LLMModel     string        `json:"llm_model"`
	LLMBaseURL   string        `json:"llm_base_url,omitempty"`
	LLMTimeout   time.Duration `json:"llm_timeout"`
	LLMCacheTTL  time.Duration `json:"llm_cache_ttl"`

	// 分析引擎
	HeuristicsFile string `json:"heuristics_file,omitempty"`
	MaxScriptBytes int64  `json:"max_script_bytes"`

	// HTTP
	RateLimitRPS   float64  `json:"rate_limit_rps"`
	RateLimitBurst int      `json:"rate_limit_burst"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// LLMAPIKey 返回当前提供者使用的凭证
func (c *Config) LLMAPIKey() string {
	if c.LLMProvider == "google" {
		return strings.TrimSpace(c.GeminiAPIKey)
	}
	return strings.TrimSpace(c.OpenAIAPIKey)
}

// LLMConfigured 是否配置了LLM凭证
func (c *Config) LLMConfigured() bool {
	return c.LLMAPIKey() != ""
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 尝试加载.env文件（可选）
	_ = godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8000"),
		DataDir:        getEnv("DATA_DIR", "data"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        getEnv("LOG_FILE", ""),
		DebugMode:      getEnvBool("DEBUG_MODE", false),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", "")),
		LLMProvider:    getEnv("LLM_PROVIDER", "openai"),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-2024-08-06"),
		LLMBaseURL:     getEnv("LLM_BASE_URL", ""),
		LLMTimeout:     getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		LLMCacheTTL:    getEnvDuration("LLM_CACHE_TTL", 30*time.Minute),
		HeuristicsFile: getEnv("HEURISTICS_FILE", ""),
		MaxScriptBytes: int64(getEnvInt("MAX_SCRIPT_BYTES", 1<<20)),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"*"}),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if !config.LLMConfigured() {
		// 只记录警告，不返回错误
		log.Printf("warning: no API key for LLM provider %q, analysis will use the heuristic engine only", config.LLMProvider)
	}

	return config, nil
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.MaxScriptBytes <= 0 {
		return fmt.Errorf("MAX_SCRIPT_BYTES must be positive")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}
	return nil
}

// InitConfig 初始化配置管理器
func InitConfig() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败 %s: %w", cfg.DataDir, err)
	}

	configMutex.Lock()
	currentConfig = cfg
	configMutex.Unlock()

	return GetCurrentConfig(), nil
}

// GetCurrentConfig 返回当前配置的副本
func GetCurrentConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		// 紧急情况，直接从环境读取
		cfg, err := Load()
		if err != nil {
			return &Config{Port: "8000", DataDir: "data", LogLevel: "info", LLMProvider: "openai",
				LLMModel: "gpt-4o-2024-08-06", LLMTimeout: 60 * time.Second, MaxScriptBytes: 1 << 20,
				AllowedOrigins: []string{"*"}}
		}
		return cfg
	}

	// 返回配置的副本
	configCopy := *currentConfig
	configCopy.AllowedOrigins = append([]string(nil), currentConfig.AllowedOrigins...)
	return &configCopy
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(getEnv(key, ""))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvDuration 接受 "90s" 形式，也接受纯数字秒
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
