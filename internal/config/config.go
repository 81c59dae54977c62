package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/papergest/internal/chunker"
	"github.com/dgallion1/papergest/internal/format"
	"github.com/dgallion1/papergest/internal/summarize"
	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable holding an optional YAML file.
const FileEnv = "PAPERGEST_CONFIG"

type Config struct {
	Port string `yaml:"port"`

	// Auth
	APIKey string `yaml:"api_key"`

	// Summarization
	AnthropicAPIKey string        `yaml:"anthropic_api_key"`
	AnthropicModel  string        `yaml:"anthropic_model"`
	SummaryLanguage string        `yaml:"summary_language"`
	LLMCoolDown     time.Duration `yaml:"llm_cool_down"`
	LLMCoolTokens   int           `yaml:"llm_cool_tokens"`
	LLMMaxRedo      int           `yaml:"llm_max_redo"`
	MaxPromptTokens int           `yaml:"max_prompt_tokens"`
	LLMMaxRetries   int           `yaml:"llm_max_retries"`
	LLMRetryBase    time.Duration `yaml:"llm_retry_base"`
	LLMRetryMax     time.Duration `yaml:"llm_retry_max"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`
	BatchWorkers int `yaml:"batch_workers"`

	// Batch CLI
	PDFDirs    string        `yaml:"pdf_dirs"`    // comma-separated default inputs
	BatchPause time.Duration `yaml:"batch_pause"` // between summarized files

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// Conversion
	Formatters           string `yaml:"formatters"`
	PDFFallbackPdftotext bool   `yaml:"pdf_fallback_pdftotext"`

	// Document cache; an empty address keeps it in memory.
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:                 "8090",
		AnthropicModel:       "claude-sonnet-4-5-20250929",
		SummaryLanguage:      "Japanese",
		LLMCoolDown:          30 * time.Second,
		LLMCoolTokens:        6000,
		LLMMaxRedo:           3,
		MaxPromptTokens:      6000,
		LLMMaxRetries:        3,
		LLMRetryBase:         time.Second,
		LLMRetryMax:          30 * time.Second,
		WorkerCount:          4,
		MaxQueueSize:         100,
		BatchWorkers:         4,
		BatchPause:           60 * time.Second,
		MaxUploadBytes:       52428800, // 50MB
		JobTTL:               1 * time.Hour,
		PDFFallbackPdftotext: true,
		CacheTTL:             24 * time.Hour,
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by PAPERGEST_CONFIG, and environment variables, in that order.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	cfg.normalize()

	if _, err := cfg.FormatPipeline(); err != nil {
		return Config{}, fmt.Errorf("FORMATTERS: %w", err)
	}
	return cfg, nil
}

// loadFile overlays a YAML file. ${VAR} references are expanded first.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)
	c.APIKey = envOr("PAPERGEST_API_KEY", c.APIKey)

	c.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	c.AnthropicModel = envOr("ANTHROPIC_MODEL", c.AnthropicModel)
	c.SummaryLanguage = envOr("SUMMARY_LANGUAGE", c.SummaryLanguage)
	c.LLMCoolDown = envSeconds("LLM_COOL_SECONDS", c.LLMCoolDown)
	c.LLMCoolTokens = envInt("LLM_COOL_TOKENS", c.LLMCoolTokens)
	c.LLMMaxRedo = envInt("LLM_MAX_REDO", c.LLMMaxRedo)
	c.MaxPromptTokens = envInt("MAX_PROMPT_TOKENS", c.MaxPromptTokens)
	c.LLMMaxRetries = envInt("LLM_MAX_RETRIES", c.LLMMaxRetries)
	c.LLMRetryBase = envDuration("LLM_RETRY_BASE", c.LLMRetryBase)
	c.LLMRetryMax = envDuration("LLM_RETRY_MAX", c.LLMRetryMax)

	c.WorkerCount = envInt("WORKER_COUNT", c.WorkerCount)
	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.BatchWorkers = envInt("BATCH_WORKERS", c.BatchWorkers)
	c.PDFDirs = envOr("PDF_DIRS", c.PDFDirs)
	c.BatchPause = envDuration("BATCH_PAUSE", c.BatchPause)
	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.JobTTL = envDuration("JOB_TTL", c.JobTTL)

	c.Formatters = envOr("FORMATTERS", c.Formatters)
	c.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", c.PDFFallbackPdftotext)

	c.RedisAddr = envOr("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = envOr("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = envInt("REDIS_DB", c.RedisDB)
	c.CacheTTL = envDuration("CACHE_TTL", c.CacheTTL)
}

// normalize replaces out-of-range values with defaults.
func (c *Config) normalize() {
	d := Defaults()
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.BatchWorkers <= 0 {
		c.BatchWorkers = d.BatchWorkers
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
	if c.MaxPromptTokens <= 0 {
		c.MaxPromptTokens = d.MaxPromptTokens
	}
	if c.LLMMaxRedo < 0 {
		c.LLMMaxRedo = 0
	}
	if c.LLMCoolDown < 0 {
		c.LLMCoolDown = 0
	}
	if c.BatchPause < 0 {
		c.BatchPause = 0
	}
	if c.LLMMaxRetries < 0 {
		c.LLMMaxRetries = 0
	}
	if c.LLMRetryBase <= 0 {
		c.LLMRetryBase = d.LLMRetryBase
	}
}

// Validate checks what the HTTP server needs.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PAPERGEST_API_KEY is required")
	}
	return nil
}

// ValidateSummarize checks what summarization needs.
func (c Config) ValidateSummarize() error {
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required for summarization")
	}
	return nil
}

// InputRoots splits PDFDirs into trimmed, non-empty paths.
func (c Config) InputRoots() []string {
	var roots []string
	for _, p := range strings.Split(c.PDFDirs, ",") {
		if p = strings.TrimSpace(p); p != "" {
			roots = append(roots, p)
		}
	}
	return roots
}

// FormatPipeline parses the configured default formatters.
func (c Config) FormatPipeline() (format.Pipeline, error) {
	return format.Parse(c.Formatters)
}

// Summarize returns the summarizer settings.
func (c Config) Summarize() summarize.Config {
	return summarize.Config{
		Language:   c.SummaryLanguage,
		CoolDown:   c.LLMCoolDown,
		CoolTokens: c.LLMCoolTokens,
		MaxRedo:    c.LLMMaxRedo,
		Chunk:      chunker.Config{MaxTokens: c.MaxPromptTokens},
		Retry: summarize.RetryConfig{
			MaxRetries: c.LLMMaxRetries,
			BaseDelay:  c.LLMRetryBase,
			MaxDelay:   c.LLMRetryMax,
			Jitter:     summarize.DefaultRetryConfig().Jitter,
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envSeconds reads a whole number of seconds.
func envSeconds(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
