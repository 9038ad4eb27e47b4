package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server ServerConfig `mapstructure:"server" validate:"required"`
	LLM    LLMConfig    `mapstructure:"llm" validate:"required"`
	Task   TaskConfig   `mapstructure:"task" validate:"required"`
	Fetch  FetchConfig  `mapstructure:"fetch"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// Supported model providers.
const (
	ProviderDashScope = "dashscope"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

// LLMConfig selects and configures the generative model backend.
type LLMConfig struct {
	Provider string `mapstructure:"provider" validate:"required,oneof=dashscope gemini ollama"`

	// APIKey is required by the hosted providers.
	APIKey string `mapstructure:"api_key" validate:"required_unless=Provider ollama"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`

	TextModel   string `mapstructure:"text_model" validate:"required"`
	VisionModel string `mapstructure:"vision_model" validate:"required"`

	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=1"`

	// MaxRetries bounds retries of rate-limited or unavailable responses
	// within one call's timeout. Timeouts are never retried.
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0,lte=5"`
	RetryDelay time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
}

// TaskConfig contains the background runner and registry settings.
type TaskConfig struct {
	WorkerCount       int           `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize         int           `mapstructure:"queue_size" validate:"required,gt=0"`
	StuckTaskAge      time.Duration `mapstructure:"stuck_task_age" validate:"required,gt=0"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval" validate:"required,gt=0"`
	FinishedRetention time.Duration `mapstructure:"finished_retention" validate:"gte=0"`
}

// FetchConfig contains settings for downloading documents.
type FetchConfig struct {
	UserAgent string `mapstructure:"user_agent"`
}

// defaultModels are used when no model is configured for the provider.
var defaultModels = map[string]struct{ text, vision string }{
	ProviderDashScope: {"qwen-plus", "qwen-vl-plus"},
	ProviderGemini:    {"gemini-2.0-flash", "gemini-2.0-flash"},
	ProviderOllama:    {"llama3.2", "llava"},
}
