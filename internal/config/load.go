package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches for
// config.yaml in the working directory and /etc/scry-summarizer.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/scry-summarizer/")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("SCRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind keys without a meaningful default
	bindEnvs := []struct {
		key    string
		envVar string
	}{
		{"llm.api_key", "SCRY_LLM_API_KEY"},
		{"llm.base_url", "SCRY_LLM_BASE_URL"},
		{"llm.text_model", "SCRY_LLM_TEXT_MODEL"},
		{"llm.vision_model", "SCRY_LLM_VISION_MODEL"},
	}
	for _, env := range bindEnvs {
		if err := v.BindEnv(env.key, env.envVar); err != nil {
			return nil, fmt.Errorf("error binding environment variable %s: %w", env.envVar, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	applyModelDefaults(&cfg.LLM)

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("llm.provider", ProviderDashScope)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_retries", 1)
	v.SetDefault("llm.retry_delay", "500ms")

	v.SetDefault("task.worker_count", 4)
	v.SetDefault("task.queue_size", 256)
	v.SetDefault("task.stuck_task_age", "10m")
	v.SetDefault("task.sweep_interval", "30s")
	v.SetDefault("task.finished_retention", "30m")

	v.SetDefault("fetch.user_agent", "scry-summarizer/1.0")
}

func applyModelDefaults(llm *LLMConfig) {
	models, ok := defaultModels[llm.Provider]
	if !ok {
		return
	}
	if llm.TextModel == "" {
		llm.TextModel = models.text
	}
	if llm.VisionModel == "" {
		llm.VisionModel = models.vision
	}
}
