// Package config holds the assistant's configuration surface and its loader.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/assistant-labs/personal_assistant/pkg/logger"
)

// AppConfig holds all application configuration.
type AppConfig struct {
	// Service configuration
	ServiceName string `env:"SERVICE_NAME" yaml:"service_name" default:"personal-assistant"`
	Environment string `env:"ENVIRONMENT" yaml:"environment" default:"development"`

	// Webhook HTTP server
	Port           int           `env:"PORT" yaml:"port" default:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" yaml:"request_timeout" default:"30s"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT" yaml:"idle_timeout" default:"60s"`

	// DefaultTimezone is used by every date/time-aware tool.
	DefaultTimezone string `env:"DEFAULT_TIMEZONE" yaml:"default_timezone" default:"Asia/Kolkata"`

	LLM        LLMConfig        `yaml:"llm"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Slack      SlackConfig      `yaml:"slack"`
	Search     SearchConfig     `yaml:"search"`
	Google     GoogleConfig     `yaml:"google"`
	Weather    WeatherConfig    `yaml:"weather"`
	Logging    LoggingConfig    `yaml:"logging"`
	Health     HealthConfig     `yaml:"health"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// Validate checks the configuration, aggregating all problems.
func (c *AppConfig) Validate() error {
	var result error

	if c.Port < 1 || c.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("port must be between 1 and 65535, got %d", c.Port))
	}

	if c.RequestTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("request_timeout must be greater than 0"))
	}

	level := strings.ToLower(c.Logging.Level)
	switch level {
	case "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("log_level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		result = multierror.Append(result, fmt.Errorf("log_format must be either 'json' or 'text', got %q", c.Logging.Format))
	}

	switch strings.ToLower(c.LLM.Provider) {
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("OPENAI_API_KEY is required when llm provider is %q", ProviderOpenAI))
		}
	case ProviderClaude:
		if c.Anthropic.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("ANTHROPIC_API_KEY is required when llm provider is %q", ProviderClaude))
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("GEMINI_API_KEY is required when llm provider is %q", ProviderGemini))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unsupported llm provider: %s", c.LLM.Provider))
	}

	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		result = multierror.Append(result, fmt.Errorf("openai temperature must be within [0, 2], got %v", c.OpenAI.Temperature))
	}

	if c.Search.MaxResults < 1 {
		result = multierror.Append(result, fmt.Errorf("search max_results must be at least 1, got %d", c.Search.MaxResults))
	}

	return result
}

// GetLogLevel returns the parsed logger level.
func (c *AppConfig) GetLogLevel() logger.Level {
	return logger.ParseLevel(strings.ToLower(c.Logging.Level))
}

// IsProduction returns true when running in production.
func (c *AppConfig) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

// LogConfig logs the loaded configuration without secrets.
func (c *AppConfig) LogConfig(log logger.Logger) {
	log.Info("Application configuration loaded",
		logger.StringField("service_name", c.ServiceName),
		logger.StringField("environment", c.Environment),
		logger.IntField("port", c.Port),
		logger.StringField("llm_provider", c.LLM.Provider),
		logger.StringField("model", c.ModelName()),
		logger.StringField("timezone", c.DefaultTimezone),
		logger.StringField("log_level", c.Logging.Level),
		logger.BoolField("search_enabled", c.Search.Enabled()),
		logger.BoolField("metrics_enabled", c.Monitoring.MetricsEnabled),
	)
}

// ModelName returns the model name of the active provider.
func (c *AppConfig) ModelName() string {
	switch strings.ToLower(c.LLM.Provider) {
	case ProviderClaude:
		return c.Anthropic.Model
	case ProviderGemini:
		return c.Gemini.Model
	default:
		return c.OpenAI.Model
	}
}
