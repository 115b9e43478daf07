package config

import "time"

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string        `env:"ANTHROPIC_API_KEY" yaml:"api_key"`
	Model   string        `env:"CLAUDE_MODEL" yaml:"model" default:"claude-3-5-sonnet-20241022"`
	Timeout time.Duration `env:"ANTHROPIC_TIMEOUT" yaml:"timeout" default:"30s"`
}
