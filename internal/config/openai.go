package config

import "time"

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey      string        `env:"OPENAI_API_KEY" yaml:"api_key"`
	Model       string        `env:"OPENAI_MODEL" yaml:"model" default:"gpt-4o"`
	Temperature float64       `env:"OPENAI_TEMPERATURE" yaml:"temperature" default:"1"`
	Timeout     time.Duration `env:"OPENAI_TIMEOUT" yaml:"timeout" default:"30s"`
}
