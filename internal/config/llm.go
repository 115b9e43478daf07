package config

// LLM provider constants
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

// LLMConfig selects the model provider backing all agents.
type LLMConfig struct {
	Provider string `env:"LLM_PROVIDER" yaml:"provider" default:"openai"`
}
