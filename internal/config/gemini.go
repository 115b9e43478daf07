package config

// GeminiConfig holds Gemini-specific configuration. Setting both Project
// and Region switches the client to the Vertex AI backend.
type GeminiConfig struct {
	APIKey  string `env:"GEMINI_API_KEY" yaml:"api_key"`
	Model   string `env:"GEMINI_MODEL" yaml:"model" default:"gemini-2.0-flash"`
	Project string `env:"GEMINI_PROJECT" yaml:"project"`
	Region  string `env:"GEMINI_REGION" yaml:"region"`
}
