package config

import "time"

// SearchConfig holds Tavily web-search configuration.
type SearchConfig struct {
	APIKey     string        `env:"TAVILY_SEARCH_KEY" yaml:"-"`
	BaseURL    string        `env:"TAVILY_URL" yaml:"base_url" default:"https://api.tavily.com"`
	MaxResults int           `env:"MAX_RESULTS" yaml:"max_results" default:"5"`
	Timeout    time.Duration `env:"SEARCH_TIMEOUT" yaml:"timeout" default:"30s"`
}

// Enabled returns true if the search API is configured with an API key.
func (c *SearchConfig) Enabled() bool {
	return c.APIKey != ""
}
