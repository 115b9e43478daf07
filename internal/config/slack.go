package config

// SlackConfig holds the Slack Events API configuration.
type SlackConfig struct {
	BotToken      string `env:"SLACK_BOT_TOKEN" yaml:"bot_token" required:"true"`
	SigningSecret string `env:"SLACK_SIGNING_SECRET" yaml:"signing_secret" required:"true"`
}
