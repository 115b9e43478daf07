package config

// GoogleConfig holds Google API credential configuration shared by the
// Gmail and Calendar tool sets.
type GoogleConfig struct {
	CredentialsFile string   `env:"GOOGLE_CREDENTIALS_FILE" yaml:"credentials_file" default:"credentials.json"`
	TokenFile       string   `env:"GOOGLE_TOKEN_FILE" yaml:"token_file" default:"token.json"`
	Scopes          []string `env:"GOOGLE_SCOPES" yaml:"scopes" default:"https://www.googleapis.com/auth/calendar,https://mail.google.com/"`
}
