package config

// HealthConfig holds health check endpoint configuration.
type HealthConfig struct {
	Enabled       bool   `env:"HEALTH_ENABLED" yaml:"enabled" default:"true"`
	LivenessPath  string `env:"HEALTH_LIVENESS_PATH" yaml:"liveness_path" default:"/health/live"`
	ReadinessPath string `env:"HEALTH_READINESS_PATH" yaml:"readiness_path" default:"/health/ready"`
}
