package config

// MonitoringConfig holds Prometheus metrics configuration.
type MonitoringConfig struct {
	MetricsEnabled bool `env:"METRICS_ENABLED" yaml:"metrics_enabled" default:"true"`
	MetricsPort    int  `env:"METRICS_PORT" yaml:"metrics_port" default:"9090"`
}
