package config

import "time"

// ObservabilityConfig configures the admin server (health probes + metrics).
// It runs on a dedicated port to isolate administrative traffic from
// business traffic.
type ObservabilityConfig struct {
	Enabled       bool          `envconfig:"ENABLED" default:"true"`
	Port          string        `envconfig:"PORT" default:"9090"`
	Timeout       time.Duration `envconfig:"TIMEOUT" default:"5s"`
	LivenessPath  string        `envconfig:"LIVENESS_PATH" default:"/health/live"`
	ReadinessPath string        `envconfig:"READINESS_PATH" default:"/health/ready"`
	MetricsPath   string        `envconfig:"METRICS_PATH" default:"/metrics"`
}
