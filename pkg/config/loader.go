package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/modelops")
	}

	// Environment variable settings
	v.SetEnvPrefix("MODELOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "modelops")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "modelops")
	v.SetDefault("database.user", "admin")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.ssl_mode", "disable")

	// Registry defaults
	v.SetDefault("registry.artifact_dir", "./artifacts")
	v.SetDefault("registry.circuit_breaker.max_failures", 5)
	v.SetDefault("registry.circuit_breaker.timeout", "30s")

	// Drift defaults
	v.SetDefault("drift.threshold", 0.1)
	v.SetDefault("drift.histogram_bins", 50)
	v.SetDefault("drift.min_anomaly_samples", 100)
	v.SetDefault("drift.anomaly_ratio_limit", 0.2)
	v.SetDefault("drift.isolation_trees", 100)
	v.SetDefault("drift.isolation_sample_size", 256)

	// Monitor defaults
	v.SetDefault("monitor.window_size", 1000)
	v.SetDefault("monitor.recent_records", 10)
	v.SetDefault("monitor.degradation_threshold", 0.05)

	// Health defaults
	v.SetDefault("health.drift_threshold", 0.1)
	v.SetDefault("health.weights.accuracy", 0.3)
	v.SetDefault("health.weights.latency", 0.2)
	v.SetDefault("health.weights.data_drift", 0.2)
	v.SetDefault("health.weights.concept_drift", 0.2)
	v.SetDefault("health.weights.availability", 0.1)

	// Alerts defaults
	v.SetDefault("alerts.cooldown", "1h")

	// A/B test defaults
	v.SetDefault("abtest.significance_level", 0.05)
	v.SetDefault("abtest.default_split", 0.5)
	v.SetDefault("abtest.default_duration_days", 7)

	// Watchdog defaults
	v.SetDefault("watchdog.enabled", false)
	v.SetDefault("watchdog.interval", "1m")
	v.SetDefault("watchdog.feed_endpoint", "http://localhost:9000/predictions")
	v.SetDefault("watchdog.feed_timeout", "5s")
	v.SetDefault("watchdog.circuit_breaker.max_failures", 5)
	v.SetDefault("watchdog.circuit_breaker.timeout", "30s")

	// API defaults
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.jwt_secret", "change-me-in-production")
	v.SetDefault("api.jwt_duration", "24h")
	v.SetDefault("api.default_limit", 50)
	v.SetDefault("api.max_limit", 500)

	// WebSocket defaults
	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.ping_interval", "30s")

	// Events defaults
	v.SetDefault("events.buffer_size", 100)
}
