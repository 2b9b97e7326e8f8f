package config

import (
	"fmt"
	"time"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Drift     DriftConfig     `mapstructure:"drift"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Health    HealthConfig    `mapstructure:"health"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	ABTest    ABTestConfig    `mapstructure:"abtest"`
	Watchdog  WatchdogConfig  `mapstructure:"watchdog"`
	API       APIConfig       `mapstructure:"api"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Events    EventsConfig    `mapstructure:"events"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Mode            string        `mapstructure:"mode"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxConnections  int           `mapstructure:"max_connections"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode,
	)
}

type RegistryConfig struct {
	ArtifactDir    string        `mapstructure:"artifact_dir"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type DriftConfig struct {
	Threshold            float64 `mapstructure:"threshold"`
	HistogramBins        int     `mapstructure:"histogram_bins"`
	MinAnomalySamples    int     `mapstructure:"min_anomaly_samples"`
	AnomalyRatioLimit    float64 `mapstructure:"anomaly_ratio_limit"`
	IsolationTrees       int     `mapstructure:"isolation_trees"`
	IsolationSampleSize  int     `mapstructure:"isolation_sample_size"`
}

type MonitorConfig struct {
	WindowSize           int     `mapstructure:"window_size"`
	RecentRecords        int     `mapstructure:"recent_records"`
	DegradationThreshold float64 `mapstructure:"degradation_threshold"`
}

type HealthConfig struct {
	DriftThreshold float64       `mapstructure:"drift_threshold"`
	Weights        WeightsConfig `mapstructure:"weights"`
}

type WeightsConfig struct {
	Accuracy     float64 `mapstructure:"accuracy"`
	Latency      float64 `mapstructure:"latency"`
	DataDrift    float64 `mapstructure:"data_drift"`
	ConceptDrift float64 `mapstructure:"concept_drift"`
	Availability float64 `mapstructure:"availability"`
}

type AlertsConfig struct {
	Cooldown time.Duration `mapstructure:"cooldown"`
}

type ABTestConfig struct {
	SignificanceLevel   float64 `mapstructure:"significance_level"`
	DefaultSplit        float64 `mapstructure:"default_split"`
	DefaultDurationDays int     `mapstructure:"default_duration_days"`
}

type WatchdogConfig struct {
	Enabled        bool                 `mapstructure:"enabled"`
	Interval       time.Duration        `mapstructure:"interval"`
	FeedEndpoint   string               `mapstructure:"feed_endpoint"`
	FeedTimeout    time.Duration        `mapstructure:"feed_timeout"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type APIConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RateLimit    int           `mapstructure:"rate_limit"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTDuration  time.Duration `mapstructure:"jwt_duration"`
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
	CORS         CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type WebSocketConfig struct {
	MaxConnections  int           `mapstructure:"max_connections"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	BroadcastBuffer int           `mapstructure:"broadcast_buffer"`
	ClientBuffer    int           `mapstructure:"client_buffer"`
}

type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}
