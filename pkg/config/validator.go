package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, errors.New("database.port must be between 1 and 65535"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if c.Database.MaxConnections <= 0 {
		errs = append(errs, errors.New("database.max_connections must be positive"))
	}

	// Drift validation
	if c.Drift.Threshold <= 0 || c.Drift.Threshold >= 1 {
		errs = append(errs, errors.New("drift.threshold must be between 0 and 1"))
	}
	if c.Drift.HistogramBins < 2 {
		errs = append(errs, errors.New("drift.histogram_bins must be at least 2"))
	}
	if c.Drift.MinAnomalySamples <= 0 {
		errs = append(errs, errors.New("drift.min_anomaly_samples must be positive"))
	}
	if c.Drift.AnomalyRatioLimit <= 0 || c.Drift.AnomalyRatioLimit >= 1 {
		errs = append(errs, errors.New("drift.anomaly_ratio_limit must be between 0 and 1"))
	}

	// Monitor validation
	if c.Monitor.WindowSize <= 0 {
		errs = append(errs, errors.New("monitor.window_size must be positive"))
	}
	if c.Monitor.RecentRecords <= 0 {
		errs = append(errs, errors.New("monitor.recent_records must be positive"))
	}
	if c.Monitor.RecentRecords > c.Monitor.WindowSize {
		errs = append(errs, errors.New("monitor.recent_records must not exceed window_size"))
	}
	if c.Monitor.DegradationThreshold <= 0 {
		errs = append(errs, errors.New("monitor.degradation_threshold must be positive"))
	}

	// Health validation: weights must describe a convex combination
	w := c.Health.Weights
	sum := w.Accuracy + w.Latency + w.DataDrift + w.ConceptDrift + w.Availability
	if sum < 0.999 || sum > 1.001 {
		errs = append(errs, fmt.Errorf("health.weights must sum to 1.0, got %.3f", sum))
	}
	for _, weight := range []float64{w.Accuracy, w.Latency, w.DataDrift, w.ConceptDrift, w.Availability} {
		if weight < 0 {
			errs = append(errs, errors.New("health.weights must be non-negative"))
			break
		}
	}

	// Alerts validation
	if c.Alerts.Cooldown <= 0 {
		errs = append(errs, errors.New("alerts.cooldown must be positive"))
	}

	// A/B test validation
	if c.ABTest.SignificanceLevel <= 0 || c.ABTest.SignificanceLevel >= 1 {
		errs = append(errs, errors.New("abtest.significance_level must be between 0 and 1"))
	}
	if c.ABTest.DefaultSplit <= 0 || c.ABTest.DefaultSplit >= 1 {
		errs = append(errs, errors.New("abtest.default_split must be between 0 and 1 exclusive"))
	}

	// Watchdog validation
	if c.Watchdog.Enabled {
		if c.Watchdog.Interval <= 0 {
			errs = append(errs, errors.New("watchdog.interval must be positive"))
		}
		if c.Watchdog.FeedTimeout <= 0 {
			errs = append(errs, errors.New("watchdog.feed_timeout must be positive"))
		}
		if c.Watchdog.FeedTimeout >= c.Watchdog.Interval {
			errs = append(errs, errors.New("watchdog.feed_timeout must be less than watchdog.interval"))
		}
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.App.Mode == "production" && c.API.JWTSecret == "change-me-in-production" {
		errs = append(errs, errors.New("api.jwt_secret must be changed in production"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
