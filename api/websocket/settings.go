package websocket

import (
	"time"

	"github.com/mlforge/modelops/pkg/config"
)

// WebSocketSettings are the effective connection parameters after applying
// defaults over the configured values.
type WebSocketSettings struct {
	MaxConnections int
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64
	ClientBuffer   int
}

func NewWebSocketSettings(cfg *config.WebSocketConfig) *WebSocketSettings {
	s := &WebSocketSettings{
		MaxConnections: 100,
		PingInterval:   54 * time.Second,
		WriteTimeout:   10 * time.Second,
		PongTimeout:    60 * time.Second,
		MaxMessageSize: 512,
		ClientBuffer:   256,
	}
	if cfg == nil {
		return s
	}

	if cfg.MaxConnections > 0 {
		s.MaxConnections = cfg.MaxConnections
	}
	if cfg.PingInterval > 0 {
		s.PingInterval = cfg.PingInterval
	}
	if cfg.WriteTimeout > 0 {
		s.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.PongTimeout > 0 {
		s.PongTimeout = cfg.PongTimeout
	}
	if cfg.MaxMessageSize > 0 {
		s.MaxMessageSize = cfg.MaxMessageSize
	}
	if cfg.ClientBuffer > 0 {
		s.ClientBuffer = cfg.ClientBuffer
	}
	return s
}
