// Package config defines the service configuration and its file loader.
package config

import (
	"fmt"
	"time"

	"github.com/versal-platform/botlogic/pkg/kvs"
)

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Store   kvs.Config    `yaml:"store" json:"store"`
	Auth    AuthConfig    `yaml:"auth" json:"auth"`
	Core    CoreConfig    `yaml:"core" json:"core"`
	Session SessionConfig `yaml:"session" json:"session"`
	Sweep   SweepConfig   `yaml:"sweep" json:"sweep"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// AuthConfig configures the auth service adapter.
type AuthConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// CoreConfig configures the core service adapter.
type CoreConfig struct {
	BaseURL  string        `yaml:"base_url" json:"base_url"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	DemoMode bool          `yaml:"demo_mode" json:"demo_mode"`
}

// SessionConfig configures session persistence.
type SessionConfig struct {
	// TTL bounds every session record; it is refreshed on each write.
	TTL time.Duration `yaml:"ttl" json:"ttl"`
}

// SweepConfig configures the in-process reconciliation scheduler. When
// disabled, sweeps run only when the transport calls the /tick endpoints.
type SweepConfig struct {
	Enabled  bool          `yaml:"enabled" json:"enabled"`
	Interval time.Duration `yaml:"interval" json:"interval"`

	// WebhookURL receives POSTed {chat_id, message} items produced by
	// scheduler-driven sweeps. Required when Enabled.
	WebhookURL string `yaml:"webhook_url" json:"webhook_url"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Auth.BaseURL == "" {
		return fmt.Errorf("%w: auth.base_url is required", ErrInvalidConfig)
	}
	if c.Core.BaseURL == "" && !c.Core.DemoMode {
		return fmt.Errorf("%w: core.base_url is required unless core.demo_mode is set", ErrInvalidConfig)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("%w: session.ttl must be positive", ErrInvalidConfig)
	}
	if c.Sweep.Enabled {
		if c.Sweep.Interval <= 0 {
			return fmt.Errorf("%w: sweep.interval must be positive when sweep.enabled", ErrInvalidConfig)
		}
		if c.Sweep.WebhookURL == "" {
			return fmt.Errorf("%w: sweep.webhook_url is required when sweep.enabled", ErrInvalidConfig)
		}
	}
	return nil
}
