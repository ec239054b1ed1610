package authcore

import (
	"time"

	"github.com/propertyhub/authcore/scheduler"
)

// Config defines the tunable behavior of the session core. Zero values
// take the defaults from [New]; a Config is treated as immutable after
// Build.
type Config struct {
	Gateway   GatewayConfig
	Scheduler SchedulerConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
GATEWAY CONFIG
====================================
*/

// GatewayConfig configures the default HTTP gateway. Ignored when an
// explicit Gateway implementation is injected.
type GatewayConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

/*
====================================
SCHEDULER CONFIG
====================================
*/

// SchedulerConfig sizes the lifecycle timers: how long before expiry the
// proactive refresh fires, and how often the recurring session check runs.
type SchedulerConfig struct {
	RefreshLead   time.Duration
	CheckInterval time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the buffered audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking when the buffer is
	// full. The drop count is observable via Manager.AuditDropped.
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the internal counter table.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Gateway: GatewayConfig{
			Timeout:   15 * time.Second,
			UserAgent: "authcore/1",
		},
		Scheduler: SchedulerConfig{
			RefreshLead:   scheduler.DefaultRefreshLead,
			CheckInterval: scheduler.DefaultCheckInterval,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// normalize fills zero fields with defaults without touching set ones.
func (c *Config) normalize() {
	def := defaultConfig()
	if c.Gateway.Timeout <= 0 {
		c.Gateway.Timeout = def.Gateway.Timeout
	}
	if c.Gateway.UserAgent == "" {
		c.Gateway.UserAgent = def.Gateway.UserAgent
	}
	if c.Scheduler.RefreshLead <= 0 {
		c.Scheduler.RefreshLead = def.Scheduler.RefreshLead
	}
	if c.Scheduler.CheckInterval <= 0 {
		c.Scheduler.CheckInterval = def.Scheduler.CheckInterval
	}
	if c.Audit.BufferSize <= 0 {
		c.Audit.BufferSize = def.Audit.BufferSize
	}
}
