// internal/workers/incident/notify-supervisors/config.go
package notifysupervisors

import (
	"time"

	"incident-notifier/internal/common/config"
)

type Config struct {
	Timeout         time.Duration // whole job
	ReadTimeout     time.Duration
	DispatchTimeout time.Duration
	CleanupTimeout  time.Duration
	AuditTimeout    time.Duration
	DedupeEnabled   bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         30 * time.Second,
		ReadTimeout:     5 * time.Second,
		DispatchTimeout: 5 * time.Second,
		CleanupTimeout:  5 * time.Second,
		AuditTimeout:    3 * time.Second,
	}
}

// ConfigFrom overlays application configuration on the defaults.
func ConfigFrom(cfg *config.Config) *Config {
	c := LoadConfig()
	if wc := config.GetWorkerConfig(cfg, TaskType); wc.Timeout > 0 {
		c.Timeout = config.GetDuration(wc.Timeout)
	}
	if cfg.Directory.ReadTimeout > 0 {
		c.ReadTimeout = config.GetDuration(cfg.Directory.ReadTimeout)
	}
	if cfg.Push.DispatchTimeout > 0 {
		c.DispatchTimeout = config.GetDuration(cfg.Push.DispatchTimeout)
	}
	if cfg.Directory.CleanupTimeout > 0 {
		c.CleanupTimeout = config.GetDuration(cfg.Directory.CleanupTimeout)
	}
	c.DedupeEnabled = cfg.Dedupe.Enabled
	return c
}
