package module

import (
	"time"

	"slotwatch/internal/platform/config"
)

// Options holds configuration settings for the tasks module
type Options struct {
	TTL time.Duration
}

// FromConfig reads configuration settings from the config.Conf
func FromConfig(cfg config.Conf) Options {
	tf := cfg.Prefix("TASK_")
	return Options{
		TTL: tf.MayDuration("TTL", 24*time.Hour),
	}
}
