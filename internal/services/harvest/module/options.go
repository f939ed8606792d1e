package module

import (
	"time"

	"slotwatch/internal/platform/config"
)

// Options holds configuration settings for the harvest module
type Options struct {
	RunTimeout     time.Duration
	NavTimeout     time.Duration
	LegacyParallel int
	SPAParallel    int
	MinBlocks      int
	LegacyInterval int
	NextDayTokens  []string
	LegacyExclude  []string
	TaskTTL        time.Duration
}

// FromConfig reads configuration settings from the config.Conf
func FromConfig(cfg config.Conf) Options {
	return Options{
		RunTimeout:     cfg.MayDuration("RUN_TIMEOUT", 600*time.Second),
		NavTimeout:     cfg.MayDuration("NAV_TIMEOUT", 60*time.Second),
		LegacyParallel: cfg.MayInt("LEGACY_PARALLEL", 3),
		SPAParallel:    cfg.MayInt("SPA_PARALLEL", 4),
		MinBlocks:      cfg.MayInt("MIN_BLOCKS", 1),
		LegacyInterval: cfg.MayInt("LEGACY_INTERVAL", 5),
		NextDayTokens:  cfg.MayCSV("NEXT_DAY_TOKENS", []string{"翌日"}),
		LegacyExclude:  cfg.MayCSV("LEGACY_EXCLUDE", nil),
		TaskTTL:        cfg.MayDuration("TASK_TTL", 24*time.Hour),
	}
}
