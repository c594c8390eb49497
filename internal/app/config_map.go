package app

import (
	"context"
	"time"

	"taskline/internal/autosave"
	"taskline/internal/config"
	"taskline/internal/reminder"
	"taskline/internal/storage"
	logx "taskline/pkg/logx"
)

func mapStorageConfig(cfg *config.Config) (storage.Config, error) {
	sc := cfg.Storage
	busy := time.Second
	if sc.BusyTimeout != "" {
		d, err := config.ParseDurationField("storage.busy_timeout", sc.BusyTimeout)
		if err != nil {
			return storage.Config{}, err
		}
		busy = d
	}
	return storage.Config{Driver: sc.Driver, Path: sc.Path, BusyTimeout: busy, Audit: sc.Audit}, nil
}

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapReminderConfig(cfg *config.Config) reminder.Config {
	return reminder.Config{
		NotifyRatePerSec: cfg.Reminder.NotifyRatePerSec,
		NotifyBurst:      cfg.Reminder.NotifyBurst,
	}
}

func mapAutosaveConfig(cfg *config.Config) autosave.Config {
	return autosave.Config{
		Enabled:  cfg.Autosave.Enabled,
		Schedule: cfg.Autosave.Schedule,
		Timezone: cfg.Autosave.Timezone,
	}
}

// validateRuntime checks what the struct tags cannot: autosave must be able
// to start with the schedule and timezone given. It runs at startup and
// before a reloaded config is published.
func validateRuntime(_ context.Context, cfg *config.Config) error {
	return autosave.Validate(mapAutosaveConfig(cfg))
}
