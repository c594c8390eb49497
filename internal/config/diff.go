package config

import (
	"strings"

	logx "taskline/pkg/logx"
)

// SummarizeConfigChange returns a compact list of changed sections and safe
// structured fields for logging.
//
// Storage changes are reported but only take effect after a restart.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 12)

	if oldCfg.Storage != newCfg.Storage {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", newCfg.Storage.Driver),
			logx.String("storage.path", strings.TrimSpace(newCfg.Storage.Path)),
			logx.Bool("storage.audit", newCfg.Storage.Audit),
			logx.Bool("storage.restart_required", true),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if oldCfg.Reminder != newCfg.Reminder {
		changed = append(changed, "reminder")
		attrs = append(attrs,
			logx.Int("reminder.notify_rate_per_sec", newCfg.Reminder.NotifyRatePerSec),
			logx.Int("reminder.notify_burst", newCfg.Reminder.NotifyBurst),
		)
	}

	if oldCfg.Autosave != newCfg.Autosave {
		changed = append(changed, "autosave")
		attrs = append(attrs,
			logx.Bool("autosave.enabled", newCfg.Autosave.Enabled),
			logx.String("autosave.schedule", strings.TrimSpace(newCfg.Autosave.Schedule)),
			logx.String("autosave.timezone", strings.TrimSpace(newCfg.Autosave.Timezone)),
		)
	}

	return changed, attrs
}
