package config

// Config is the on-disk configuration. Every section is optional; missing
// fields take the values from Default().
type Config struct {
	Storage  StorageConfig  `json:"storage"`
	Logging  LoggingConfig  `json:"logging"`
	Reminder ReminderConfig `json:"reminder"`
	Autosave AutosaveConfig `json:"autosave"`
}

// StorageConfig selects the persistence backend for the task list.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./tasks.db", "audit": true }
type StorageConfig struct {
	Driver string `json:"driver" validate:"oneof=csv sqlite"`
	Path   string `json:"path" validate:"required"`
	// BusyTimeout is a Go duration string (sqlite only).
	BusyTimeout string `json:"busy_timeout,omitempty"`
	// Audit appends one record per mutating command.
	Audit bool `json:"audit,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level" validate:"oneof=trace debug info warn warning error"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path" validate:"required_if=Enabled true"`
}

// ReminderConfig controls how fired reminders reach the console.
//
// NotifyRatePerSec spaces out bursts of reminders that fire together.
// Use 0 to disable the limit.
type ReminderConfig struct {
	NotifyRatePerSec int `json:"notify_rate_per_sec" validate:"gte=0"`
	NotifyBurst      int `json:"notify_burst" validate:"gte=0"`
}

// AutosaveConfig controls periodic saves.
//
// Schedule accepts cron ("*/10 * * * *", "@every 5m"), Go durations ("5m")
// or HH:MM intervals ("00:30").
type AutosaveConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty" validate:"required_if=Enabled true"`
	Timezone string `json:"timezone,omitempty"`
}
