package storage

import (
	"context"
	"errors"
	"strings"

	"taskline/internal/task"
	logx "taskline/pkg/logx"
)

// Store is the persistence API used by the command loop.
type Store interface {
	// LoadTasks returns the persisted list. A missing file or database
	// yields an empty list and no error.
	LoadTasks(ctx context.Context) ([]task.Task, error)
	// SaveTasks replaces the persisted list with tasks.
	SaveTasks(ctx context.Context, tasks []task.Task) error
	// AppendAudit records a command. It is a no-op when auditing is off.
	AppendAudit(ctx context.Context, e AuditEntry) error
	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "", "csv":
		return openCSV(cfg, log)
	case "sqlite":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
