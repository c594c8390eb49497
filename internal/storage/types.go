package storage

import (
	"errors"
	"fmt"
	"time"
)

var ErrClosed = errors.New("storage closed")

// Config configures storage.
//
// Driver values:
//   - "csv": tasks.csv line format
//   - "sqlite": SQLite database file
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
	Audit       bool
}

// AuditEntry records one mutating command.
// Keep it compact and schema-stable.
type AuditEntry struct {
	At     time.Time `json:"at"`
	Action string    `json:"action"`
	Target string    `json:"target,omitempty"`
	OK     bool      `json:"ok"`
	Error  string    `json:"err,omitempty"`
	TookMS int64     `json:"took_ms"`
}

// WriteFault reports a failed save. Op is "create" when the destination could
// not be opened for writing and "write" when writing the records failed.
type WriteFault struct {
	Op   string
	Path string
	Err  error
}

func (e *WriteFault) Error() string {
	return fmt.Sprintf("save %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteFault) Unwrap() error { return e.Err }

// Fatal reports whether the fault should stop the process.
func (e *WriteFault) Fatal() bool { return e.Op == "create" }

// LoadParseFault reports a persisted record whose completion field is not
// "true" or "false". It is never skipped silently.
type LoadParseFault struct {
	Path  string
	Line  int
	Value string
}

func (e *LoadParseFault) Error() string {
	return fmt.Sprintf("load %s:%d: invalid completed value %q (want true or false)", e.Path, e.Line, e.Value)
}
