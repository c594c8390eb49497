package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"taskline/internal/task"
	logx "taskline/pkg/logx"
)

// csvStore keeps the list in a plain text file, one task per line:
//
//	<title>,<completed>
//
// An empty list is written as a single blank line. There is no header and no
// escaping. When auditing is enabled, entries go to <dir>/<base>.audit.jsonl
// (append-only JSON Lines).
type csvStore struct {
	log  logx.Logger
	path string

	mu        sync.Mutex
	auditFile *os.File
	closed    bool
}

func openCSV(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for csv driver")
	}
	s := &csvStore{log: log, path: path}

	if cfg.Audit {
		base := filepath.Base(path)
		auditPath := filepath.Join(filepath.Dir(path), strings.TrimSuffix(base, filepath.Ext(base))+".audit.jsonl")
		af, err := os.OpenFile(auditPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		s.auditFile = af
	}
	return s, nil
}

func (s *csvStore) LoadTasks(ctx context.Context) ([]task.Task, error) {
	_ = ctx
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Debug("no saved list; starting empty", logx.String("path", s.path))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []task.Task
	for i, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			s.log.Debug("skipping malformed line", logx.String("path", s.path), logx.Int("line", i+1))
			continue
		}
		completed, ok := parseCompleted(parts[1])
		if !ok {
			return nil, &LoadParseFault{Path: s.path, Line: i + 1, Value: parts[1]}
		}
		out = append(out, task.Task{Title: parts[0], Completed: completed})
	}
	return out, nil
}

func parseCompleted(v string) (bool, bool) {
	switch v {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

// SaveTasks rewrites the whole file.
func (s *csvStore) SaveTasks(ctx context.Context, tasks []task.Task) error {
	_ = ctx
	f, err := os.Create(s.path)
	if err != nil {
		return &WriteFault{Op: "create", Path: s.path, Err: err}
	}

	w := bufio.NewWriter(f)
	if len(tasks) == 0 {
		_, err = w.WriteString("\n")
	}
	for _, t := range tasks {
		if _, err = fmt.Fprintf(w, "%s,%t\n", t.Title, t.Completed); err != nil {
			break
		}
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &WriteFault{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

func (s *csvStore) AppendAudit(ctx context.Context, e AuditEntry) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.auditFile == nil {
		return nil
	}
	return json.NewEncoder(s.auditFile).Encode(e)
}

func (s *csvStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.auditFile == nil {
		return nil
	}
	err := s.auditFile.Close()
	s.auditFile = nil
	return err
}
