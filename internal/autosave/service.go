// Package autosave periodically persists the task list.
//
// The service never touches the store. Each trigger submits a save job to the
// command loop, which runs it between commands. Results are logged, not
// printed, so the interactive output is unchanged.
package autosave

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"taskline/internal/eventbus"
	logx "taskline/pkg/logx"
)

type Config struct {
	Enabled  bool
	Schedule string
	Timezone string
}

// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate reports whether cfg would start. The timezone is always checked;
// the schedule only when autosave is enabled.
func Validate(cfg Config) error {
	if _, err := loadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("autosave.timezone: %w", err)
	}
	if !cfg.Enabled {
		return nil
	}
	sc, err := ParseSchedule(cfg.Schedule)
	if err != nil {
		return fmt.Errorf("autosave.schedule: %w", err)
	}
	if sc.Kind == KindCron {
		if _, err := cronParser.Parse(sc.Cron); err != nil {
			return fmt.Errorf("autosave.schedule: %w", err)
		}
	}
	return nil
}

// Submitter runs jobs on the goroutine that owns the store.
type Submitter interface {
	Submit(fn func()) bool
}

// SaveFunc persists the store and returns the user-facing result line.
type SaveFunc func(ctx context.Context) (string, error)

type Stats struct {
	Runs    uint64
	Skipped uint64
	Failed  uint64
}

type Service struct {
	log    logx.Logger
	bus    eventbus.Bus
	submit Submitter
	save   SaveFunc

	mu  sync.Mutex
	cfg Config
	ctx context.Context
	c   *cron.Cron

	queued  atomic.Bool
	runs    atomic.Uint64
	skipped atomic.Uint64
	failed  atomic.Uint64
}

func New(cfg Config, submit Submitter, save SaveFunc, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if bus == nil {
		bus = eventbus.Nop{}
	}
	return &Service{
		cfg:    cfg,
		log:    log,
		bus:    bus,
		submit: submit,
		save:   save,
	}
}

// Start begins triggering when autosave is enabled. ctx is handed to save jobs.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
	return s.startLocked()
}

// Apply swaps the configuration, restarting the trigger if it changed.
func (s *Service) Apply(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg == s.cfg {
		return nil
	}
	s.cfg = cfg
	if s.ctx == nil {
		return nil
	}
	s.stopLocked(context.Background())
	return s.startLocked()
}

func (s *Service) startLocked() error {
	if s.c != nil || !s.cfg.Enabled {
		return nil
	}
	sc, err := ParseSchedule(s.cfg.Schedule)
	if err != nil {
		return err
	}
	loc, err := loadLocation(s.cfg.Timezone)
	if err != nil {
		return err
	}

	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(loc))
	switch sc.Kind {
	case KindCron:
		if _, err := c.AddFunc(sc.Cron, s.trigger); err != nil {
			return err
		}
	case KindInterval:
		c.Schedule(cron.Every(sc.Every), cron.FuncJob(s.trigger))
	}
	c.Start()
	s.c = c
	s.log.Info("autosave started", logx.String("schedule", sc.String()), logx.String("tz", loc.String()))
	return nil
}

// Stop halts triggering. A job already submitted still runs on the loop.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(ctx)
}

func (s *Service) stopLocked(ctx context.Context) {
	if s.c == nil {
		return
	}
	select {
	case <-s.c.Stop().Done():
	case <-ctx.Done():
	}
	s.c = nil
	s.log.Info("autosave stopped", logx.Int64("runs", int64(s.runs.Load())))
}

func (s *Service) Stats() Stats {
	return Stats{Runs: s.runs.Load(), Skipped: s.skipped.Load(), Failed: s.failed.Load()}
}

// trigger queues one save. A trigger that fires while the previous job is
// still waiting in the queue is skipped.
func (s *Service) trigger() {
	if !s.queued.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		s.log.Debug("autosave skipped; previous run still queued")
		return
	}
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	ok := s.submit.Submit(func() {
		s.queued.Store(false)
		start := time.Now()
		msg, err := s.save(ctx)
		s.runs.Add(1)
		if err != nil || strings.HasPrefix(msg, "[CRITICAL]") {
			s.failed.Add(1)
			s.log.Error("autosave failed", logx.String("result", msg), logx.Err(err))
		} else {
			s.log.Debug("autosave done", logx.String("result", msg), logx.Duration("took", time.Since(start)))
		}
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeAutosaveRun, Data: msg})
	})
	if !ok {
		s.queued.Store(false)
		s.skipped.Add(1)
		s.log.Warn("autosave dropped; command queue full")
	}
}

func loadLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}
