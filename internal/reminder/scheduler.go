// Package reminder arms one-shot delayed notifications for tasks.
//
// Each armed reminder runs in its own supervised goroutine and owns only a
// copy of the task title and its delay. There is no cancel API: once armed, a
// reminder fires even if its task is later completed or deleted. Stop aborts
// whatever is still pending; reminders are not awaited on shutdown.
package reminder

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"taskline/internal/eventbus"
	"taskline/internal/runtime/supervisor"
	logx "taskline/pkg/logx"
)

type Scheduler struct {
	log    logx.Logger
	bus    eventbus.Bus
	lookup Lookup
	sink   Sink

	limiter atomic.Pointer[rate.Limiter]

	mu      sync.Mutex
	sup     *supervisor.Supervisor
	pending map[string]Reminder
}

func New(cfg Config, lookup Lookup, sink Sink, log logx.Logger, bus eventbus.Bus) *Scheduler {
	if bus == nil {
		bus = eventbus.Nop{}
	}
	s := &Scheduler{
		log:     log,
		bus:     bus,
		lookup:  lookup,
		sink:    sink,
		pending: map[string]Reminder{},
	}
	s.Apply(cfg)
	return s
}

// Start binds reminder goroutines to ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sup != nil {
		return
	}
	s.sup = supervisor.New(ctx, supervisor.WithLogger(s.log))
}

// Apply swaps the notification rate limit. Reminders already waiting on the
// old limiter keep it.
func (s *Scheduler) Apply(cfg Config) {
	if cfg.NotifyRatePerSec <= 0 {
		s.limiter.Store(nil)
		return
	}
	s.limiter.Store(rate.NewLimiter(rate.Limit(cfg.NotifyRatePerSec), max(1, cfg.NotifyBurst)))
}

// Schedule validates index, snapshots its title and arms a reminder that
// fires after seconds. It never blocks on the reminder.
func (s *Scheduler) Schedule(index, seconds int) (Reminder, error) {
	r := Reminder{Index: index, State: Requested}

	title, err := s.lookup.Search(index)
	if err != nil {
		r.State = Rejected
		s.log.Debug("reminder rejected", logx.Int("index", index), logx.Err(err))
		return r, fmt.Errorf("remind [%d]: %w", index, err)
	}
	r.Title = title
	r.State = Validated

	if seconds < 0 {
		r.State = Rejected
		s.log.Debug("reminder rejected", logx.Int("index", index), logx.Int("seconds", seconds))
		return r, fmt.Errorf("remind [%d] after %ds: %w", index, seconds, ErrInvalidDelay)
	}

	now := time.Now()
	r.ID = uuid.NewString()
	r.Delay = time.Duration(seconds) * time.Second
	r.ArmedAt = now
	r.FireAt = now.Add(r.Delay)
	r.State = Armed

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sup == nil {
		r.State = Rejected
		return r, ErrStopped
	}
	s.pending[r.ID] = r
	armed := r
	s.sup.Go0("reminder."+r.ID, func(ctx context.Context) { s.run(ctx, armed) })

	s.log.Debug("reminder armed",
		logx.String("id", r.ID),
		logx.Int("index", index),
		logx.Duration("delay", r.Delay),
	)
	s.bus.Publish(eventbus.Event{Type: eventbus.TypeReminderArmed, Data: r})
	return r, nil
}

func (s *Scheduler) run(ctx context.Context, r Reminder) {
	timer := time.NewTimer(r.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		s.finish(r, Aborted)
		return
	case <-timer.C:
	}

	if lim := s.limiter.Load(); lim != nil {
		if err := lim.Wait(ctx); err != nil {
			s.finish(r, Aborted)
			return
		}
	}
	s.sink.Reminder(r.Title)
	s.finish(r, Fired)
}

func (s *Scheduler) finish(r Reminder, st State) {
	r.State = st
	s.mu.Lock()
	delete(s.pending, r.ID)
	s.mu.Unlock()

	typ := eventbus.TypeReminderFired
	if st == Aborted {
		typ = eventbus.TypeReminderAborted
	}
	s.log.Debug("reminder "+st.String(), logx.String("id", r.ID), logx.Duration("late", time.Since(r.FireAt)))
	s.bus.Publish(eventbus.Event{Type: typ, Data: r})
}

// Pending reports how many reminders are armed and not yet fired.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Snapshot returns the pending reminders ordered by fire time.
func (s *Scheduler) Snapshot() []Reminder {
	s.mu.Lock()
	out := make([]Reminder, 0, len(s.pending))
	for _, r := range s.pending {
		out = append(out, r)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

// Stop aborts every pending reminder and waits (bounded by ctx) for their
// goroutines to exit. Further Schedule calls fail with ErrStopped.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	sup := s.sup
	s.sup = nil
	n := len(s.pending)
	s.mu.Unlock()
	if sup == nil {
		return nil
	}
	if n > 0 {
		s.log.Info("aborting pending reminders", logx.Int("pending", n))
	}
	return sup.Stop(ctx)
}
