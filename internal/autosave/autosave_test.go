package autosave

import (
	"context"
	"sync"
	"testing"
	"time"

	logx "taskline/pkg/logx"
)

func TestParseScheduleVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		raw    string
		kind   Kind
		source string
		every  time.Duration
	}{
		{name: "cron", raw: "*/10 * * * *", kind: KindCron, source: "cron"},
		{name: "cron with seconds", raw: "0 */5 * * * *", kind: KindCron, source: "cron"},
		{name: "descriptor", raw: "@hourly", kind: KindCron, source: "cron"},
		{name: "prefixed cron", raw: "cron:0 0 * * *", kind: KindCron, source: "cron"},
		{name: "duration", raw: "5m", kind: KindInterval, source: "duration", every: 5 * time.Minute},
		{name: "prefixed interval", raw: "interval:45s", kind: KindInterval, source: "duration", every: 45 * time.Second},
		{name: "every prefix hhmm", raw: "every:00:15", kind: KindInterval, source: "hhmm", every: 15 * time.Minute},
		{name: "hhmm", raw: "01:30", kind: KindInterval, source: "hhmm", every: 90 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchedule(tt.raw)
			if err != nil {
				t.Fatalf("ParseSchedule(%q) error: %v", tt.raw, err)
			}
			if got.Kind != tt.kind || got.Source != tt.source {
				t.Fatalf("got %+v, want kind %v source %s", got, tt.kind, tt.source)
			}
			if tt.kind == KindInterval && got.Every != tt.every {
				t.Fatalf("Every = %v, want %v", got.Every, tt.every)
			}
		})
	}
}

func TestParseScheduleInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "not-a-schedule", "cron:", "00:00", "00:75", "500ms", "interval:"} {
		if _, err := ParseSchedule(raw); err == nil {
			t.Fatalf("ParseSchedule(%q) expected error", raw)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{name: "disabled", cfg: Config{}, ok: true},
		{name: "disabled ignores schedule", cfg: Config{Schedule: "not a cron"}, ok: true},
		{name: "cron", cfg: Config{Enabled: true, Schedule: "*/10 * * * *"}, ok: true},
		{name: "descriptor", cfg: Config{Enabled: true, Schedule: "@every 5m", Timezone: "UTC"}, ok: true},
		{name: "interval", cfg: Config{Enabled: true, Schedule: "00:15"}, ok: true},
		{name: "cron with wrong field count", cfg: Config{Enabled: true, Schedule: "not a cron"}},
		{name: "unknown descriptor", cfg: Config{Enabled: true, Schedule: "@fortnightly"}},
		{name: "cron field out of range", cfg: Config{Enabled: true, Schedule: "0 25 * * *"}},
		{name: "bad timezone", cfg: Config{Enabled: true, Schedule: "5m", Timezone: "Mars/Olympus"}},
		{name: "bad timezone while disabled", cfg: Config{Timezone: "Mars/Olympus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if tt.ok && err != nil {
				t.Fatalf("Validate(%+v) = %v", tt.cfg, err)
			}
			if !tt.ok && err == nil {
				t.Fatalf("Validate(%+v) expected error", tt.cfg)
			}
		})
	}
}

// Every config Validate accepts must also start.
func TestValidatedConfigStarts(t *testing.T) {
	t.Parallel()
	for _, sched := range []string{"*/10 * * * *", "0 */5 * * * *", "@hourly", "cron:@daily", "every:1h"} {
		cfg := Config{Enabled: true, Schedule: sched, Timezone: "UTC"}
		if err := Validate(cfg); err != nil {
			t.Fatalf("Validate(%q): %v", sched, err)
		}
		s := New(cfg, &heldQueue{}, nil, logx.Nop(), nil)
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("Start(%q): %v", sched, err)
		}
		s.Stop(context.Background())
	}
}

// loopStub runs submitted jobs on its own goroutine, like the command loop.
type loopStub struct {
	jobs chan func()
}

func newLoopStub(t *testing.T) *loopStub {
	l := &loopStub{jobs: make(chan func(), 4)}
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	go func() {
		for {
			select {
			case fn := <-l.jobs:
				fn()
			case <-done:
				return
			}
		}
	}()
	return l
}

func (l *loopStub) Submit(fn func()) bool {
	select {
	case l.jobs <- fn:
		return true
	default:
		return false
	}
}

type heldQueue struct {
	mu   sync.Mutex
	jobs []func()
}

func (q *heldQueue) Submit(fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, fn)
	return true
}

func TestIntervalTriggersSave(t *testing.T) {
	t.Parallel()
	saved := make(chan struct{}, 8)
	save := func(context.Context) (string, error) {
		saved <- struct{}{}
		return "[SAVE]: List is successfully saved.", nil
	}
	s := New(Config{Enabled: true, Schedule: "every:1s"}, newLoopStub(t), save, logx.Nop(), nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop(context.Background())

	select {
	case <-saved:
	case <-time.After(3 * time.Second):
		t.Fatal("autosave did not run")
	}
}

func TestDisabledDoesNotStart(t *testing.T) {
	t.Parallel()
	s := New(Config{Schedule: "garbage"}, &heldQueue{}, nil, logx.Nop(), nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.c != nil {
		t.Fatal("cron started while disabled")
	}
	if err := s.Apply(Config{Enabled: true, Schedule: "garbage"}); err == nil {
		t.Fatal("Apply with a bad schedule should fail")
	}
	if err := s.Apply(Config{Enabled: true, Schedule: "@hourly", Timezone: "UTC"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if s.c == nil {
		t.Fatal("cron not started after enabling")
	}
	s.Stop(context.Background())
}

func TestTriggerSkipsWhileQueued(t *testing.T) {
	t.Parallel()
	q := &heldQueue{}
	calls := 0
	save := func(context.Context) (string, error) {
		calls++
		return "[SAVE]: Saving an empty list.", nil
	}
	s := New(Config{}, q, save, logx.Nop(), nil)
	s.ctx = context.Background()

	s.trigger()
	s.trigger()
	if len(q.jobs) != 1 {
		t.Fatalf("queued jobs = %d, want 1", len(q.jobs))
	}
	q.jobs[0]()
	s.trigger()
	if len(q.jobs) != 2 || calls != 1 {
		t.Fatalf("jobs = %d, calls = %d", len(q.jobs), calls)
	}
	if st := s.Stats(); st.Skipped != 1 || st.Runs != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestFailedSaveCounted(t *testing.T) {
	t.Parallel()
	q := &heldQueue{}
	save := func(context.Context) (string, error) { return "[CRITICAL]: Could not write to file.", nil }
	s := New(Config{}, q, save, logx.Nop(), nil)
	s.ctx = context.Background()
	s.trigger()
	q.jobs[0]()
	if st := s.Stats(); st.Failed != 1 {
		t.Fatalf("stats = %+v", st)
	}
}
