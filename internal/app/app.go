// Package app wires taskline together: config, logging, storage, the task
// store, reminders, autosave and the command loop.
package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"taskline/internal/autosave"
	"taskline/internal/config"
	"taskline/internal/console"
	"taskline/internal/eventbus"
	"taskline/internal/reminder"
	"taskline/internal/repl"
	"taskline/internal/runtime/supervisor"
	"taskline/internal/storage"
	"taskline/internal/task"
	logx "taskline/pkg/logx"
)

type Options struct {
	// ConfigPath is optional; empty means built-in defaults and no watcher.
	ConfigPath string
	In         io.Reader
	Out        io.Writer
}

type App struct {
	in io.Reader

	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store

	tasks     *task.Store
	reminders *reminder.Scheduler
	autosave  *autosave.Service
	repl      *repl.Dispatcher
}

// New loads config, opens storage and hydrates the task list. A malformed
// persisted record fails here.
func New(opts Options) (*App, error) {
	cfgm := config.NewConfigManager(opts.ConfigPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := validateRuntime(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logs, log := logx.New(mapLogConfig(cfg))
	appLog := log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	cfgm.SetValidator(validateRuntime)

	bus := eventbus.New()

	sc, err := mapStorageConfig(cfg)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}
	st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logs.Close()
		return nil, err
	}

	tasks := task.NewStore()
	loaded, err := st.LoadTasks(context.Background())
	if err != nil {
		_ = st.Close()
		_ = logs.Close()
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	tasks.Hydrate(loaded)
	appLog.Info("tasks loaded",
		logx.String("driver", sc.Driver),
		logx.String("path", sc.Path),
		logx.Int("tasks", tasks.Len()),
	)
	bus.Publish(eventbus.Event{Type: eventbus.TypeTasksLoaded, Data: tasks.Len()})

	con := console.New(opts.Out)
	rem := reminder.New(mapReminderConfig(cfg), tasks, con, log.With(logx.String("comp", "reminder")), bus)
	d := repl.New(repl.Options{
		Store:     tasks,
		Reminders: rem,
		Storage:   st,
		Console:   con,
		Log:       log.With(logx.String("comp", "repl")),
		Bus:       bus,
	})
	as := autosave.New(mapAutosaveConfig(cfg), d, d.Save, log.With(logx.String("comp", "autosave")), bus)

	return &App{
		in:        opts.In,
		cfgm:      cfgm,
		log:       appLog,
		logs:      logs,
		bus:       bus,
		store:     st,
		tasks:     tasks,
		reminders: rem,
		autosave:  as,
		repl:      d,
	}, nil
}

// Run starts the background components and blocks in the command loop until
// quit, end of input or ctx cancellation.
func (a *App) Run(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))))
	runCtx := a.sup.Context()

	a.reminders.Start(runCtx)
	if err := a.autosave.Start(runCtx); err != nil {
		return fmt.Errorf("autosave: %w", err)
	}

	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
	})
	a.sup.GoRestart("config.watch", a.cfgm.Watch, time.Second, 30*time.Second)

	a.log.Info("app started", logx.String("config", a.cfgm.Path()))
	return a.repl.Run(runCtx, a.in)
}

// reloadLoop applies hot-reloadable sections. Storage changes need a restart.
func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// keep only the latest of a burst
			for drained := false; !drained; {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					drained = true
				}
			}
			a.apply(lastApplied, newCfg)
			lastApplied = newCfg
		}
	}
}

func (a *App) apply(oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	for _, s := range sections {
		if s == "storage" {
			a.log.Warn("storage config changed; restart required for changes to take effect")
		}
	}

	a.logs.Apply(mapLogConfig(newCfg))
	a.reminders.Apply(mapReminderConfig(newCfg))
	if err := a.autosave.Apply(mapAutosaveConfig(newCfg)); err != nil {
		a.log.Warn("autosave config rejected; autosave stopped", logx.Err(err))
	}

	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
	a.bus.Publish(eventbus.Event{Type: eventbus.TypeConfigApplied, Data: sections})
}

// Stop aborts pending reminders, stops background loops and closes storage.
// It does not save; the command loop saves on quit.
func (a *App) Stop(ctx context.Context, reason StopReason) error {
	a.log.Info("stopping", logx.String("reason", string(reason)), logx.Int("pending_reminders", a.reminders.Pending()))

	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()
		if err := fn(stepCtx); err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	}

	step("autosave", 2*time.Second, func(c context.Context) error { a.autosave.Stop(c); return nil })
	step("reminders", 2*time.Second, a.reminders.Stop)
	if a.sup != nil {
		step("supervisor", 2*time.Second, a.sup.Stop)
	}
	step("storage", time.Second, func(context.Context) error { return a.store.Close() })

	a.log.Info("stopped", logx.String("reason", string(reason)))
	return a.logs.Close()
}
