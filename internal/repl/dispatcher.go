// Package repl is the interactive command loop.
//
// The dispatcher is the only goroutine that touches the task store. Input is
// read by a helper goroutine and handed over line by line; background
// components that need the store (autosave) submit jobs that run on the loop
// between commands.
package repl

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"taskline/internal/console"
	"taskline/internal/eventbus"
	"taskline/internal/reminder"
	"taskline/internal/storage"
	"taskline/internal/task"
	logx "taskline/pkg/logx"
)

const jobQueueCap = 64

// Reminders arms delayed notifications.
type Reminders interface {
	Schedule(index, seconds int) (reminder.Reminder, error)
}

type Options struct {
	Store     *task.Store
	Reminders Reminders
	Storage   storage.Store
	Console   *console.Console
	Log       logx.Logger
	Bus       eventbus.Bus
}

type Dispatcher struct {
	store     *task.Store
	reminders Reminders
	storage   storage.Store
	con       *console.Console
	log       logx.Logger
	bus       eventbus.Bus

	commands map[string]command
	jobs     chan func()
}

func New(opts Options) *Dispatcher {
	log := opts.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	bus := opts.Bus
	if bus == nil {
		bus = eventbus.Nop{}
	}
	d := &Dispatcher{
		store:     opts.Store,
		reminders: opts.Reminders,
		storage:   opts.Storage,
		con:       opts.Console,
		log:       log,
		bus:       bus,
		jobs:      make(chan func(), jobQueueCap),
	}
	d.commands = d.registry()
	return d
}

// Submit queues fn to run on the command loop. It never blocks; false means
// the queue is full and fn was dropped.
func (d *Dispatcher) Submit(fn func()) bool {
	if fn == nil {
		return false
	}
	select {
	case d.jobs <- fn:
		return true
	default:
		return false
	}
}

// Run prompts, reads and executes commands from in until quit, end of input
// or ctx cancellation. End of input saves like quit does. Cancellation stops
// without saving. A non-nil error means the session ended on a fatal fault.
func (d *Dispatcher) Run(ctx context.Context, in io.Reader) error {
	done := make(chan struct{})
	defer close(done)
	lines, readErr := readLines(in, done)

	d.log.Info("command loop started")
	d.con.Prompt()
	for {
		select {
		case <-ctx.Done():
			d.log.Info("command loop canceled", logx.Err(context.Cause(ctx)))
			return nil

		case job := <-d.jobs:
			job()

		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					d.log.Warn("input read failed", logx.Err(err))
				}
				d.log.Info("end of input")
				_, err := d.Exec(ctx, "quit")
				return err
			}
			stop, err := d.Exec(ctx, line)
			if err != nil || stop {
				return err
			}
			d.con.Prompt()
		}
	}
}

// readLines feeds in to the loop one line at a time. The goroutine may stay
// blocked in Read after the loop ends; done releases it from a pending send.
func readLines(in io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		r := bufio.NewReader(in)
		for {
			line, err := r.ReadString('\n')
			if line != "" || err == nil {
				select {
				case lines <- line:
				case <-done:
					return
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				errc <- err
				return
			}
		}
	}()
	return lines, errc
}

// Exec runs one input line. stop reports that the loop should end.
func (d *Dispatcher) Exec(ctx context.Context, line string) (stop bool, err error) {
	fields := strings.Fields(line)
	name := ""
	if len(fields) > 0 {
		name = fields[0]
	}
	cmd, ok := d.commands[name]
	if !ok {
		d.con.Printf("[INVALID INPUT]: %s. Type 'help' to see available commands.", name)
		return false, nil
	}
	d.log.Debug("command", logx.String("cmd", name), logx.Int("args", len(fields)-1))
	return cmd.run(ctx, fields[1:])
}

// audit records a mutating command. Failures are logged and otherwise ignored.
func (d *Dispatcher) audit(ctx context.Context, action, target string, start time.Time, cmdErr error) {
	e := storage.AuditEntry{
		At:     start,
		Action: action,
		Target: target,
		OK:     cmdErr == nil,
		TookMS: time.Since(start).Milliseconds(),
	}
	if cmdErr != nil {
		e.Error = cmdErr.Error()
	}
	if err := d.storage.AppendAudit(ctx, e); err != nil {
		d.log.Warn("audit append failed", logx.String("action", action), logx.Err(err))
	}
}
