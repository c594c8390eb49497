package repl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"taskline/internal/eventbus"
	"taskline/internal/reminder"
	"taskline/internal/storage"
	"taskline/internal/task"
	logx "taskline/pkg/logx"
)

type command struct {
	usage string
	run   func(ctx context.Context, args []string) (stop bool, err error)
}

// commandOrder is the order commands appear in help.
var commandOrder = []string{"add", "delete", "remind", "complete", "list", "help", "save", "quit"}

func (d *Dispatcher) registry() map[string]command {
	return map[string]command{
		"add":      {usage: "add <task_name>", run: d.cmdAdd},
		"delete":   {usage: "delete <task_number>", run: d.cmdDelete},
		"remind":   {usage: "remind <task_number> <seconds>", run: d.cmdRemind},
		"complete": {usage: "complete <task_number>", run: d.cmdComplete},
		"list":     {usage: "list", run: d.cmdList},
		"help":     {usage: "help", run: d.cmdHelp},
		"save":     {usage: "save", run: d.cmdSave},
		"quit":     {usage: "quit", run: d.cmdQuit},
	}
}

func (d *Dispatcher) cmdAdd(ctx context.Context, args []string) (bool, error) {
	start := time.Now()
	title := strings.Join(args, " ")
	d.con.Println(d.store.Add(title))
	d.audit(ctx, "add", title, start, nil)
	return false, nil
}

func (d *Dispatcher) cmdDelete(ctx context.Context, args []string) (bool, error) {
	start := time.Now()
	idx := arg(args, 0)
	err := d.store.Delete(idx)
	if err != nil {
		d.con.Printf("[ERROR]: [%d] not found.", idx)
	} else {
		d.con.Printf("[DELETE]: [%d] deleted.", idx)
	}
	d.audit(ctx, "delete", strconv.Itoa(idx), start, err)
	return false, nil
}

func (d *Dispatcher) cmdRemind(ctx context.Context, args []string) (bool, error) {
	start := time.Now()
	idx, secs := arg(args, 0), arg(args, 1)
	r, err := d.reminders.Schedule(idx, secs)
	switch {
	case err == nil:
		d.con.Printf("[REMINDER]: Reminder for '%s' is created with a duration of %d seconds.", r.Title, secs)
	case errors.Is(err, task.ErrNotFound):
		d.con.Printf("[ERROR]: [%d] not found.", idx)
	case errors.Is(err, reminder.ErrInvalidDelay):
		d.con.Printf("[ERROR]: [%d] is not a valid duration.", secs)
	default:
		d.log.Error("remind failed", logx.Int("index", idx), logx.Err(err))
		d.con.Printf("[ERROR]: %v.", err)
	}
	d.audit(ctx, "remind", fmt.Sprintf("%d after %ds", idx, secs), start, err)
	return false, nil
}

func (d *Dispatcher) cmdComplete(ctx context.Context, args []string) (bool, error) {
	start := time.Now()
	idx := arg(args, 0)
	msg, err := d.store.Complete(idx)
	if err != nil {
		msg = err.Error()
	}
	d.con.Println(msg)
	d.audit(ctx, "complete", strconv.Itoa(idx), start, err)
	return false, nil
}

func (d *Dispatcher) cmdList(context.Context, []string) (bool, error) {
	d.con.Lines(d.store.List())
	return false, nil
}

func (d *Dispatcher) cmdHelp(context.Context, []string) (bool, error) {
	d.con.Lines(d.helpLines())
	return false, nil
}

func (d *Dispatcher) cmdSave(ctx context.Context, _ []string) (bool, error) {
	msg, err := d.Save(ctx)
	d.con.Println(msg)
	return err != nil, err
}

func (d *Dispatcher) cmdQuit(ctx context.Context, _ []string) (bool, error) {
	msg, err := d.Save(ctx)
	d.con.Println(msg)
	return true, err
}

// Save persists the store and returns the user-facing result line. The error
// is non-nil only for a fatal fault (the destination could not be created);
// write faults are reported in the message and logged. Must run on the loop.
func (d *Dispatcher) Save(ctx context.Context) (string, error) {
	start := time.Now()
	tasks := d.store.Tasks()
	err := d.storage.SaveTasks(ctx, tasks)
	defer func() { d.audit(ctx, "save", strconv.Itoa(len(tasks)), start, err) }()

	var wf *storage.WriteFault
	switch {
	case err == nil:
		d.log.Info("tasks saved", logx.Int("tasks", len(tasks)), logx.Duration("took", time.Since(start)))
		d.bus.Publish(eventbus.Event{Type: eventbus.TypeTasksSaved, Data: len(tasks)})
		if len(tasks) == 0 {
			return "[SAVE]: Saving an empty list.", nil
		}
		return "[SAVE]: List is successfully saved.", nil
	case errors.As(err, &wf) && wf.Fatal():
		d.log.Error("save failed", logx.Err(err))
		return "[CRITICAL]: Could not create file.", err
	default:
		d.log.Error("save failed", logx.Err(err))
		return "[CRITICAL]: Could not write to file.", nil
	}
}
