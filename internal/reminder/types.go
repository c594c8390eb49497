package reminder

import (
	"errors"
	"time"
)

var (
	// ErrInvalidDelay is returned for a negative delay, including the -1
	// sentinel produced by an unparsable number.
	ErrInvalidDelay = errors.New("invalid reminder delay")
	// ErrStopped is returned when scheduling after Stop or before Start.
	ErrStopped = errors.New("reminder scheduler stopped")
)

// State is the lifecycle of one reminder.
//
//	Requested -> Validated -> Armed -> Fired
//	Requested -> Rejected
//	Armed     -> Aborted   (scheduler stopped before the delay elapsed)
type State int

const (
	Requested State = iota
	Validated
	Armed
	Fired
	Rejected
	Aborted
)

func (s State) String() string {
	switch s {
	case Requested:
		return "requested"
	case Validated:
		return "validated"
	case Armed:
		return "armed"
	case Fired:
		return "fired"
	case Rejected:
		return "rejected"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Lookup resolves a 1-based position to a title. It is only called on the
// goroutine that calls Schedule.
type Lookup interface {
	Search(index int) (string, error)
}

// Sink receives fired reminders. It must be safe for concurrent use.
type Sink interface {
	Reminder(title string)
}

// Config controls notification pacing. NotifyRatePerSec <= 0 disables it.
type Config struct {
	NotifyRatePerSec int
	NotifyBurst      int
}

// Reminder is a snapshot of one scheduled notification. Title is copied at
// validation time; the reminder never looks at the task list again.
type Reminder struct {
	ID      string
	Index   int
	Title   string
	Delay   time.Duration
	State   State
	ArmedAt time.Time
	FireAt  time.Time
}
