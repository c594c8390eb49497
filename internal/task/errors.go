package task

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Delete and Search for a position outside [1, Len].
var ErrNotFound = errors.New("task not found")

// OutOfRangeError is returned by Complete for a position outside [1, Len].
// Its message is user-facing.
type OutOfRangeError struct {
	Index int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("[ERROR]: Task [%d] is out of range.", e.Index)
}

// Is lets errors.Is(err, ErrNotFound) match both bound failures.
func (e *OutOfRangeError) Is(target error) bool { return target == ErrNotFound }
