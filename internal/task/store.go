package task

import (
	"fmt"
	"iter"
)

// Task is a title plus a completion flag.
//
// Title must not contain a comma or a newline; the csv persistence format has
// no escaping and such titles corrupt the saved list.
type Task struct {
	Title     string
	Completed bool
}

const (
	listEmpty  = "[LIST]: No items found."
	listHeader = "\t====================: TASK LIST :===================="
	listFooter = "\t====================================================="
)

// Store is an ordered task list backed by an arena of slots.
//
// order maps position-1 to a slot handle. Deleting only rewrites order and
// returns the slot to the free list; the other tasks stay in place in the
// arena. Positions are therefore recomputed on every call and never cached.
type Store struct {
	slots []Task
	order []int
	free  []int
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Len() int { return len(s.order) }

// Add appends a task and returns the confirmation line.
func (s *Store) Add(title string) string {
	s.order = append(s.order, s.alloc(Task{Title: title}))
	return fmt.Sprintf("[ADD]: Task '%s' has been created.", title)
}

func (s *Store) alloc(t Task) int {
	if n := len(s.free); n > 0 {
		h := s.free[n-1]
		s.free = s.free[:n-1]
		s.slots[h] = t
		return h
	}
	s.slots = append(s.slots, t)
	return len(s.slots) - 1
}

// handle resolves a 1-based position.
func (s *Store) handle(index int) (int, bool) {
	if index < 1 || index > len(s.order) {
		return 0, false
	}
	return s.order[index-1], true
}

// Delete removes the task at index; later tasks move up one position.
func (s *Store) Delete(index int) error {
	h, ok := s.handle(index)
	if !ok {
		return ErrNotFound
	}
	s.order = append(s.order[:index-1], s.order[index:]...)
	s.slots[h] = Task{}
	s.free = append(s.free, h)
	return nil
}

// Search returns a copy of the title at index.
func (s *Store) Search(index int) (string, error) {
	h, ok := s.handle(index)
	if !ok {
		return "", ErrNotFound
	}
	return s.slots[h].Title, nil
}

// Complete marks the task at index done. Completing a done task succeeds
// with a different message.
func (s *Store) Complete(index int) (string, error) {
	h, ok := s.handle(index)
	if !ok {
		return "", &OutOfRangeError{Index: index}
	}
	t := &s.slots[h]
	if t.Completed {
		return fmt.Sprintf("[COMPLETE]: Task '%s' has already been completed.", t.Title), nil
	}
	t.Completed = true
	return fmt.Sprintf("[COMPLETE]: Task '%s' is complete.", t.Title), nil
}

// All yields (position, task) in current order. Each range recomputes from
// the live store.
func (s *Store) All() iter.Seq2[int, Task] {
	return func(yield func(int, Task) bool) {
		for i, h := range s.order {
			if !yield(i+1, s.slots[h]) {
				return
			}
		}
	}
}

// List renders the task list as console lines.
func (s *Store) List() []string {
	if s.Len() == 0 {
		return []string{listEmpty}
	}
	lines := make([]string, 0, s.Len()+2)
	lines = append(lines, listHeader)
	for pos, t := range s.All() {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		lines = append(lines, fmt.Sprintf("\t%d: [%s] - %s", pos, mark, t.Title))
	}
	return append(lines, listFooter)
}

// Tasks returns a copy of the list in order.
func (s *Store) Tasks() []Task {
	out := make([]Task, 0, s.Len())
	for _, t := range s.All() {
		out = append(out, t)
	}
	return out
}

// Hydrate replaces the contents with tasks, in order.
func (s *Store) Hydrate(tasks []Task) {
	s.slots = append(make([]Task, 0, len(tasks)), tasks...)
	s.order = make([]int, len(tasks))
	for i := range s.order {
		s.order[i] = i
	}
	s.free = nil
}
