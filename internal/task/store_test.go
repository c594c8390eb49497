package task

import (
	"errors"
	"reflect"
	"testing"
)

func newStore(titles ...string) *Store {
	s := NewStore()
	for _, title := range titles {
		s.Add(title)
	}
	return s
}

func titles(s *Store) []string {
	var out []string
	for _, t := range s.All() {
		out = append(out, t.Title)
	}
	return out
}

func TestAddMessage(t *testing.T) {
	t.Parallel()
	s := NewStore()
	if got, want := s.Add("Buy milk"), "[ADD]: Task 'Buy milk' has been created."; got != want {
		t.Fatalf("Add = %q, want %q", got, want)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestDeleteRenumbers(t *testing.T) {
	t.Parallel()
	for i := 1; i <= 4; i++ {
		s := newStore("a", "b", "c", "d")
		before := titles(s)
		if err := s.Delete(i); err != nil {
			t.Fatalf("Delete(%d): %v", i, err)
		}
		if s.Len() != 3 {
			t.Fatalf("Delete(%d): Len = %d, want 3", i, s.Len())
		}
		if i < 4 {
			got, _ := s.Search(i)
			if got != before[i] {
				t.Fatalf("Delete(%d): position %d = %q, want %q", i, i, got, before[i])
			}
		}
	}
}

func TestDeleteReusesSlots(t *testing.T) {
	t.Parallel()
	s := newStore("a", "b", "c")
	if err := s.Delete(2); err != nil {
		t.Fatal(err)
	}
	s.Add("d")
	if got, want := titles(s), []string{"a", "c", "d"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("titles = %v, want %v", got, want)
	}
	if len(s.slots) != 3 {
		t.Fatalf("arena grew to %d slots, want 3", len(s.slots))
	}
}

func TestBoundsFailUniformly(t *testing.T) {
	t.Parallel()
	for _, idx := range []int{-1, 0, 3, 100} {
		s := newStore("a", "b")
		if _, err := s.Search(idx); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Search(%d) err = %v", idx, err)
		}
		if err := s.Delete(idx); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Delete(%d) err = %v", idx, err)
		}
		_, err := s.Complete(idx)
		var oor *OutOfRangeError
		if !errors.As(err, &oor) || oor.Index != idx {
			t.Fatalf("Complete(%d) err = %v", idx, err)
		}
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Complete(%d) error should match ErrNotFound", idx)
		}
		if s.Len() != 2 {
			t.Fatalf("failed op changed Len to %d", s.Len())
		}
	}
}

func TestOutOfRangeMessage(t *testing.T) {
	t.Parallel()
	_, err := NewStore().Complete(7)
	if got, want := err.Error(), "[ERROR]: Task [7] is out of range."; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	t.Parallel()
	s := newStore("Buy milk")
	first, err := s.Complete(1)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Complete(1)
	if err != nil {
		t.Fatal(err)
	}
	if first != "[COMPLETE]: Task 'Buy milk' is complete." {
		t.Fatalf("first = %q", first)
	}
	if second != "[COMPLETE]: Task 'Buy milk' has already been completed." {
		t.Fatalf("second = %q", second)
	}
	if !s.Tasks()[0].Completed {
		t.Fatal("task not completed")
	}
}

func TestList(t *testing.T) {
	t.Parallel()
	if got := NewStore().List(); !reflect.DeepEqual(got, []string{"[LIST]: No items found."}) {
		t.Fatalf("empty List = %q", got)
	}

	s := newStore("Buy milk", "Walk dog")
	if _, err := s.Complete(2); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"\t====================: TASK LIST :====================",
		"\t1: [ ] - Buy milk",
		"\t2: [x] - Walk dog",
		"\t=====================================================",
	}
	if got := s.List(); !reflect.DeepEqual(got, want) {
		t.Fatalf("List = %q, want %q", got, want)
	}
}

func TestAllStopsEarlyAndRestarts(t *testing.T) {
	t.Parallel()
	s := newStore("a", "b", "c")
	n := 0
	for range s.All() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("iterated %d, want 2", n)
	}
	_ = s.Delete(1)
	if got := titles(s); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("re-ranged titles = %v", got)
	}
}

func TestHydrateReplacesContents(t *testing.T) {
	t.Parallel()
	s := newStore("old")
	in := []Task{{Title: "x", Completed: true}, {Title: "y"}}
	s.Hydrate(in)
	if got := s.Tasks(); !reflect.DeepEqual(got, in) {
		t.Fatalf("Tasks = %+v, want %+v", got, in)
	}
	in[0].Title = "mutated"
	if got, _ := s.Search(1); got != "x" {
		t.Fatalf("Hydrate kept caller slice: %q", got)
	}
}
