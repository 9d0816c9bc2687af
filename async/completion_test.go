package async

import (
	"errors"
	"log/slog"
	"sync"
	"testing"
)

// inlineExecutor runs submitted jobs synchronously on the caller.
type inlineExecutor struct{}

func (inlineExecutor) Submit(fn func()) { fn() }

// recordListener captures the outcome delivered by Run.
type recordListener[T any] struct {
	completed []T
	failed    []error
}

func (l *recordListener[T]) Completed(result T) { l.completed = append(l.completed, result) }
func (l *recordListener[T]) Failed(err error)   { l.failed = append(l.failed, err) }

func TestCompletionDrainRunsInOrder(t *testing.T) {
	c := NewCompletion(nil)

	var got []int
	for i := range 5 {
		i := i
		c.Post(func() { got = append(got, i) })
	}

	if pending := c.Pending(); pending != 5 {
		t.Fatalf("Pending() = %d, want 5", pending)
	}

	c.Drain()

	if len(got) != 5 {
		t.Fatalf("drained %d callbacks, want 5", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Errorf("callback order[%d] = %d, want %d", i, v, i)
		}
	}
	if pending := c.Pending(); pending != 0 {
		t.Errorf("Pending() after drain = %d, want 0", pending)
	}
}

func TestCompletionDrainPicksUpNestedPosts(t *testing.T) {
	c := NewCompletion(nil)

	var order []string
	c.Post(func() {
		order = append(order, "outer")
		c.Post(func() { order = append(order, "inner") })
	})

	c.Drain()

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Fatalf("order = %v, want [outer inner]", order)
	}
}

func TestCompletionDrainSurvivesPanic(t *testing.T) {
	c := NewCompletion(func() *slog.Logger { return slog.Default() })

	ran := false
	c.Post(func() { panic("boom") })
	c.Post(func() { ran = true })

	c.Drain()

	if !ran {
		t.Error("callback after panicking one did not run")
	}
}

func TestCompletionPostNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Post(nil) did not panic")
		}
	}()
	NewCompletion(nil).Post(nil)
}

func TestCompletionPostConcurrent(t *testing.T) {
	c := NewCompletion(nil)

	const goroutines = 16
	const perGoroutine = 100

	var wg sync.WaitGroup
	var mu sync.Mutex
	count := 0

	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range perGoroutine {
				c.Post(func() {
					mu.Lock()
					count++
					mu.Unlock()
				})
			}
		}()
	}
	wg.Wait()

	c.Drain()

	if count != goroutines*perGoroutine {
		t.Errorf("ran %d callbacks, want %d", count, goroutines*perGoroutine)
	}
}

func TestRunDeliversResult(t *testing.T) {
	c := NewCompletion(nil)
	l := &recordListener[int]{}

	Run(c, inlineExecutor{}, func() (int, error) { return 42, nil }, l)
	c.Drain()

	if len(l.completed) != 1 || l.completed[0] != 42 {
		t.Errorf("completed = %v, want [42]", l.completed)
	}
	if len(l.failed) != 0 {
		t.Errorf("failed = %v, want none", l.failed)
	}
}

func TestRunDeliversError(t *testing.T) {
	c := NewCompletion(nil)
	l := &recordListener[int]{}
	wantErr := errors.New("open failed")

	Run(c, inlineExecutor{}, func() (int, error) { return 0, wantErr }, l)
	c.Drain()

	if len(l.failed) != 1 || !errors.Is(l.failed[0], wantErr) {
		t.Errorf("failed = %v, want [%v]", l.failed, wantErr)
	}
	if len(l.completed) != 0 {
		t.Errorf("completed = %v, want none", l.completed)
	}
}

func TestRunConvertsPanicToError(t *testing.T) {
	c := NewCompletion(nil)
	l := &recordListener[string]{}

	Run(c, inlineExecutor{}, func() (string, error) { panic("decoder bug") }, l)
	c.Drain()

	if len(l.failed) != 1 {
		t.Fatalf("failed = %v, want one error", l.failed)
	}
	if l.failed[0] == nil {
		t.Error("panic was not converted to an error")
	}
}

func TestRunListenerNotCalledBeforeDrain(t *testing.T) {
	c := NewCompletion(nil)
	l := &recordListener[int]{}

	Run(c, inlineExecutor{}, func() (int, error) { return 1, nil }, l)

	if len(l.completed) != 0 || len(l.failed) != 0 {
		t.Error("listener invoked before Drain")
	}
	if c.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", c.Pending())
	}
}
