package async

import (
	"fmt"
	"log/slog"
	"sync"
)

// Executor runs submitted jobs off the owning goroutine.
// Pool implements Executor; any task runner with fire-and-forget
// submission can be used instead.
type Executor interface {
	Submit(fn func())
}

// Listener receives the outcome of a job started with Run.
// Both methods are invoked on the owning goroutine during Drain.
type Listener[T any] interface {
	// Completed is called with the job's result when it finished
	// normally.
	Completed(result T)

	// Failed is called with the job's error (or recovered panic) when it
	// did not finish normally.
	Failed(err error)
}

// Completion is a hand-off queue for callbacks that must run on the owning
// goroutine.
//
// Post is safe to call from any goroutine. Drain must only be called from
// the owning goroutine. Completion must not be copied after first use.
type Completion struct {
	mu    sync.Mutex
	queue []func()

	// logFn returns the logger used for callback panics. Stored as a
	// function so a logger swapped in later (texload.SetLogger) is
	// picked up without re-wiring.
	logFn func() *slog.Logger
}

// NewCompletion creates an empty completion queue. logFn supplies the
// logger for reporting callback panics; nil disables logging.
func NewCompletion(logFn func() *slog.Logger) *Completion {
	return &Completion{logFn: logFn}
}

// Post enqueues a callback for execution by a future Drain.
// Post panics when job is nil.
func (c *Completion) Post(job func()) {
	if job == nil {
		panic("async: nil job")
	}
	c.mu.Lock()
	c.queue = append(c.queue, job)
	c.mu.Unlock()
}

// Drain removes and runs queued callbacks until the queue is observed
// empty. Callbacks enqueued while Drain is running are executed within the
// same call.
//
// A callback that panics is recovered and logged; subsequent callbacks
// still run. Drain must only be called from the owning goroutine.
func (c *Completion) Drain() {
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.mu.Unlock()
			return
		}
		job := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		c.run(job)
	}
}

// Pending returns the number of callbacks currently queued.
func (c *Completion) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Completion) run(job func()) {
	defer func() {
		if r := recover(); r != nil {
			if c.logFn != nil {
				if l := c.logFn(); l != nil {
					l.Error("panic in queued completion job", "panic", r)
				}
			}
		}
	}()
	job()
}

// Run submits job to the executor and arranges for listener to be invoked
// on the owning goroutine once the job has finished.
//
// The job runs on a worker; its result (or error, or recovered panic) is
// captured and a callback invoking listener.Completed or listener.Failed is
// posted to c. The listener therefore never observes a partially completed
// job and never runs concurrently with the owner.
func Run[T any](c *Completion, exec Executor, job func() (T, error), listener Listener[T]) {
	if exec == nil {
		panic("async: nil executor")
	}
	if job == nil {
		panic("async: nil job")
	}
	if listener == nil {
		panic("async: nil listener")
	}
	exec.Submit(func() {
		result, err := runProtected(job)
		c.Post(func() {
			if err != nil {
				listener.Failed(err)
			} else {
				listener.Completed(result)
			}
		})
	})
}

// runProtected executes job, converting a panic into an error so a
// misbehaving decoder cannot take down a pool worker.
func runProtected[T any](job func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("async: job panicked: %v", r)
		}
	}()
	return job()
}
