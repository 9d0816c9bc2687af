// Package async bridges worker-goroutine results back to a single owning
// goroutine.
//
// The central type is [Completion], a thread-safe queue of callbacks that
// are executed only when the owner calls [Completion.Drain]. Jobs submitted
// through [Run] execute on an [Executor] (any task runner; [Pool] is the
// default), and their completion listeners always run on the owning
// goroutine during the next Drain, never on the worker.
package async
