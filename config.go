package texload

import (
	"github.com/gogpu/texload/async"
	"github.com/gogpu/texload/decoder"
)

// Default sweep parameters.
const (
	// DefaultSweepTimeout is the idle time, in frames, after which a
	// resident texture is evicted (10 s at 60 Hz).
	DefaultSweepTimeout = 60 * 10

	// DefaultSweepBudget is the maximum number of active textures
	// examined per Tick.
	DefaultSweepBudget = 10
)

// Config holds configuration for a Manager.
type Config struct {
	// SweepTimeout is the idle eviction threshold in frames.
	// Default: DefaultSweepTimeout.
	SweepTimeout int

	// SweepBudget is the maximum number of active textures examined per
	// Tick. Default: DefaultSweepBudget.
	SweepBudget int

	// Workers is the size of the worker pool the Manager creates when
	// Executor is nil. Default: 1, which serializes decodes the way a
	// single background loader thread would.
	Workers int

	// Executor runs open/decode jobs. When nil the Manager creates and
	// owns an async.Pool with Workers workers and closes it on Close.
	Executor async.Executor

	// Registry resolves keys to decoder factories.
	// When nil, decoder.Default is used.
	Registry *decoder.Registry

	// Source maps keys to byte streams. When nil, decoder.FileSource is
	// used.
	Source decoder.Source
}

// DefaultConfig returns the default Manager configuration.
func DefaultConfig() Config {
	return Config{
		SweepTimeout: DefaultSweepTimeout,
		SweepBudget:  DefaultSweepBudget,
		Workers:      1,
	}
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.SweepTimeout <= 0 {
		c.SweepTimeout = DefaultSweepTimeout
	}
	if c.SweepBudget <= 0 {
		c.SweepBudget = DefaultSweepBudget
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Registry == nil {
		c.Registry = decoder.Default
	}
	if c.Source == nil {
		c.Source = decoder.FileSource
	}
	return c
}
