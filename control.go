package chapterwise

import (
	"context"
	"sync/atomic"
	"time"
)

// pausePollInterval is how often a paused pipeline re-checks its flags.
// Translation calls take seconds, so polling overhead is negligible.
const pausePollInterval = 100 * time.Millisecond

// Flag is an externally owned boolean observed by the pipeline between
// discrete units of work. The pipeline never resets a flag; the caller
// clears them before starting a new run.
type Flag struct {
	v atomic.Bool
}

// Set raises the flag.
func (f *Flag) Set() { f.v.Store(true) }

// Clear lowers the flag.
func (f *Flag) Clear() { f.v.Store(false) }

// IsSet reports whether the flag is raised.
func (f *Flag) IsSet() bool { return f.v.Load() }

// Control holds the cancellation and pause flags of a translation run.
// A nil *Control means neither signal is ever raised.
type Control struct {
	Cancel Flag
	Pause  Flag
}

// cancelled reports whether the run should stop, either by the cancel flag
// or by context cancellation.
func (c *Control) cancelled(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return c != nil && c.Cancel.IsSet()
}

// waitWhilePaused blocks while the pause flag is raised, polling at a short
// interval. It returns true when the run was cancelled during the pause, so
// a cancel issued mid-pause is honoured promptly.
func (c *Control) waitWhilePaused(ctx context.Context) (cancelled bool) {
	if c == nil {
		return ctx.Err() != nil
	}
	for c.Pause.IsSet() {
		if c.cancelled(ctx) {
			return true
		}
		select {
		case <-ctx.Done():
			return true
		case <-time.After(pausePollInterval):
		}
	}
	return c.cancelled(ctx)
}
