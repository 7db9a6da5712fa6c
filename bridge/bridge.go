// Package bridge hands slow tool work (network calls, vault loads) to
// worker goroutines and delivers results back on a later render tick
// through one-shot channels, so the input loop never blocks. Each
// logical slot holds at most one live task; spawning into a busy slot
// supersedes the old task, whose late result is discarded rather than
// delivered.
package bridge

import (
	"sort"
	"sync"
)

// Result is the outcome of one background task. Failures travel the
// same path as successes; they are never silently dropped.
type Result struct {
	Generation uint64
	Payload    string
	Err        error
}

// Work is the function executed off the render thread.
type Work func() (string, error)

// SlotResult pairs a completed result with its slot for batch polling.
type SlotResult struct {
	Slot   string
	Result Result
}

type slot struct {
	gen uint64
	ch  chan Result // replaced on every spawn; nil once delivered
}

// Bridge owns the background task slots for one tool. Spawn may be
// called from the render loop only; Poll is called once per tick.
type Bridge struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// New creates an empty bridge.
func New() *Bridge {
	return &Bridge{slots: make(map[string]*slot)}
}

// Spawn runs work on its own goroutine and returns the task's
// generation. A newer Spawn on the same slot invalidates any in-flight
// task: the stale result is ignored when it eventually completes.
// Cancellation is cooperative-by-replacement, not preemptive.
func (b *Bridge) Spawn(name string, work Work) uint64 {
	b.mu.Lock()
	s, ok := b.slots[name]
	if !ok {
		s = &slot{}
		b.slots[name] = s
	}
	s.gen++
	gen := s.gen
	ch := make(chan Result, 1)
	s.ch = ch
	b.mu.Unlock()

	go func() {
		payload, err := work()
		ch <- Result{Generation: gen, Payload: payload, Err: err}
	}()
	return gen
}

// Poll returns a completed result for the slot exactly once, without
// blocking. Results from superseded generations are never returned.
func (b *Bridge) Poll(name string) (Result, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.slots[name]
	if !ok || s.ch == nil {
		return Result{}, false
	}
	select {
	case r := <-s.ch:
		if r.Generation != s.gen {
			// A stale task raced the swap; drop it, keep waiting.
			return Result{}, false
		}
		s.ch = nil
		return r, true
	default:
		return Result{}, false
	}
}

// PollAll drains every slot with a completed result, in stable slot
// order. Called once per render tick by the hub.
func (b *Bridge) PollAll() []SlotResult {
	b.mu.Lock()
	names := make([]string, 0, len(b.slots))
	for name := range b.slots {
		names = append(names, name)
	}
	b.mu.Unlock()
	sort.Strings(names)

	var out []SlotResult
	for _, name := range names {
		if r, ok := b.Poll(name); ok {
			out = append(out, SlotResult{Slot: name, Result: r})
		}
	}
	return out
}

// Busy reports whether the slot has a task whose result has not been
// delivered yet.
func (b *Bridge) Busy(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.slots[name]
	return ok && s.ch != nil
}
