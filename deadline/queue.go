// Package deadline provides a scheduled-callback queue driven by the
// render tick. Tools register timers (clipboard clear, auto-lock,
// sequence timeout) here instead of owning timer goroutines; the hub
// calls Tick once per frame and routes fired payloads to their owners.
package deadline

import (
	"container/heap"
	"time"
)

// Handle identifies a scheduled deadline so it can be cancelled.
type Handle int64

// Fired is one expired deadline popped by Tick.
type Fired struct {
	Owner   string
	Payload string
}

type entry struct {
	fireAt    time.Time
	seq       int64 // insertion order, breaks fireAt ties FIFO
	handle    Handle
	owner     string
	payload   string
	cancelled bool
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].fireAt.Equal(h[j].fireAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].fireAt.Before(h[j].fireAt)
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)  { *h = append(*h, x.(*entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Queue is a min-heap of deadlines ordered by fire time. It is only
// touched from the render loop, so it needs no locking.
type Queue struct {
	heap       entryHeap
	byHandle   map[Handle]*entry
	nextSeq    int64
	nextHandle Handle
	now        func() time.Time
}

// NewQueue creates an empty queue on the wall clock.
func NewQueue() *Queue {
	return NewQueueWithClock(time.Now)
}

// NewQueueWithClock creates a queue whose notion of "now" comes from
// the given function, so callers driving a simulated clock can keep
// Schedule and Tick on the same timeline.
func NewQueueWithClock(now func() time.Time) *Queue {
	return &Queue{byHandle: make(map[Handle]*entry), now: now}
}

// Schedule registers a payload to fire after delay on behalf of owner.
func (q *Queue) Schedule(owner string, delay time.Duration, payload string) Handle {
	q.nextHandle++
	q.nextSeq++
	e := &entry{
		fireAt:  q.now().Add(delay),
		seq:     q.nextSeq,
		handle:  q.nextHandle,
		owner:   owner,
		payload: payload,
	}
	heap.Push(&q.heap, e)
	q.byHandle[e.handle] = e
	return e.handle
}

// Cancel drops a scheduled deadline. Cancelling an already-fired or
// unknown handle is a no-op. Rescheduling is cancel-then-schedule.
func (q *Queue) Cancel(h Handle) {
	if e, ok := q.byHandle[h]; ok {
		e.cancelled = true
		delete(q.byHandle, h)
	}
}

// Tick pops and returns every deadline with fireAt <= now, in
// non-decreasing fire order, FIFO among ties. After Tick returns no
// past-due deadline remains in the queue.
func (q *Queue) Tick(now time.Time) []Fired {
	var fired []Fired
	for q.heap.Len() > 0 {
		head := q.heap[0]
		if head.fireAt.After(now) {
			break
		}
		e := heap.Pop(&q.heap).(*entry)
		if e.cancelled {
			continue
		}
		delete(q.byHandle, e.handle)
		fired = append(fired, Fired{Owner: e.owner, Payload: e.payload})
	}
	return fired
}

// Len returns the number of live (non-cancelled) deadlines.
func (q *Queue) Len() int {
	return len(q.byHandle)
}
