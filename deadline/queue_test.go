package deadline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock pins the queue's notion of "now" so delays are exact.
func fixedClock(q *Queue, at time.Time) {
	q.now = func() time.Time { return at }
}

func TestTickDeliversInFireOrder(t *testing.T) {
	q := NewQueue()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(q, base)

	q.Schedule("vault", 30*time.Second, "clipclear")
	q.Schedule("hub", 600*time.Millisecond, "seq:1")
	q.Schedule("vault", 15*time.Minute, "autolock")

	fired := q.Tick(base.Add(time.Hour))

	require.Len(t, fired, 3)
	assert.Equal(t, "seq:1", fired[0].Payload)
	assert.Equal(t, "clipclear", fired[1].Payload)
	assert.Equal(t, "autolock", fired[2].Payload)
	assert.Zero(t, q.Len())
}

func TestTiesFireFIFO(t *testing.T) {
	q := NewQueue()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(q, base)

	q.Schedule("a", time.Second, "first")
	q.Schedule("b", time.Second, "second")
	q.Schedule("c", time.Second, "third")

	fired := q.Tick(base.Add(2 * time.Second))

	require.Len(t, fired, 3)
	assert.Equal(t, []string{"first", "second", "third"},
		[]string{fired[0].Payload, fired[1].Payload, fired[2].Payload})
}

func TestTickLeavesFutureDeadlines(t *testing.T) {
	q := NewQueue()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(q, base)

	q.Schedule("hub", time.Second, "soon")
	q.Schedule("hub", time.Minute, "later")

	fired := q.Tick(base.Add(5 * time.Second))
	require.Len(t, fired, 1)
	assert.Equal(t, "soon", fired[0].Payload)
	assert.Equal(t, 1, q.Len())

	fired = q.Tick(base.Add(2 * time.Minute))
	require.Len(t, fired, 1)
	assert.Equal(t, "later", fired[0].Payload)
}

func TestCancelSuppressesDelivery(t *testing.T) {
	q := NewQueue()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(q, base)

	keep := q.Schedule("vault", time.Second, "keep")
	drop := q.Schedule("vault", time.Second, "drop")
	q.Cancel(drop)

	fired := q.Tick(base.Add(time.Minute))

	require.Len(t, fired, 1)
	assert.Equal(t, "keep", fired[0].Payload)

	// Cancelling a fired or unknown handle is a no-op.
	q.Cancel(keep)
	q.Cancel(Handle(999))
}

func TestRescheduleIsCancelThenSchedule(t *testing.T) {
	q := NewQueue()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(q, base)

	h := q.Schedule("vault", time.Minute, "autolock")
	q.Cancel(h)
	fixedClock(q, base.Add(30*time.Second))
	q.Schedule("vault", time.Minute, "autolock")

	// The original fire time passes without delivery.
	fired := q.Tick(base.Add(time.Minute))
	assert.Empty(t, fired)

	fired = q.Tick(base.Add(2 * time.Minute))
	require.Len(t, fired, 1)
	assert.Equal(t, "autolock", fired[0].Payload)
}

func TestOwnersAreReported(t *testing.T) {
	q := NewQueue()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(q, base)

	q.Schedule("hub", time.Second, "seq:7")

	fired := q.Tick(base.Add(time.Minute))
	require.Len(t, fired, 1)
	assert.Equal(t, "hub", fired[0].Owner)
}
