package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pollUntil polls the slot until a result arrives or the deadline hits.
func pollUntil(t *testing.T, b *Bridge, slot string) Result {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if r, ok := b.Poll(slot); ok {
			return r
		}
		select {
		case <-deadline:
			t.Fatalf("no result on slot %q", slot)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestResultDeliveredExactlyOnce(t *testing.T) {
	b := New()

	b.Spawn("send", func() (string, error) { return "200 OK", nil })

	r := pollUntil(t, b, "send")
	assert.Equal(t, "200 OK", r.Payload)
	require.NoError(t, r.Err)

	_, ok := b.Poll("send")
	assert.False(t, ok, "a delivered result never repeats")
	assert.False(t, b.Busy("send"))
}

func TestFailureDeliveredNotDropped(t *testing.T) {
	b := New()
	boom := errors.New("connection refused")

	b.Spawn("send", func() (string, error) { return "", boom })

	r := pollUntil(t, b, "send")
	assert.ErrorIs(t, r.Err, boom)
}

func TestNewerSpawnSupersedesOlder(t *testing.T) {
	b := New()
	releaseA := make(chan struct{})
	releaseB := make(chan struct{})

	genA := b.Spawn("send", func() (string, error) {
		<-releaseA
		return "stale", nil
	})
	genB := b.Spawn("send", func() (string, error) {
		<-releaseB
		return "fresh", nil
	})
	require.Greater(t, genB, genA)

	// B completes first, then A completes late.
	close(releaseB)
	r := pollUntil(t, b, "send")
	assert.Equal(t, "fresh", r.Payload)
	assert.Equal(t, genB, r.Generation)

	close(releaseA)
	time.Sleep(10 * time.Millisecond)
	_, ok := b.Poll("send")
	assert.False(t, ok, "the superseded result is discarded even though it finishes later")
}

func TestStaleResultDiscardedWhenItFinishesFirst(t *testing.T) {
	b := New()
	releaseA := make(chan struct{})

	b.Spawn("send", func() (string, error) {
		<-releaseA
		return "stale", nil
	})
	close(releaseA)
	time.Sleep(10 * time.Millisecond) // let A complete before B spawns

	b.Spawn("send", func() (string, error) { return "fresh", nil })

	r := pollUntil(t, b, "send")
	assert.Equal(t, "fresh", r.Payload, "only the most recent spawn's result is delivered")
}

func TestSlotsAreIndependent(t *testing.T) {
	b := New()

	b.Spawn("send", func() (string, error) { return "response", nil })
	b.Spawn("load", func() (string, error) { return "vault", nil })

	send := pollUntil(t, b, "send")
	load := pollUntil(t, b, "load")
	assert.Equal(t, "response", send.Payload)
	assert.Equal(t, "vault", load.Payload)
}

func TestPollUnknownSlot(t *testing.T) {
	b := New()
	_, ok := b.Poll("nope")
	assert.False(t, ok)
	assert.False(t, b.Busy("nope"))
}

func TestPollAllDrainsCompletedSlots(t *testing.T) {
	b := New()
	block := make(chan struct{})
	defer close(block)

	b.Spawn("a", func() (string, error) { return "done-a", nil })
	b.Spawn("b", func() (string, error) { <-block; return "done-b", nil })
	b.Spawn("c", func() (string, error) { return "done-c", nil })

	deadline := time.After(2 * time.Second)
	got := map[string]string{}
	for len(got) < 2 {
		for _, sr := range b.PollAll() {
			got[sr.Slot] = sr.Result.Payload
		}
		select {
		case <-deadline:
			t.Fatal("slots a and c never completed")
		case <-time.After(time.Millisecond):
		}
	}

	assert.Equal(t, "done-a", got["a"])
	assert.Equal(t, "done-c", got["c"])
	assert.True(t, b.Busy("b"), "blocked slot stays live")
}

func TestBusyReflectsLifecycle(t *testing.T) {
	b := New()
	block := make(chan struct{})

	b.Spawn("send", func() (string, error) { <-block; return "", nil })
	assert.True(t, b.Busy("send"))

	close(block)
	pollUntil(t, b, "send")
	assert.False(t, b.Busy("send"))
}
