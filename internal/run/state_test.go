package run

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateLifecycle(t *testing.T) {
	s := NewState()
	assert.Equal(t, StatusIdle, s.Snapshot().Status)

	s.Begin()
	snap := s.Snapshot()
	assert.Equal(t, StatusRunning, snap.Status)
	assert.False(t, snap.CancelPending)
	assert.False(t, snap.StartedAt.IsZero())

	s.SetRecords(7)
	assert.Equal(t, 7, s.Snapshot().Records)

	s.Finish(12)
	snap = s.Snapshot()
	assert.Equal(t, StatusDone, snap.Status)
	assert.Equal(t, 12, snap.Records)
	assert.False(t, snap.FinishedAt.IsZero())
}

func TestStateStopTransition(t *testing.T) {
	s := NewState()
	s.Begin()

	assert.False(t, s.Cancelled())
	s.RequestStop()
	assert.True(t, s.Cancelled())
	assert.Equal(t, StatusStopping, s.Snapshot().Status)

	// A cancelled run still finishes DONE: partial results are valid.
	s.Finish(3)
	assert.Equal(t, StatusDone, s.Snapshot().Status)
}

func TestStateBeginClearsCancel(t *testing.T) {
	s := NewState()
	s.Begin()
	s.RequestStop()
	s.Finish(0)

	s.Begin()
	assert.False(t, s.Cancelled())
	assert.Equal(t, StatusRunning, s.Snapshot().Status)
}

func TestStateFail(t *testing.T) {
	s := NewState()
	s.Begin()
	s.Fail(errors.New("browser launch failed"))

	snap := s.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, "browser launch failed", snap.LastError)
}

func TestStateLogAndSnapshot(t *testing.T) {
	s := NewState()
	s.Logf("target %d of %d", 1, 3)
	s.Logf("done")

	assert.Equal(t, 2, s.Snapshot().LogSize)
}

func TestSubscribeReplaysThenStreams(t *testing.T) {
	s := NewState()
	s.Logf("first")
	s.Logf("second")

	id, ch, replay := s.Subscribe()
	defer s.Unsubscribe(id)

	require.Equal(t, []string{"first", "second"}, replay)

	s.Logf("third")
	select {
	case line := <-ch:
		assert.Equal(t, "third", line)
	case <-time.After(time.Second):
		t.Fatal("no line streamed")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	s := NewState()
	id, ch, _ := s.Subscribe()
	s.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)

	// Logging after unsubscribe must not panic on the closed channel.
	s.Logf("after unsubscribe")
}

func TestStalledSubscriberDoesNotBlock(t *testing.T) {
	s := NewState()
	id, _, _ := s.Subscribe()
	defer s.Unsubscribe(id)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer+10; i++ {
			s.Logf("line %d", i)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("logging blocked on a stalled subscriber")
	}
}
