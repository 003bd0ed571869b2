// Package run holds the process-wide state of one scraping run: the status
// machine, the cooperative cancel flag, and the append-only log that the
// control plane streams to clients.
package run

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Status is the run lifecycle state.
type Status string

const (
	StatusIdle     Status = "IDLE"
	StatusRunning  Status = "RUNNING"
	StatusStopping Status = "STOPPING"
	StatusDone     Status = "DONE"
	StatusError    Status = "ERROR"
)

// subscriberBuffer bounds each log subscriber. A stalled client drops
// lines instead of blocking extraction.
const subscriberBuffer = 256

// State is owned by the orchestrator and mutated only through the defined
// transition points; the server layer holds a reference for polling.
type State struct {
	mu         sync.Mutex
	status     Status
	cancel     bool
	log        []string
	subs       map[int]chan string
	nextSub    int
	records    int
	lastError  string
	startedAt  time.Time
	finishedAt time.Time
}

// Snapshot is a point-in-time copy of the run state for status endpoints.
type Snapshot struct {
	Status        Status    `json:"status"`
	CancelPending bool      `json:"cancel_pending"`
	Records       int       `json:"records"`
	LogSize       int       `json:"log_size"`
	LastError     string    `json:"last_error,omitempty"`
	StartedAt     time.Time `json:"started_at,omitzero"`
	FinishedAt    time.Time `json:"finished_at,omitzero"`
}

func NewState() *State {
	return &State{
		status: StatusIdle,
		subs:   make(map[int]chan string),
	}
}

// Begin transitions to RUNNING and clears the cancel flag.
func (s *State) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusRunning
	s.cancel = false
	s.startedAt = time.Now()
}

// RequestStop sets the cooperative cancel flag. It is polled between
// cycles and between targets, never enforced preemptively, so records
// already extracted are kept.
func (s *State) RequestStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = true
	if s.status == StatusRunning {
		s.status = StatusStopping
	}
	s.appendLocked("stop requested")
}

// Cancelled reports whether a stop has been requested.
func (s *State) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel
}

// Finish transitions to DONE with the final record count. A cancelled run
// still finishes DONE: partial results are valid results.
func (s *State) Finish(records int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusDone
	s.records = records
	s.finishedAt = time.Now()
}

// Fail transitions to the terminal ERROR state.
func (s *State) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusError
	s.lastError = err.Error()
	s.finishedAt = time.Now()
	s.appendLocked(fmt.Sprintf("run failed: %v", err))
}

// SetRecords updates the running record count shown by status polls.
func (s *State) SetRecords(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = n
}

// Logf appends a formatted line to the run log and mirrors it to slog.
func (s *State) Logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	slog.Info(line)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(line)
}

func (s *State) appendLocked(line string) {
	s.log = append(s.log, line)
	for _, ch := range s.subs {
		select {
		case ch <- line:
		default:
			// subscriber stalled, drop rather than block
		}
	}
}

// Snapshot returns a point-in-time view of the run.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Status:        s.status,
		CancelPending: s.cancel,
		Records:       s.records,
		LogSize:       len(s.log),
		LastError:     s.lastError,
		StartedAt:     s.startedAt,
		FinishedAt:    s.finishedAt,
	}
}

// Subscribe registers a log consumer. It returns the subscription id, a
// channel receiving lines appended after this call, and a replay of every
// line logged so far, in order.
func (s *State) Subscribe() (int, <-chan string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan string, subscriberBuffer)
	s.subs[id] = ch

	replay := make([]string, len(s.log))
	copy(replay, s.log)
	return id, ch, replay
}

// Unsubscribe removes a log consumer.
func (s *State) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}
