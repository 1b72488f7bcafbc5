// Package dialogue runs the per-user multi-step flows that collect and
// mutate task records. Each flow is an explicit state machine: a kind, a
// step index, a draft record, and (for flows addressing an existing task)
// the collection snapshot taken when the flow started.
package dialogue

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dkrasnov/zadachnik/task"
)

// FlowKind names the dialogue flow a session is running.
type FlowKind string

const (
	FlowAdd    FlowKind = "add"
	FlowEdit   FlowKind = "edit"
	FlowDelete FlowKind = "delete"
	FlowRemind FlowKind = "remind"
)

// ErrInvalidSelection is returned when a picked position falls outside the
// snapshot taken at flow start.
var ErrInvalidSelection = errors.New("selection out of range")

// ValidationError reports a field value that failed its step's rule. The
// engine recovers by re-prompting; it never aborts the flow.
type ValidationError struct {
	Field string
	Input string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Input)
}

// Session is one user's in-flight flow. Target is the 1-based position
// into Snapshot, 0 while unselected. Field is the record field being
// edited in an edit flow.
type Session struct {
	UserID   int64
	Kind     FlowKind
	Step     int
	Draft    task.Task
	Snapshot []task.Task
	Target   int
	Field    string
}

// Sessions holds at most one active session per user. Starting a new flow
// overwrites any stale session rather than merging with it. Sessions have
// no expiry; an abandoned flow lives until its user starts another.
type Sessions struct {
	mu sync.Mutex
	m  map[int64]*Session
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{m: make(map[int64]*Session)}
}

// Start installs sess as the user's active session, replacing any other.
func (s *Sessions) Start(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sess.UserID] = sess
}

// Get returns the user's active session, if any.
func (s *Sessions) Get(userID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[userID]
	return sess, ok
}

// End discards the user's active session.
func (s *Sessions) End(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}

// Active reports whether the user has a flow in progress.
func (s *Sessions) Active(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[userID]
	return ok
}
