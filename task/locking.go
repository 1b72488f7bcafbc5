package task

import "sync"

// LockingStore serializes store access per user id so a dialogue commit and
// a reminder-scanner rewrite of the same collection cannot interleave into
// a lost update. Different users proceed in parallel.
type LockingStore struct {
	inner Store

	mu      sync.Mutex
	perUser map[int64]*sync.Mutex
	usersMu sync.Mutex
}

// NewLockingStore wraps inner with per-user write serialization.
func NewLockingStore(inner Store) *LockingStore {
	return &LockingStore{inner: inner, perUser: make(map[int64]*sync.Mutex)}
}

func (s *LockingStore) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.perUser[userID]
	if !ok {
		l = &sync.Mutex{}
		s.perUser[userID] = l
	}
	return l
}

func (s *LockingStore) List(userID int64) ([]Task, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()
	return s.inner.List(userID)
}

func (s *LockingStore) Append(userID int64, t Task) error {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()
	return s.inner.Append(userID, t)
}

func (s *LockingStore) Replace(userID int64, tasks []Task) error {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()
	return s.inner.Replace(userID, tasks)
}

func (s *LockingStore) RegisterUser(id int64, displayName string) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	return s.inner.RegisterUser(id, displayName)
}

func (s *LockingStore) Users() ([]User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	return s.inner.Users()
}
