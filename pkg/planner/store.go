package planner

import "sync"

// Store holds exactly one Session (or its absence) and broadcasts every
// change to subscribers. It is the single owner of session state: consumers
// read it and request replacement through named operations, never by mutating
// fields in place.
type Store struct {
	mu          sync.RWMutex
	session     Session
	subscribers map[int]chan Session
	nextSubID   int
}

func NewStore() *Store {
	return &Store{subscribers: make(map[int]chan Session)}
}

// Get returns the current session. The zero value means unauthenticated.
func (s *Store) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Replace overwrites the session wholesale. Merge semantics, where needed,
// are the caller's job (see Refresher). The lock is held across the send loop
// so a concurrent cancel cannot close a channel mid-broadcast; the sends are
// non-blocking, so holding it is cheap.
func (s *Store) Replace(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = session
	for _, ch := range s.subscribers {
		// Non-blocking: a stalled subscriber must not hold up auth flows.
		select {
		case ch <- session:
		default:
		}
	}
}

// Clear sets the session to absent.
func (s *Store) Clear() {
	s.Replace(Session{})
}

// Subscribe returns a channel receiving each new session and a cancel
// function. The channel is buffered; slow consumers may miss intermediate
// states but always observe the latest on their next receive.
func (s *Store) Subscribe() (<-chan Session, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan Session, 1)
	s.subscribers[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if ch, ok := s.subscribers[id]; ok {
			close(ch)
			delete(s.subscribers, id)
		}
	}
	return ch, cancel
}
