package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/writing-coach/internal/scheduler"
)

// sessionStore owns the open editing sessions, keyed by UUID.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	max      int
	factory  func(debounce time.Duration) (*scheduler.Session, error)
}

type sessionEntry struct {
	id        string
	session   *scheduler.Session
	createdAt time.Time
}

func newSessionStore(maxSessions int, factory func(time.Duration) (*scheduler.Session, error)) *sessionStore {
	return &sessionStore{
		sessions: make(map[string]*sessionEntry),
		max:      maxSessions,
		factory:  factory,
	}
}

// create opens a session. A zero debounce uses the configured default.
func (st *sessionStore) create(debounce time.Duration) (*sessionEntry, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.max > 0 && len(st.sessions) >= st.max {
		return nil, &ErrTooManySessions{Max: st.max}
	}
	sess, err := st.factory(debounce)
	if err != nil {
		return nil, err
	}
	entry := &sessionEntry{id: uuid.NewString(), session: sess, createdAt: time.Now()}
	st.sessions[entry.id] = entry
	return entry, nil
}

func (st *sessionStore) get(id string) (*sessionEntry, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	entry, ok := st.sessions[id]
	if !ok {
		return nil, &ErrSessionNotFound{ID: id}
	}
	return entry, nil
}

// remove closes and forgets a session.
func (st *sessionStore) remove(id string) error {
	st.mu.Lock()
	entry, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return &ErrSessionNotFound{ID: id}
	}
	entry.session.Close()
	return nil
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// closeAll closes every session. Used on shutdown.
func (st *sessionStore) closeAll() {
	st.mu.Lock()
	entries := make([]*sessionEntry, 0, len(st.sessions))
	for id, e := range st.sessions {
		entries = append(entries, e)
		delete(st.sessions, id)
	}
	st.mu.Unlock()

	for _, e := range entries {
		e.session.Close()
	}
}
