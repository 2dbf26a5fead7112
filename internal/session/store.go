package session

import (
	"sync"

	"github.com/golang/glog"
	"github.com/krancour/openshred/sdk/authx"
)

// State is a snapshot of the client's belief about which user, if any, is
// currently authenticated. Snapshots are values; mutating one has no effect on
// the Store it came from.
type State struct {
	// UserID identifies the user. Empty means there is no session.
	UserID string
	// User is the user's profile. It is only present after a full identity
	// fetch.
	User *authx.User
	// Token is the bearer credential backing the session.
	Token string
	// IsAuthenticated is never true while UserID is empty.
	IsAuthenticated bool
	// IsLoading is true between the creation of a Store and the first
	// resolution of the session's status.
	IsLoading bool
}

// Store holds the session for the lifetime of the application. It is safe for
// concurrent use. Every mutation is written through to the Store's Storage on
// a best effort basis.
type Store struct {
	storage Storage

	mu        sync.RWMutex
	state     State
	observers map[int]func(State)
	nextID    int
}

// NewStore returns a Store rehydrated from the specified Storage, which may be
// nil. The new Store is loading until told otherwise.
func NewStore(storage Storage) *Store {
	s := &Store{
		storage:   storage,
		state:     State{IsLoading: true},
		observers: map[int]func(State){},
	}
	if storage == nil {
		return s
	}
	persisted, err := storage.Load()
	if err != nil {
		glog.Warningf("ignoring unreadable persisted session: %s", err)
		return s
	}
	if persisted != nil {
		s.state = fromPersisted(*persisted)
	}
	return s
}

// State returns a snapshot of the Store's current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.copy()
}

// SetUser records a full user profile and marks the session as established.
func (s *Store) SetUser(user authx.User) {
	s.mutate(func(state *State) {
		u := user
		state.User = &u
		state.UserID = user.ID
		state.IsAuthenticated = user.ID != ""
		state.IsLoading = false
	})
}

// SetSession records the user ID and credential obtained from a completed
// login. A session without a credential is never authenticated since there
// would be nothing to confirm it with.
func (s *Store) SetSession(userID string, token string) {
	s.mutate(func(state *State) {
		state.UserID = userID
		state.Token = token
		state.IsAuthenticated = userID != "" && token != ""
		state.IsLoading = false
	})
}

// SetToken replaces the credential. An empty token ends the session's
// authenticated status but leaves the user ID and profile in place; a
// non-empty one only authenticates a session whose user ID is already known.
func (s *Store) SetToken(token string) {
	s.mutate(func(state *State) {
		state.Token = token
		state.IsAuthenticated = token != "" && state.UserID != ""
	})
}

// ClearAuth resets the session to its empty state. It is safe to call in any
// state.
func (s *Store) ClearAuth() {
	s.mutate(func(state *State) {
		*state = State{}
	})
}

// SetLoading sets only the loading flag.
func (s *Store) SetLoading(loading bool) {
	s.mutate(func(state *State) {
		state.IsLoading = loading
	})
}

// Subscribe registers a function to be called with a fresh snapshot after
// every mutation. The returned function removes the registration.
func (s *Store) Subscribe(observer func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.observers[id] = observer
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// ToPersisted returns the subset of the Store's state that survives a
// restart.
func (s *Store) ToPersisted() Persisted {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return toPersisted(s.state)
}

// FromPersisted replaces the Store's state with a previously persisted
// session. The restored session is not considered authenticated, and the Store
// is loading, until its status has been checked.
func (s *Store) FromPersisted(persisted Persisted) {
	s.mutate(func(state *State) {
		*state = fromPersisted(persisted)
	})
}

func (s *Store) mutate(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	state := s.state.copy()
	// Persisting under the lock keeps writes in mutation order.
	s.persist(state)
	observers := make([]func(State), 0, len(s.observers))
	for _, observer := range s.observers {
		observers = append(observers, observer)
	}
	s.mu.Unlock()

	for _, observer := range observers {
		observer(state)
	}
}

func (s *Store) persist(state State) {
	if s.storage == nil {
		return
	}
	if err := s.storage.Save(toPersisted(state)); err != nil {
		glog.Warningf("error persisting session: %s", err)
	}
}

func (s State) copy() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
