package ratelimit

import "sync"

// Notice records that the API server throttled a request.
type Notice struct {
	// Message is a human-readable description of the throttling.
	Message string `json:"message"`
	// RetryAfter is the number of seconds, counted from TriggeredAt, after
	// which a retry is permitted. Zero means there is no countdown to show.
	RetryAfter int `json:"retryAfter"`
	// TriggeredAt is when the notice was created, in epoch milliseconds.
	TriggeredAt int64 `json:"triggeredAt"`
}

// Store holds at most one Notice. Setting a notice always replaces the
// previous one wholesale. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	notice    *Notice
	observers map[int]func(*Notice)
	nextID    int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		observers: map[int]func(*Notice){},
	}
}

// Notice returns a copy of the current notice, or nil if there is none.
func (s *Store) Notice() *Notice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notice.copy()
}

// SetNotice replaces the current notice. Values are not validated.
func (s *Store) SetNotice(notice Notice) {
	s.set(&notice)
}

// ClearNotice removes the current notice, if any.
func (s *Store) ClearNotice() {
	s.set(nil)
}

// Subscribe registers a function to be called with the new notice (nil when
// cleared) after every change. The returned function removes the
// registration.
func (s *Store) Subscribe(observer func(*Notice)) func() {
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

func (s *Store) set(notice *Notice) {
	s.mu.Lock()
	s.notice = notice
	observers := make([]func(*Notice), 0, len(s.observers))
	for _, observer := range s.observers {
		observers = append(observers, observer)
	}
	s.mu.Unlock()
	for _, observer := range observers {
		observer(notice.copy())
	}
}

func (n *Notice) copy() *Notice {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}
