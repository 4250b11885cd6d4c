package identity

import "sync"

// Listener is invoked with the new identity whenever the signed-in user changes.
type Listener func(*Identity)

// Session holds the current identity for a long-lived client (a worker, a CLI,
// a test harness) and fans out changes to subscribers. It replaces any global
// auth state: construct one and pass it to whoever needs it.
type Session struct {
	mu        sync.Mutex
	current   *Identity
	nextID    int
	listeners []subscription
}

type subscription struct {
	id int
	fn Listener
}

func NewSession(initial *Identity) *Session {
	return &Session{current: initial}
}

// Current returns the signed-in identity or nil.
func (s *Session) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set replaces the identity. Subscribers are notified synchronously, in
// subscription order, only when the user actually changes. Token refreshes for
// the same user swap the stored identity silently.
func (s *Session) Set(id *Identity) {
	s.mu.Lock()
	changed := !SameUser(s.current, id)
	s.current = id
	var fns []Listener
	if changed {
		fns = make([]Listener, 0, len(s.listeners))
		for _, sub := range s.listeners {
			fns = append(fns, sub.fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (s *Session) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}
