package roles

import (
	"context"
	"sync"

	"github.com/weglobalmusic/wgme-backend/internal/identity"
)

// Tracker keeps the resolution for a session's current identity, re-resolving
// on every identity change. Only the current identity's result is kept.
type Tracker struct {
	resolver    *Resolver
	session     *identity.Session
	ctx         context.Context
	mu          sync.RWMutex
	current     Resolution
	started     uint64
	stored      uint64
	unsubscribe func()
}

// NewTracker resolves the session's current identity immediately and then
// follows the session. ctx bounds every lookup the tracker performs.
func NewTracker(ctx context.Context, resolver *Resolver, session *identity.Session) *Tracker {
	t := &Tracker{resolver: resolver, session: session, ctx: ctx}
	t.unsubscribe = session.Subscribe(t.refresh)
	t.refresh(session.Current())
	return t
}

// refresh may run concurrently for overlapping identity changes. A result is
// kept only if no later refresh has stored one and id is still the session's user.
func (t *Tracker) refresh(id *identity.Identity) {
	t.mu.Lock()
	t.started++
	gen := t.started
	t.mu.Unlock()

	res := t.resolver.Resolve(t.ctx, id)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen < t.stored || !identity.SameUser(id, t.session.Current()) {
		return
	}
	t.current = res
	t.stored = gen
}

func (t *Tracker) Current() Resolution {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Close stops following the session.
func (t *Tracker) Close() {
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
}
