package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionNotifiesOnUserChangeOnly(t *testing.T) {
	alice := &Identity{UserID: uuid.New(), SessionID: "s1"}
	aliceRefreshed := &Identity{UserID: alice.UserID, SessionID: "s2"}
	bob := &Identity{UserID: uuid.New()}

	s := NewSession(nil)
	var seen []*Identity
	s.Subscribe(func(id *Identity) { seen = append(seen, id) })

	s.Set(alice)
	s.Set(aliceRefreshed)
	s.Set(bob)
	s.Set(nil)
	s.Set(nil)

	require.Len(t, seen, 3)
	assert.Same(t, alice, seen[0])
	assert.Same(t, bob, seen[1])
	assert.Nil(t, seen[2])
	assert.Nil(t, s.Current())
}

func TestSessionRefreshUpdatesCurrent(t *testing.T) {
	alice := &Identity{UserID: uuid.New(), SessionID: "s1"}
	s := NewSession(alice)
	refreshed := &Identity{UserID: alice.UserID, SessionID: "s2"}
	s.Set(refreshed)
	assert.Same(t, refreshed, s.Current())
}

func TestSessionSubscribersRunInOrderAndUnsubscribe(t *testing.T) {
	s := NewSession(nil)
	var order []string
	unsubA := s.Subscribe(func(*Identity) { order = append(order, "a") })
	s.Subscribe(func(*Identity) { order = append(order, "b") })

	s.Set(&Identity{UserID: uuid.New()})
	unsubA()
	unsubA()
	s.Set(&Identity{UserID: uuid.New()})

	assert.Equal(t, []string{"a", "b", "b"}, order)
}

func TestSessionListenerMayReadCurrent(t *testing.T) {
	s := NewSession(nil)
	var observed *Identity
	s.Subscribe(func(*Identity) { observed = s.Current() })
	id := &Identity{UserID: uuid.New()}
	s.Set(id)
	assert.Same(t, id, observed)
}

func TestContextRoundTrip(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	id := &Identity{UserID: uuid.New()}
	assert.Same(t, id, FromContext(WithIdentity(context.Background(), id)))
	assert.True(t, SameUser(nil, nil))
	assert.False(t, SameUser(id, nil))
}
