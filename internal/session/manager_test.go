package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(m *Manager, userID string) *ImportSession {
	return m.Create(userID, "HDI", "hdi.xlsx", "hash", "HDI", "scratch-key", 10, 8)
}

func TestManagerCreateGet(t *testing.T) {
	m := NewManager(time.Minute, nil)
	s := newSession(m, "user-1")
	require.NotEmpty(t, s.ID)
	assert.Equal(t, 1, m.Count())

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestManagerExpiry(t *testing.T) {
	m := NewManager(20*time.Millisecond, nil)
	s := newSession(m, "user-1")

	time.Sleep(40 * time.Millisecond)
	_, ok := m.Get(s.ID)
	assert.False(t, ok, "expired sessions read as absent")
	assert.Equal(t, 1, m.Count(), "the sweeper owns the actual removal")
}

func TestManagerTouchExtends(t *testing.T) {
	m := NewManager(50*time.Millisecond, nil)
	s := newSession(m, "user-1")

	time.Sleep(30 * time.Millisecond)
	m.Touch(s.ID)
	time.Sleep(30 * time.Millisecond)

	_, ok := m.Get(s.ID)
	assert.True(t, ok, "touch must push the expiry forward")
}

func TestManagerFindByOwner(t *testing.T) {
	m := NewManager(20*time.Millisecond, nil)
	mine := newSession(m, "user-1")
	newSession(m, "user-2")

	found := m.FindByOwner("user-1")
	require.Len(t, found, 1)
	assert.Same(t, mine, found[0])

	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, m.FindByOwner("user-1"), "expired sessions are not offered")
}

func TestManagerReleaseExactlyOnce(t *testing.T) {
	releases := 0
	m := NewManager(time.Minute, func(s *ImportSession) { releases++ })
	s := newSession(m, "user-1")

	m.Remove(s.ID)
	m.Remove(s.ID)
	m.Sweep()
	assert.Equal(t, 1, releases)
	assert.Equal(t, 0, m.Count())
}

func TestManagerSweep(t *testing.T) {
	released := make(map[string]int)
	m := NewManager(20*time.Millisecond, func(s *ImportSession) { released[s.ID]++ })

	expired := newSession(m, "user-1")
	time.Sleep(40 * time.Millisecond)
	live := newSession(m, "user-2")

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, released[expired.ID])
	assert.Zero(t, released[live.ID])
	assert.Equal(t, 1, m.Count())

	assert.Equal(t, 0, m.Sweep(), "a second sweep finds nothing")
	assert.Equal(t, 1, released[expired.ID])
}

func TestSessionSingleWriter(t *testing.T) {
	m := NewManager(time.Minute, nil)
	s := newSession(m, "user-1")

	require.True(t, s.TryAcquire())
	assert.False(t, s.TryAcquire(), "a second writer must be refused")
	s.Release()
	assert.True(t, s.TryAcquire())
	s.Release()
}
