package scratch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Rows []string `json:"rows"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("IMPORT_SCRATCH_DIR", t.TempDir())
	s, err := NewStore()
	require.NoError(t, err)
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)

	key, err := s.Put(payload{Rows: []string{"a", "b"}})
	require.NoError(t, err)
	require.NotEmpty(t, key)

	var got payload
	require.NoError(t, s.Get(key, &got))
	assert.Equal(t, []string{"a", "b"}, got.Rows)
}

func TestStoreRelease(t *testing.T) {
	s := newTestStore(t)

	key, err := s.Put(payload{Rows: []string{"a"}})
	require.NoError(t, err)

	s.Release(key)
	var got payload
	assert.Error(t, s.Get(key, &got))

	// Releasing again, or releasing nothing, is harmless.
	s.Release(key)
	s.Release("")
}

func TestStoreKeysAreDistinct(t *testing.T) {
	s := newTestStore(t)

	k1, err := s.Put(payload{Rows: []string{"a"}})
	require.NoError(t, err)
	k2, err := s.Put(payload{Rows: []string{"b"}})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	var got payload
	require.NoError(t, s.Get(k2, &got))
	assert.Equal(t, []string{"b"}, got.Rows)
}
