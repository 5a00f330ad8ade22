package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHash(t *testing.T) {
	a := FileHash([]byte("carrier export"))
	b := FileHash([]byte("carrier export"))
	c := FileHash([]byte("different export"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestMatcher(t *testing.T) {
	data := []byte("carrier export")
	m := NewMatcher(FileHash(data))

	ok, err := m.Match(data)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Match([]byte("tampered"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewMatcher("").Match(data)
	assert.Error(t, err)
}
