package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_RoundTrip(t *testing.T) {
	m := NewMemory()

	_, ok := m.Get(KeyToken)
	assert.False(t, ok)

	require.NoError(t, m.Set(KeyToken, "abc"))
	v, ok := m.Get(KeyToken)
	require.True(t, ok)
	assert.Equal(t, "abc", v)

	require.NoError(t, m.Delete(KeyToken))
	_, ok = m.Get(KeyToken)
	assert.False(t, ok)

	// Deleting an absent key is fine.
	require.NoError(t, m.Delete("missing"))
}

func TestFile_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	f, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Set(KeyToken, "tok-123"))
	require.NoError(t, f.Set(KeyTheme, "dark"))

	reopened, err := NewFile(path)
	require.NoError(t, err)

	v, ok := reopened.Get(KeyToken)
	require.True(t, ok)
	assert.Equal(t, "tok-123", v)

	v, ok = reopened.Get(KeyTheme)
	require.True(t, ok)
	assert.Equal(t, "dark", v)
}

func TestFile_MalformedStateDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	f, err := NewFile(path)
	require.NoError(t, err)

	_, ok := f.Get(KeyToken)
	assert.False(t, ok, "corrupt state must read as empty")
}

func TestFile_EmptyPathRejected(t *testing.T) {
	_, err := NewFile("")
	assert.Error(t, err)
}

func TestFile_DeletePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	f, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Set(KeyUser, `{"id":"u1"}`))
	require.NoError(t, f.Delete(KeyUser))

	reopened, err := NewFile(path)
	require.NoError(t, err)
	_, ok := reopened.Get(KeyUser)
	assert.False(t, ok)
}
