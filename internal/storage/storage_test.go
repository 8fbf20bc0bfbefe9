package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	sq, err := OpenSQLiteMemory()
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })
	return map[string]Backend{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func TestBackendRoundTrip(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := b.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, b.Set("b", "2"))
			require.NoError(t, b.Set("a", "1"))
			require.NoError(t, b.Set("a", "one"))

			v, ok, err := b.Get("a")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "one", v)

			keys, err := b.Keys()
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, keys)

			require.NoError(t, b.Remove("a"))
			require.NoError(t, b.Remove("never-existed"))
			_, ok, _ = b.Get("a")
			assert.False(t, ok)
		})
	}
}

func TestSnapshot(t *testing.T) {
	m := NewMemoryFrom(map[string]string{"x": "1", "y": "2"})
	snap, err := Snapshot(m)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"x": "1", "y": "2"}, snap)

	// The snapshot is independent of the backend.
	require.NoError(t, m.Set("x", "changed"))
	assert.Equal(t, "1", snap["x"])
}

func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "daybook.db")
	s, err := OpenSQLite(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Close())

	s2, err := OpenSQLite(path, nil)
	require.NoError(t, err)
	defer s2.Close()

	var version int
	require.NoError(t, s2.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentVersion, version)

	v, ok, err := s2.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestSQLiteMigrateIdempotent(t *testing.T) {
	s, err := OpenSQLiteMemory()
	require.NoError(t, err)
	defer s.Close()
	assert.NoError(t, s.migrate())
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	assert.Equal(t, "daybook.db", filepath.Base(path))
}
