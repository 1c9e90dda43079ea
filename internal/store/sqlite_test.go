package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	testStoreSuite(t, newTestSQLite(t))
}

func TestSQLiteFileStore(t *testing.T) {
	s, err := NewSQLite(SQLiteConfig{Path: t.TempDir() + "/chathub.db"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	testStoreSuite(t, s)
}
