package bolt

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-opera-names/store"
	"github.com/rony4d/go-opera-names/store/storetest"
)

func TestKVStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.KVStore {
		s, err := New(filepath.Join(t.TempDir(), "names.db"), Options{NoSync: true})
		require.NoError(t, err)
		return s
	})
}

func TestKVStore_reopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "names.db")

	s, err := New(path, Options{})
	require.NoError(t, err)
	b := s.NewBatch()
	require.NoError(t, b.Put([]byte("c"), []byte("config")))
	require.NoError(t, b.Commit())
	require.NoError(t, s.Close())

	s, err = New(path, Options{})
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck
	got, err := s.Get([]byte("c"))
	require.NoError(t, err)
	assert.Equal(t, []byte("config"), got)
}
