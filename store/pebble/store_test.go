package pebble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-opera-names/store"
	"github.com/rony4d/go-opera-names/store/storetest"
)

func TestKVStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.KVStore {
		s, err := NewInMemory()
		require.NoError(t, err)
		return s
	})
}

func TestKVStore_onDisk(t *testing.T) {
	s, err := New(t.TempDir(), 8)
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	require.NoError(t, s.Put([]byte("k"), []byte("v")))
	got, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}
