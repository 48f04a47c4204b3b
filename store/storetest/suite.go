// Package storetest is the conformance suite every store.KVStore backend runs.
package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-opera-names/store"
)

// Factory opens a fresh, empty store.
type Factory func(t *testing.T) store.KVStore

// Run executes the suite against stores produced by open.
func Run(t *testing.T, open Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.KVStore)
	}{
		{"get_put_delete", testGetPutDelete},
		{"batch_is_atomic_until_commit", testBatchVisibility},
		{"batch_rejects_use_after_commit", testBatchDone},
		{"prefix_iteration_is_ordered", testPrefixIteration},
		{"closed_store_rejects_calls", testClosed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := open(t)
			defer s.Close() //nolint:errcheck
			tc.fn(t, s)
		})
	}
}

func testGetPutDelete(t *testing.T, s store.KVStore) {
	_, err := s.Get([]byte("missing"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Put([]byte("k"), []byte("v")))
	got, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, s.Delete([]byte("k")))
	_, err = s.Get([]byte("k"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testBatchVisibility(t *testing.T, s store.KVStore) {
	require.NoError(t, s.Put([]byte("gone"), []byte("x")))

	b := s.NewBatch()
	defer b.Close() //nolint:errcheck
	require.NoError(t, b.Put([]byte("a"), []byte("1")))
	require.NoError(t, b.Put([]byte("b"), []byte("2")))
	require.NoError(t, b.Delete([]byte("gone")))

	_, err := s.Get([]byte("a"))
	assert.ErrorIs(t, err, store.ErrNotFound, "uncommitted writes must not be visible")

	require.NoError(t, b.Commit())

	a, err := s.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), a)
	_, err = s.Get([]byte("gone"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testBatchDone(t *testing.T, s store.KVStore) {
	b := s.NewBatch()
	require.NoError(t, b.Put([]byte("k"), []byte("v")))
	require.NoError(t, b.Commit())

	assert.ErrorIs(t, b.Put([]byte("k2"), []byte("v")), store.ErrBatchDone)
	assert.ErrorIs(t, b.Delete([]byte("k")), store.ErrBatchDone)
	assert.ErrorIs(t, b.Commit(), store.ErrBatchDone)
	assert.NoError(t, b.Close())
}

func testPrefixIteration(t *testing.T, s store.KVStore) {
	for _, k := range []string{"p\x03", "p\x01", "q\x00", "p\x02", "o\xff"} {
		require.NoError(t, s.Put([]byte(k), []byte(k)))
	}
	it, err := s.NewIterator([]byte("p"))
	require.NoError(t, err)
	defer it.Close() //nolint:errcheck

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
		assert.Equal(t, it.Key(), it.Value())
	}
	assert.Equal(t, []string{"p\x01", "p\x02", "p\x03"}, keys)
}

func testClosed(t *testing.T, s store.KVStore) {
	require.NoError(t, s.Close())
	_, err := s.Get([]byte("k"))
	assert.ErrorIs(t, err, store.ErrClosed)
	assert.ErrorIs(t, s.Put([]byte("k"), nil), store.ErrClosed)
	_, err = s.NewIterator(nil)
	assert.ErrorIs(t, err, store.ErrClosed)
}
