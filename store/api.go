// Package store is the key/value persistence API behind the controller state.
// Backends: store/bolt (bbolt), store/pebble (pebble) and store/memory.
package store

import "errors"

var (
	ErrClosed    = errors.New("store: database is closed")
	ErrNotFound  = errors.New("store: key not found")
	ErrBatchDone = errors.New("store: batch already committed or closed")
)

// KVStore is a key/value store with atomic batches and ordered prefix iteration.
type KVStore interface {
	Writer
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	NewBatch() Batch
	NewIterator(prefix []byte) (Iterator, error)
	Close() error
}

type Writer interface {
	Put(key []byte, value []byte) error
}

// Batch is an atomic group of writes: after Commit either all of them are
// visible or none is.
type Batch interface {
	Writer
	Delete(key []byte) error
	Commit() error
	Close() error
}

// Iterator walks keys sharing a prefix in ascending byte order.
// Iterators must be closed after use.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Close() error
}

// PrefixEnd returns the smallest key greater than every key starting with
// prefix, or nil if there is none (prefix is all 0xff).
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
