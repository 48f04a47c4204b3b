// Package memory is a map-backed store.KVStore for tests and devnets.
package memory

import (
	"bytes"
	"sort"
	"sync"

	"github.com/rony4d/go-opera-names/store"
)

type KVStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func New() *KVStore {
	return &KVStore{data: make(map[string][]byte)}
}

func (s *KVStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	v, ok := s.data[string(key)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *KVStore) Put(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	s.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (s *KVStore) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	delete(s.data, string(key))
	return nil
}

func (s *KVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *KVStore) NewIterator(prefix []byte) (store.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	it := &iterator{pos: -1}
	for k, v := range s.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			it.keys = append(it.keys, []byte(k))
			it.values = append(it.values, append([]byte(nil), v...))
		}
	}
	sort.Sort(it)
	return it, nil
}

type iterator struct {
	keys   [][]byte
	values [][]byte
	pos    int
}

func (it *iterator) Len() int           { return len(it.keys) }
func (it *iterator) Less(i, j int) bool { return bytes.Compare(it.keys[i], it.keys[j]) < 0 }
func (it *iterator) Swap(i, j int) {
	it.keys[i], it.keys[j] = it.keys[j], it.keys[i]
	it.values[i], it.values[j] = it.values[j], it.values[i]
}

func (it *iterator) Next() bool {
	if it.pos < len(it.keys) {
		it.pos++
	}
	return it.pos < len(it.keys)
}

func (it *iterator) Key() []byte   { return it.keys[it.pos] }
func (it *iterator) Value() []byte { return it.values[it.pos] }
func (it *iterator) Close() error  { return nil }

type op struct {
	key    []byte
	value  []byte
	delete bool
}

type Batch struct {
	s    *KVStore
	ops  []op
	done bool
}

func (s *KVStore) NewBatch() store.Batch {
	return &Batch{s: s}
}

func (b *Batch) Put(key, value []byte) error {
	if b.done {
		return store.ErrBatchDone
	}
	b.ops = append(b.ops, op{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
	return nil
}

func (b *Batch) Delete(key []byte) error {
	if b.done {
		return store.ErrBatchDone
	}
	b.ops = append(b.ops, op{key: append([]byte(nil), key...), delete: true})
	return nil
}

func (b *Batch) Commit() error {
	if b.done {
		return store.ErrBatchDone
	}
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.s.closed {
		return store.ErrClosed
	}
	for _, o := range b.ops {
		if o.delete {
			delete(b.s.data, string(o.key))
		} else {
			b.s.data[string(o.key)] = o.value
		}
	}
	b.done = true
	return nil
}

func (b *Batch) Close() error {
	b.done = true
	b.ops = nil
	return nil
}
