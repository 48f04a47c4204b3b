package bolt

import (
	"go.etcd.io/bbolt"

	"github.com/rony4d/go-opera-names/store"
)

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

// Commit applies every queued operation in one bbolt Update transaction.
func (b *Batch) Commit() error {
	if b.done {
		return store.ErrBatchDone
	}
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	if b.s.closed {
		return store.ErrClosed
	}
	err := b.s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(namesBucket)
		for _, o := range b.ops {
			var err error
			if o.delete {
				err = bucket.Delete(o.key)
			} else {
				err = bucket.Put(o.key, o.value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.done = true
	return nil
}

func (b *Batch) Close() error {
	b.done = true
	b.ops = nil
	return nil
}
