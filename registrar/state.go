package registrar

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rony4d/go-opera-names/inter"
	"github.com/rony4d/go-opera-names/store"
)

// Key layout of the controller state.
var (
	epochPrefix     = []byte("e") // + be32(position) -> rlp(inter.Epoch)
	whitelistPrefix = []byte("w") // + address -> rlp(inter.WhitelistEntry)
	pricePrefix     = []byte("p") // + be64(length) -> big-endian price
	receiptPrefix   = []byte("r") // + be64(seq) -> rlp(inter.Receipt)
	configKey       = []byte("c") // rlp(Config)
	nextReceiptKey  = []byte("n") // be64(next receipt seq)
)

func epochKey(pos idx.Epoch) []byte {
	return append(append([]byte{}, epochPrefix...), bigendian.Uint32ToBytes(uint32(pos))...)
}

func whitelistKey(addr common.Address) []byte {
	return append(append([]byte{}, whitelistPrefix...), addr.Bytes()...)
}

func priceKey(length uint64) []byte {
	return append(append([]byte{}, pricePrefix...), bigendian.Uint64ToBytes(length)...)
}

func receiptKey(seq uint64) []byte {
	return append(append([]byte{}, receiptPrefix...), bigendian.Uint64ToBytes(seq)...)
}

// state is the in-memory mirror of everything the controller persists.
type state struct {
	config      Config
	schedule    Schedule
	quotas      Quotas
	prices      Prices
	nextReceipt uint64
}

func newState(cfg Config) *state {
	return &state{
		config: cfg.Copy(),
		quotas: make(Quotas),
		prices: make(Prices),
	}
}

// change collects the writes of one operation. Nothing reaches the store or
// the in-memory state until the whole change is committed.
type change struct {
	config   *Config
	schedule *Schedule
	quotas   Quotas
	prices   map[uint64]*big.Int // nil or zero deletes the tier
	receipts []inter.Receipt
}

func (c *change) setQuota(addr common.Address, e inter.WhitelistEntry) {
	if c.quotas == nil {
		c.quotas = make(Quotas)
	}
	c.quotas[addr] = e
}

func (c *change) setPrice(length uint64, price *big.Int) {
	if c.prices == nil {
		c.prices = make(map[uint64]*big.Int)
	}
	c.prices[length] = price
}

// loadState reads the controller state. found is false on an empty store.
func loadState(db store.KVStore) (s *state, found bool, err error) {
	raw, err := db.Get(configKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var cfg Config
	if err := rlp.DecodeBytes(raw, &cfg); err != nil {
		return nil, false, fmt.Errorf("decode config: %w", err)
	}
	s = newState(cfg)

	var epochs []inter.Epoch
	err = forEach(db, epochPrefix, func(_, v []byte) error {
		var e inter.Epoch
		if err := rlp.DecodeBytes(v, &e); err != nil {
			return fmt.Errorf("decode epoch: %w", err)
		}
		epochs = append(epochs, e)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	// stored in schedule order already
	s.schedule = Schedule{epochs: epochs}

	err = forEach(db, whitelistPrefix, func(k, v []byte) error {
		var e inter.WhitelistEntry
		if err := rlp.DecodeBytes(v, &e); err != nil {
			return fmt.Errorf("decode whitelist entry: %w", err)
		}
		s.quotas[common.BytesToAddress(k[len(whitelistPrefix):])] = e
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	err = forEach(db, pricePrefix, func(k, v []byte) error {
		s.prices[bigendian.BytesToUint64(k[len(pricePrefix):])] = new(big.Int).SetBytes(v)
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	raw, err = db.Get(nextReceiptKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, false, err
	default:
		s.nextReceipt = bigendian.BytesToUint64(raw)
	}
	return s, true, nil
}

func forEach(db store.KVStore, prefix []byte, fn func(k, v []byte) error) error {
	it, err := db.NewIterator(prefix)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Next() {
		if err := fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return nil
}

// write stages a change into a batch.
func (s *state) write(b store.Batch, ch *change) error {
	if ch.config != nil {
		raw, err := rlp.EncodeToBytes(ch.config)
		if err != nil {
			return err
		}
		if err := b.Put(configKey, raw); err != nil {
			return err
		}
	}
	if ch.schedule != nil {
		for i, e := range ch.schedule.epochs {
			raw, err := rlp.EncodeToBytes(&e)
			if err != nil {
				return err
			}
			if err := b.Put(epochKey(idx.Epoch(i)), raw); err != nil {
				return err
			}
		}
	}
	for addr, e := range ch.quotas {
		if e.IsZero() {
			if err := b.Delete(whitelistKey(addr)); err != nil {
				return err
			}
			continue
		}
		raw, err := rlp.EncodeToBytes(&e)
		if err != nil {
			return err
		}
		if err := b.Put(whitelistKey(addr), raw); err != nil {
			return err
		}
	}
	for length, p := range ch.prices {
		if p == nil || p.Sign() == 0 {
			if err := b.Delete(priceKey(length)); err != nil {
				return err
			}
			continue
		}
		if err := b.Put(priceKey(length), p.Bytes()); err != nil {
			return err
		}
	}
	next := s.nextReceipt
	for i := range ch.receipts {
		r := &ch.receipts[i]
		r.Seq = next
		next++
		raw, err := rlp.EncodeToBytes(r)
		if err != nil {
			return err
		}
		if err := b.Put(receiptKey(r.Seq), raw); err != nil {
			return err
		}
	}
	if len(ch.receipts) != 0 {
		if err := b.Put(nextReceiptKey, bigendian.Uint64ToBytes(next)); err != nil {
			return err
		}
	}
	return nil
}

// apply mirrors a committed change into memory.
func (s *state) apply(ch *change) {
	if ch.config != nil {
		s.config = ch.config.Copy()
	}
	if ch.schedule != nil {
		s.schedule = *ch.schedule
	}
	for addr, e := range ch.quotas {
		if e.IsZero() {
			delete(s.quotas, addr)
		} else {
			s.quotas[addr] = e
		}
	}
	for length, p := range ch.prices {
		if p == nil || p.Sign() == 0 {
			delete(s.prices, length)
		} else {
			s.prices[length] = new(big.Int).Set(p)
		}
	}
	s.nextReceipt += uint64(len(ch.receipts))
}

// commit persists a change atomically and then applies it.
func (s *state) commit(db store.KVStore, ch *change) error {
	b := db.NewBatch()
	defer b.Close()
	if err := s.write(b, ch); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	s.apply(ch)
	return nil
}

// readReceipts returns up to limit receipts starting at sequence from.
func readReceipts(db store.KVStore, from uint64, limit int) ([]inter.Receipt, error) {
	var out []inter.Receipt
	errStop := errors.New("stop")
	err := forEach(db, receiptPrefix, func(k, v []byte) error {
		if bigendian.BytesToUint64(k[len(receiptPrefix):]) < from {
			return nil
		}
		if limit > 0 && len(out) >= limit {
			return errStop
		}
		var r inter.Receipt
		if err := rlp.DecodeBytes(v, &r); err != nil {
			return fmt.Errorf("decode receipt: %w", err)
		}
		out = append(out, r)
		return nil
	})
	if err != nil && err != errStop {
		return nil, err
	}
	return out, nil
}

// Initialised reports whether db already holds controller state.
func Initialised(db store.KVStore) (bool, error) {
	_, err := db.Get(configKey)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
