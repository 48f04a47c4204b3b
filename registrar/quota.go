package registrar

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-opera-names/inter"
)

// Quotas is the whitelist. Addresses without an entry hold the zero entry.
type Quotas map[common.Address]inter.WhitelistEntry

// Peek returns the entry of addr without changing it.
func (q Quotas) Peek(addr common.Address) inter.WhitelistEntry {
	return q[addr]
}

// Grant merges the same grant into every address and returns the updated
// entries. The receiver is not modified.
func (q Quotas) Grant(grant inter.WhitelistEntry, addrs []common.Address) Quotas {
	updated := make(Quotas, len(addrs))
	for _, addr := range addrs {
		cur, ok := updated[addr]
		if !ok {
			cur = q.Peek(addr)
		}
		updated[addr] = cur.Merge(grant)
	}
	return updated
}

// ConsumeOne returns the entry of addr after one registration, and whether
// anything changed.
func (q Quotas) ConsumeOne(addr common.Address) (inter.WhitelistEntry, bool) {
	cur := q.Peek(addr)
	next := cur.Consume()
	return next, next != cur
}

// Copy returns a shallow copy; entries are values.
func (q Quotas) Copy() Quotas {
	cp := make(Quotas, len(q))
	for k, v := range q {
		cp[k] = v
	}
	return cp
}
