package memledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-opera-names/ledger"
)

// Registry is the chain-wide node registry.
type Registry struct {
	chain *Chain
}

// Owner implements ledger.Registry.
func (r *Registry) Owner(node common.Hash) common.Address {
	r.chain.mu.Lock()
	defer r.chain.mu.Unlock()
	return r.chain.state.registry[node].owner
}

// Resolver implements ledger.Registry.
func (r *Registry) Resolver(node common.Hash) common.Address {
	r.chain.mu.Lock()
	defer r.chain.mu.Unlock()
	return r.chain.state.registry[node].resolver
}

// SetResolver implements ledger.Registry.
func (r *Registry) SetResolver(caller common.Address, node common.Hash, resolver common.Address) error {
	r.chain.mu.Lock()
	defer r.chain.mu.Unlock()

	rec := r.chain.state.registry[node]
	if rec.owner != caller {
		return fmt.Errorf("%w: %s does not own node %s", ledger.ErrNotAuthorised, caller.Hex(), node.Hex())
	}
	rec.resolver = resolver
	r.chain.state.registry[node] = rec
	return nil
}
