package memledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-opera-names/ledger"
)

// PublicResolver stores address records for nodes; writes are gated on registry ownership.
type PublicResolver struct {
	chain   *Chain
	address common.Address
}

// DeployResolver creates a public resolver at addr.
func (c *Chain) DeployResolver(addr common.Address) *PublicResolver {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := &PublicResolver{chain: c, address: addr}
	c.resolvers[addr] = r
	c.state.addrs[addr] = make(map[common.Hash]common.Address)
	return r
}

// Address is where the resolver is deployed.
func (r *PublicResolver) Address() common.Address {
	return r.address
}

// Addr implements ledger.Resolver.
func (r *PublicResolver) Addr(node common.Hash) common.Address {
	r.chain.mu.Lock()
	defer r.chain.mu.Unlock()
	return r.chain.state.addrs[r.address][node]
}

// SetAddr implements ledger.Resolver.
func (r *PublicResolver) SetAddr(caller common.Address, node common.Hash, addr common.Address) error {
	r.chain.mu.Lock()
	defer r.chain.mu.Unlock()

	if r.chain.state.registry[node].owner != caller {
		return fmt.Errorf("%w: %s may not edit node %s", ledger.ErrNotAuthorised, caller.Hex(), node.Hex())
	}
	r.chain.state.addrs[r.address][node] = addr
	return nil
}
