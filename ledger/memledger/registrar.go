package memledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-opera-names/inter"
	"github.com/rony4d/go-opera-names/ledger"
)

// BaseRegistrar is the token-style registrar of one namespace.
type BaseRegistrar struct {
	chain    *Chain
	address  common.Address
	baseNode common.Hash
	grace    inter.Timestamp
	registry *Registry
}

// DeployRegistrar creates a base registrar for baseNode at addr and makes it the
// registry owner of baseNode.
func (c *Chain) DeployRegistrar(addr common.Address, baseNode common.Hash) *BaseRegistrar {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := &BaseRegistrar{
		chain:    c,
		address:  addr,
		baseNode: baseNode,
		grace:    DefaultGracePeriod,
		registry: &Registry{chain: c},
	}
	c.registrars[addr] = r
	c.state.expiries[addr] = make(map[common.Hash]inter.Timestamp)
	c.state.tokenOwners[addr] = make(map[common.Hash]common.Address)
	c.state.controllers[addr] = make(map[common.Address]bool)
	c.state.registry[baseNode] = registryRecord{owner: addr}
	return r
}

// Address is where the registrar is deployed.
func (r *BaseRegistrar) Address() common.Address {
	return r.address
}

// AddController authorises a controller to mint and renew.
func (r *BaseRegistrar) AddController(controller common.Address) {
	r.chain.mu.Lock()
	defer r.chain.mu.Unlock()
	r.chain.state.controllers[r.address][controller] = true
}

// RemoveController revokes a controller.
func (r *BaseRegistrar) RemoveController(controller common.Address) {
	r.chain.mu.Lock()
	defer r.chain.mu.Unlock()
	delete(r.chain.state.controllers[r.address], controller)
}

// BaseNode implements ledger.Registrar.
func (r *BaseRegistrar) BaseNode() common.Hash {
	return r.baseNode
}

// Registry implements ledger.Registrar.
func (r *BaseRegistrar) Registry() ledger.Registry {
	return r.registry
}

// Available implements ledger.Registrar.
func (r *BaseRegistrar) Available(id *big.Int) bool {
	r.chain.mu.Lock()
	defer r.chain.mu.Unlock()
	return r.available(common.BigToHash(id))
}

func (r *BaseRegistrar) available(key common.Hash) bool {
	expiry := r.chain.state.expiries[r.address][key]
	return expiry.Add(r.grace) < r.chain.now
}

// NameExpires implements ledger.Registrar.
func (r *BaseRegistrar) NameExpires(id *big.Int) inter.Timestamp {
	r.chain.mu.Lock()
	defer r.chain.mu.Unlock()
	return r.chain.state.expiries[r.address][common.BigToHash(id)]
}

// OwnerOf implements ledger.Registrar. Expired tokens have no owner.
func (r *BaseRegistrar) OwnerOf(id *big.Int) common.Address {
	r.chain.mu.Lock()
	defer r.chain.mu.Unlock()
	key := common.BigToHash(id)
	if r.chain.state.expiries[r.address][key] <= r.chain.now {
		return common.Address{}
	}
	return r.chain.state.tokenOwners[r.address][key]
}

// Register implements ledger.Registrar.
func (r *BaseRegistrar) Register(caller common.Address, name string, id *big.Int, owner common.Address, duration inter.Timestamp) (inter.Timestamp, error) {
	r.chain.mu.Lock()
	defer r.chain.mu.Unlock()

	if !r.chain.state.controllers[r.address][caller] {
		return 0, fmt.Errorf("%w: %s is not a controller", ledger.ErrNotAuthorised, caller.Hex())
	}
	key := common.BigToHash(id)
	if key != ledger.LabelHash(name) {
		return 0, fmt.Errorf("memledger: id does not match label %q", name)
	}
	if !r.available(key) {
		return 0, fmt.Errorf("%w: %q", ledger.ErrNotAvailable, name)
	}
	expiry := r.chain.now.Add(duration)
	r.chain.state.expiries[r.address][key] = expiry
	r.chain.state.tokenOwners[r.address][key] = owner

	node := ledger.SubNode(r.baseNode, key)
	rec := r.chain.state.registry[node]
	rec.owner = owner
	r.chain.state.registry[node] = rec
	return expiry, nil
}

// Renew implements ledger.Registrar.
func (r *BaseRegistrar) Renew(caller common.Address, id *big.Int, duration inter.Timestamp) (inter.Timestamp, error) {
	r.chain.mu.Lock()
	defer r.chain.mu.Unlock()

	if !r.chain.state.controllers[r.address][caller] {
		return 0, fmt.Errorf("%w: %s is not a controller", ledger.ErrNotAuthorised, caller.Hex())
	}
	key := common.BigToHash(id)
	expiry, ok := r.chain.state.expiries[r.address][key]
	if !ok || expiry.Add(r.grace) < r.chain.now {
		return 0, ledger.ErrNotRegistered
	}
	expiry = expiry.Add(duration)
	r.chain.state.expiries[r.address][key] = expiry
	return expiry, nil
}

// Reclaim implements ledger.Registrar.
func (r *BaseRegistrar) Reclaim(caller common.Address, id *big.Int, owner common.Address) error {
	r.chain.mu.Lock()
	defer r.chain.mu.Unlock()

	key := common.BigToHash(id)
	if err := r.checkTokenOwner(caller, key); err != nil {
		return err
	}
	node := ledger.SubNode(r.baseNode, key)
	rec := r.chain.state.registry[node]
	rec.owner = owner
	r.chain.state.registry[node] = rec
	return nil
}

// TransferFrom implements ledger.Registrar.
func (r *BaseRegistrar) TransferFrom(caller common.Address, from, to common.Address, id *big.Int) error {
	r.chain.mu.Lock()
	defer r.chain.mu.Unlock()

	key := common.BigToHash(id)
	if caller != from {
		return fmt.Errorf("%w: %s cannot move tokens of %s", ledger.ErrNotAuthorised, caller.Hex(), from.Hex())
	}
	if err := r.checkTokenOwner(from, key); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return fmt.Errorf("memledger: transfer to the zero address")
	}
	r.chain.state.tokenOwners[r.address][key] = to
	return nil
}

func (r *BaseRegistrar) checkTokenOwner(who common.Address, key common.Hash) error {
	if r.chain.state.expiries[r.address][key] <= r.chain.now {
		return ledger.ErrNotRegistered
	}
	if r.chain.state.tokenOwners[r.address][key] != who {
		return fmt.Errorf("%w: %s does not own the token", ledger.ErrNotAuthorised, who.Hex())
	}
	return nil
}
