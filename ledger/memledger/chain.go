// Package memledger is an in-memory ledger: native balances, a name registry, a
// token-style base registrar with a grace period, a public resolver and fungible
// tokens, all behind one snapshot/revert journal and one settable clock.
//
// It backs the devnet mode of the CLI and the controller tests. The behaviour
// follows the deployed contracts closely enough for the controller's purposes:
//   - only controllers added to a registrar may mint and renew
//   - a name stays unavailable for GracePeriod after it expires
//   - only a node's registry owner may change its resolver or address record
//   - registrar tokens and registry ownership are separate (Reclaim syncs them)
package memledger

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-opera-names/inter"
	"github.com/rony4d/go-opera-names/ledger"
)

// FakeGenesisTime is the default devnet clock start.
// Timestamp: 1608600000 seconds since Unix epoch (December 22, 2020).
var FakeGenesisTime = inter.FromUnix(1608600000)

// DefaultGracePeriod is how long an expired name stays reserved for its last owner.
const DefaultGracePeriod = 90 * inter.Day

type registryRecord struct {
	owner    common.Address
	resolver common.Address
}

// world is the complete mutable state; snapshots are deep copies of it.
type world struct {
	balances map[common.Address]*big.Int
	registry map[common.Hash]registryRecord

	// per registrar contract
	expiries    map[common.Address]map[common.Hash]inter.Timestamp
	tokenOwners map[common.Address]map[common.Hash]common.Address
	controllers map[common.Address]map[common.Address]bool

	// per resolver contract
	addrs map[common.Address]map[common.Hash]common.Address

	// per token contract
	tokenBalances map[common.Address]map[common.Address]*big.Int
}

func newWorld() *world {
	return &world{
		balances:      make(map[common.Address]*big.Int),
		registry:      make(map[common.Hash]registryRecord),
		expiries:      make(map[common.Address]map[common.Hash]inter.Timestamp),
		tokenOwners:   make(map[common.Address]map[common.Hash]common.Address),
		controllers:   make(map[common.Address]map[common.Address]bool),
		addrs:         make(map[common.Address]map[common.Hash]common.Address),
		tokenBalances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

func (w *world) copy() *world {
	cp := newWorld()
	for k, v := range w.balances {
		cp.balances[k] = new(big.Int).Set(v)
	}
	for k, v := range w.registry {
		cp.registry[k] = v
	}
	for c, m := range w.expiries {
		cp.expiries[c] = make(map[common.Hash]inter.Timestamp, len(m))
		for k, v := range m {
			cp.expiries[c][k] = v
		}
	}
	for c, m := range w.tokenOwners {
		cp.tokenOwners[c] = make(map[common.Hash]common.Address, len(m))
		for k, v := range m {
			cp.tokenOwners[c][k] = v
		}
	}
	for c, m := range w.controllers {
		cp.controllers[c] = make(map[common.Address]bool, len(m))
		for k, v := range m {
			cp.controllers[c][k] = v
		}
	}
	for c, m := range w.addrs {
		cp.addrs[c] = make(map[common.Hash]common.Address, len(m))
		for k, v := range m {
			cp.addrs[c][k] = v
		}
	}
	for c, m := range w.tokenBalances {
		cp.tokenBalances[c] = make(map[common.Address]*big.Int, len(m))
		for k, v := range m {
			cp.tokenBalances[c][k] = new(big.Int).Set(v)
		}
	}
	return cp
}

// Chain is the in-memory ledger. It implements ledger.Backend.
type Chain struct {
	mu    sync.Mutex
	now   inter.Timestamp
	state *world
	snaps []*world

	registrars map[common.Address]*BaseRegistrar
	resolvers  map[common.Address]*PublicResolver
	tokens     map[common.Address]*TokenContract
}

// Genesis seeds a Chain.
type Genesis struct {
	Time     inter.Timestamp
	Balances map[common.Address]*big.Int
}

// New creates a chain from a genesis. A zero Time falls back to FakeGenesisTime.
func New(g Genesis) *Chain {
	c := &Chain{
		now:        g.Time,
		state:      newWorld(),
		registrars: make(map[common.Address]*BaseRegistrar),
		resolvers:  make(map[common.Address]*PublicResolver),
		tokens:     make(map[common.Address]*TokenContract),
	}
	if c.now == 0 {
		c.now = FakeGenesisTime
	}
	for addr, bal := range g.Balances {
		c.state.balances[addr] = new(big.Int).Set(bal)
	}
	return c
}

// Now implements ledger.Backend.
func (c *Chain) Now() inter.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// SetTime moves the clock to t.
func (c *Chain) SetTime(t inter.Timestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *Chain) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(inter.FromDuration(d))
}

// Snapshot implements ledger.Journal.
func (c *Chain) Snapshot() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps = append(c.snaps, c.state.copy())
	return len(c.snaps) - 1
}

// RevertToSnapshot implements ledger.Journal.
func (c *Chain) RevertToSnapshot(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id < 0 || id >= len(c.snaps) {
		panic(fmt.Errorf("memledger: revert to unknown snapshot %d", id))
	}
	c.state = c.snaps[id]
	c.snaps = c.snaps[:id]
}

// DiscardSnapshot implements ledger.Journal.
func (c *Chain) DiscardSnapshot(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id < 0 || id >= len(c.snaps) {
		return
	}
	c.snaps = c.snaps[:id]
}

// BalanceOf implements ledger.Bank.
func (c *Chain) BalanceOf(account common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balanceOf(account)
}

func (c *Chain) balanceOf(account common.Address) *big.Int {
	if bal, ok := c.state.balances[account]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Transfer implements ledger.Bank.
func (c *Chain) Transfer(from, to common.Address, amount *big.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return move(c.state.balances, from, to, amount)
}

// Mint credits native value out of thin air (devnet faucet).
func (c *Chain) Mint(to common.Address, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.balances[to] = new(big.Int).Add(c.balanceOf(to), amount)
}

// Registrar implements ledger.Backend.
func (c *Chain) Registrar(addr common.Address) (ledger.Registrar, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.registrars[addr]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("%w: registrar %s", ledger.ErrUnknownContract, addr.Hex())
}

// Resolver implements ledger.Backend.
func (c *Chain) Resolver(addr common.Address) (ledger.Resolver, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.resolvers[addr]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("%w: resolver %s", ledger.ErrUnknownContract, addr.Hex())
}

// Token implements ledger.Backend.
func (c *Chain) Token(addr common.Address) (ledger.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.tokens[addr]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: token %s", ledger.ErrUnknownContract, addr.Hex())
}

// move transfers amount between two entries of a balance map.
func move(balances map[common.Address]*big.Int, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("memledger: negative transfer %s", amount)
	}
	have := balances[from]
	if have == nil || have.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %v, needs %s", ledger.ErrInsufficientBalance, from.Hex(), have, amount)
	}
	balances[from] = new(big.Int).Sub(have, amount)
	if balances[to] == nil {
		balances[to] = new(big.Int)
	}
	balances[to] = new(big.Int).Add(balances[to], amount)
	return nil
}
