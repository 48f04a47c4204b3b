package memledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenContract is a minimal fungible token: balances and transfer.
type TokenContract struct {
	chain   *Chain
	address common.Address
}

// DeployToken creates a token at addr with the given initial balances.
func (c *Chain) DeployToken(addr common.Address, balances map[common.Address]*big.Int) *TokenContract {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &TokenContract{chain: c, address: addr}
	c.tokens[addr] = t
	c.state.tokenBalances[addr] = make(map[common.Address]*big.Int, len(balances))
	for acc, bal := range balances {
		c.state.tokenBalances[addr][acc] = new(big.Int).Set(bal)
	}
	return t
}

// Address is where the token is deployed.
func (t *TokenContract) Address() common.Address {
	return t.address
}

// BalanceOf implements ledger.Token.
func (t *TokenContract) BalanceOf(account common.Address) *big.Int {
	t.chain.mu.Lock()
	defer t.chain.mu.Unlock()
	if bal, ok := t.chain.state.tokenBalances[t.address][account]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Transfer implements ledger.Token.
func (t *TokenContract) Transfer(caller common.Address, to common.Address, amount *big.Int) error {
	t.chain.mu.Lock()
	defer t.chain.mu.Unlock()
	return move(t.chain.state.tokenBalances[t.address], caller, to, amount)
}
